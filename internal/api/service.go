package api

import (
	"errors"
	"fmt"
	"sync"

	"github.com/char5742/floatball/internal/config"
	"github.com/char5742/floatball/internal/engine"
	"github.com/char5742/floatball/internal/log"
)

// ErrNotRunning はセッションが動いていないときに返す
var ErrNotRunning = errors.New("simulation is not running")

// SimulationService はシミュレーションセッションの起動と停止を管理する構造体
type SimulationService struct {
	cfg         *config.Config
	logger      log.Log
	sink        engine.Sink
	options     []engine.Option
	session     *engine.Session
	statusMutex sync.RWMutex
}

// NewSimulationService は新しいシミュレーションサービスを作成する
func NewSimulationService(cfg *config.Config, logger log.Log, sink engine.Sink, options ...engine.Option) *SimulationService {
	return &SimulationService{
		cfg:     cfg,
		logger:  logger,
		sink:    sink,
		options: options,
	}
}

// Start はセッションを作成して開始する
func (s *SimulationService) Start() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if s.session != nil {
		return fmt.Errorf("セッションは既に実行中です")
	}

	options := append([]engine.Option{engine.WithLogger(s.logger)}, s.options...)
	session := engine.NewSession(s.cfg, s.sink, options...)
	if err := session.Start(); err != nil {
		return fmt.Errorf("セッションの開始に失敗しました: %w", err)
	}
	s.session = session
	return nil
}

// Stop はセッションを終了する
func (s *SimulationService) Stop() error {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	if s.session == nil {
		return ErrNotRunning
	}
	err := s.session.Close()
	s.session = nil
	return err
}

// IsRunning はセッションが実行中かどうかを返す
func (s *SimulationService) IsRunning() bool {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	return s.session != nil
}

// Session は実行中のセッションを返す
func (s *SimulationService) Session() (*engine.Session, error) {
	s.statusMutex.RLock()
	defer s.statusMutex.RUnlock()
	if s.session == nil {
		return nil, ErrNotRunning
	}
	return s.session, nil
}

// UpdateConfig は設定を更新し、実行中のセッションにも反映する
// コンテナサイズなどのセッション設定は次回の Start から有効になる
func (s *SimulationService) UpdateConfig(cfg *config.Config) {
	s.statusMutex.Lock()
	defer s.statusMutex.Unlock()

	s.cfg = cfg
	if s.session == nil {
		return
	}
	if err := s.session.UpdateConfig(cfg.Physics); err != nil {
		s.logger.Warn("設定をセッションに反映できませんでした", log.Err(err))
	}
}
