package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/char5742/floatball/internal/config"
	"github.com/char5742/floatball/internal/log"
)

// Server はAPIサーバーを表す構造体
type Server struct {
	server  *http.Server
	cfg     *config.Config
	service *SimulationService
	hub     *Hub
	logger  log.Log
	mutex   sync.RWMutex
	port    int
}

// NewServer は新しいAPIサーバーを作成する
func NewServer(cfg *config.Config, service *SimulationService, hub *Hub, logger log.Log) *Server {
	return &Server{
		cfg:     cfg,
		service: service,
		hub:     hub,
		logger:  logger,
		port:    cfg.Server.Port,
	}
}

// Handler はルーティング済みのハンドラーを返す
func (s *Server) Handler() http.Handler {
	router := http.NewServeMux()
	s.setupRoutes(router)
	return router
}

// Run はAPIサーバーを起動し、ctx が終わるとシャットダウンする
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("APIサーバーを開始します", log.String("url", s.URL()))
		errChan <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("APIサーバーを停止します...")
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errChan; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// URL はローカルからアクセスするときのURLを返す
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// GetConfig は現在の設定を返す
func (s *Server) GetConfig() *config.Config {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.cfg
}

// UpdateConfig は設定を更新する
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.mutex.Lock()
	s.cfg = cfg
	s.mutex.Unlock()
	s.service.UpdateConfig(cfg)
}

// writeJSON はJSONレスポンスを書き込む
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Warn("JSONエンコードエラー", log.Err(err))
		}
	}
}

// writeError はエラーレスポンスを書き込む
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	response := map[string]string{"error": message}
	s.writeJSON(w, status, response)
}
