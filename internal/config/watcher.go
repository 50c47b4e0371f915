package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/char5742/floatball/internal/log"
)

// ReloadCallback は設定ファイルが変更されたときに呼び出される
type ReloadCallback func(cfg *Config)

// Watcher は設定ファイルの変更を監視する構造体
// エディタは1回の保存で複数のイベントを出すため、内容のハッシュが変わったときだけ通知する
type Watcher struct {
	path      string
	watcher   *fsnotify.Watcher
	logger    log.Log
	callbacks []ReloadCallback
	lastHash  uint64
	mutex     sync.Mutex
	stopChan  chan struct{}
	doneChan  chan struct{}
	isRunning bool
}

// NewWatcher は新しいWatcherを作成する
func NewWatcher(path string, logger log.Log) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:     filepath.Clean(path),
		watcher:  watcher,
		logger:   logger,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

// RegisterCallback は通知先を登録する
func (w *Watcher) RegisterCallback(callback ReloadCallback) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start は監視を開始する
// ファイルの置き換え保存にも追従するため、ディレクトリごと監視する
func (w *Watcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.isRunning {
		return nil
	}

	if data, err := os.ReadFile(w.path); err == nil {
		w.lastHash = xxhash.Sum64(data)
	}
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.isRunning = true
	go w.watchEvents()
	w.logger.Info("設定ファイルの監視を開始", log.String("path", w.path))
	return nil
}

// Stop は監視を停止する
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if !w.isRunning {
		w.mutex.Unlock()
		return
	}
	w.isRunning = false
	close(w.stopChan)
	w.mutex.Unlock()

	_ = w.watcher.Close()
	<-w.doneChan
	w.logger.Info("設定ファイルの監視を停止", log.String("path", w.path))
}

func (w *Watcher) watchEvents() {
	defer close(w.doneChan)
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("設定ファイル監視エラー", log.Err(err))
		}
	}
}

// reload はファイル内容が変化していれば解析して通知する
func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// 置き換え途中でファイルが一時的に存在しないことがある
		return
	}

	hash := xxhash.Sum64(data)
	w.mutex.Lock()
	if hash == w.lastHash {
		w.mutex.Unlock()
		return
	}
	w.lastHash = hash
	callbacks := append([]ReloadCallback(nil), w.callbacks...)
	w.mutex.Unlock()

	cfg := DefaultConfig()
	if err := Decode(w.path, data, cfg); err != nil {
		w.logger.Warn("設定ファイルの解析に失敗したため無視します", log.Err(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("設定値が不正なため無視します", log.Err(err))
		return
	}

	w.logger.Info("設定ファイルを再読み込みしました", log.String("path", w.path))
	for _, cb := range callbacks {
		cb(cfg)
	}
}
