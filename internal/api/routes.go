package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/char5742/floatball/internal/config"
	"github.com/char5742/floatball/internal/engine"
	"github.com/char5742/floatball/internal/types"
)

// ルートの設定
func (s *Server) setupRoutes(router *http.ServeMux) {
	// 設定関連のエンドポイント
	router.HandleFunc("GET /api/config", s.handleGetConfig)
	router.HandleFunc("PUT /api/config", s.handleUpdateConfig)
	router.HandleFunc("POST /api/config/save", s.handleSaveConfig)

	// セッション関連のエンドポイント
	router.HandleFunc("POST /api/session/start", s.handleStartSession)
	router.HandleFunc("POST /api/session/stop", s.handleStopSession)
	router.HandleFunc("GET /api/session/status", s.handleSessionStatus)
	router.HandleFunc("GET /api/state", s.handleState)

	// 入力
	router.HandleFunc("POST /api/sensor", s.handleSensor)
	router.HandleFunc("POST /api/gesture/begin", s.handleDragBegin)
	router.HandleFunc("POST /api/gesture/move", s.handleDragMove)
	router.HandleFunc("POST /api/gesture/end", s.handleDragEnd)
	router.HandleFunc("POST /api/gesture/longpress", s.handleLongPress)
	router.HandleFunc("POST /api/physics/reset", s.handleReset)
	router.HandleFunc("PUT /api/bounds", s.handleBounds)

	// 位置の配信
	router.Handle("GET /api/ws", s.hub)

	// ヘルスチェック用エンドポイント
	router.HandleFunc("GET /api/health", s.handleHealthCheck)
}

type sensorRequest struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type beginRequest struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
}

type moveRequest struct {
	DX        float64 `json:"dx"`
	DY        float64 `json:"dy"`
	Timestamp int64   `json:"timestamp"`
}

type endRequest struct {
	Timestamp int64 `json:"timestamp"`
}

type boundsRequest struct {
	Container types.Bounds   `json:"container"`
	Body      types.BodySize `json:"body"`
}

// 設定取得ハンドラ
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.GetConfig())
}

// 設定更新ハンドラ
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	newConfig := *s.GetConfig()

	if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
		s.writeError(w, http.StatusBadRequest, "設定の解析に失敗しました")
		return
	}
	if err := newConfig.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.UpdateConfig(&newConfig)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// 設定保存ハンドラ
func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var saveRequest struct {
		Path string `json:"path"`
	}

	if err := json.NewDecoder(r.Body).Decode(&saveRequest); err != nil {
		s.writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	configPath := saveRequest.Path
	if configPath == "" {
		// デフォルトパスを使用
		userConfigDir, err := config.GetDefaultConfigDir()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "デフォルト設定ディレクトリの取得に失敗しました")
			return
		}
		configPath = filepath.Join(userConfigDir, "config.toml")
	}

	if err := config.SaveConfig(configPath, s.GetConfig()); err != nil {
		s.writeError(w, http.StatusInternalServerError, "設定の保存に失敗しました: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"path":   configPath,
	})
}

// セッション開始ハンドラ
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	if s.service.IsRunning() {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "already_running"})
		return
	}
	if err := s.service.Start(); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// セッション停止ハンドラ
func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Stop(); err != nil {
		if errors.Is(err, ErrNotRunning) {
			s.writeJSON(w, http.StatusOK, map[string]string{"status": "not_running"})
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// セッション状態取得ハンドラ
func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "stopped"}
	if session, err := s.service.Session(); err == nil {
		status["status"] = "running"
		status["session"] = session.ID()
	}
	s.writeJSON(w, http.StatusOK, status)
}

// シミュレーション状態取得ハンドラ
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w)
	if !ok {
		return
	}
	snap, err := session.Snapshot(r.Context())
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSensor(w http.ResponseWriter, r *http.Request) {
	var req sensorRequest
	if !s.decode(w, r, &req) {
		return
	}
	kind, ok := types.ParseSensorKind(req.Kind)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "不明なセンサー種別です: "+req.Kind)
		return
	}
	s.dispatch(w, func(session *engine.Session) error {
		return session.Sensor(kind, req.X, req.Y)
	})
}

func (s *Server) handleDragBegin(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.dispatch(w, func(session *engine.Session) error {
		return session.BeginDrag(req.X, req.Y, req.Timestamp)
	})
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.dispatch(w, func(session *engine.Session) error {
		return session.MoveDrag(req.DX, req.DY, req.Timestamp)
	})
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.dispatch(w, func(session *engine.Session) error {
		return session.EndDrag(req.Timestamp)
	})
}

func (s *Server) handleLongPress(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, func(session *engine.Session) error {
		return session.LongPress()
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req pointRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.dispatch(w, func(session *engine.Session) error {
		return session.ResetPhysics(req.X, req.Y)
	})
}

func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	var req boundsRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.dispatch(w, func(session *engine.Session) error {
		return session.Resize(req.Container, req.Body)
	})
}

// ヘルスチェックハンドラ
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}

// decode はリクエストボディを解析する。空のボディはゼロ値として扱う
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return false
	}
	return true
}

func (s *Server) session(w http.ResponseWriter) (*engine.Session, bool) {
	session, err := s.service.Session()
	if err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return nil, false
	}
	return session, true
}

// dispatch は入力を実行中のセッションへ送る
func (s *Server) dispatch(w http.ResponseWriter, send func(*engine.Session) error) {
	session, ok := s.session(w)
	if !ok {
		return
	}
	if err := send(session); err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInboxFull):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, engine.ErrSessionClosed):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
