package engine

import (
	"math/rand/v2"

	"github.com/char5742/floatball/internal/config"
	"github.com/char5742/floatball/internal/consts"
	"github.com/char5742/floatball/internal/features"
	"github.com/char5742/floatball/internal/log"
	"github.com/char5742/floatball/internal/physics"
	"github.com/char5742/floatball/internal/types"
)

// State はエンジンだけが書き換えるシミュレーション状態
type State struct {
	Position types.Vector2
	Velocity types.Vector2
	Gravity  types.Vector2
	Mode     types.InteractionMode
}

// Machine はモード遷移と物理計算を同期的に行う
// 時刻はすべて呼び出し側が渡すミリ秒で扱い、自分では時計を読まない
type Machine struct {
	cfg        config.PhysicsConfig
	state      State
	filter     *features.GravityFilter
	tracker    *features.DragTracker
	resolver   *physics.Resolver
	integrator *physics.Integrator
	logger     log.Log
	random     func() float64

	settleAt   int64 // Idle から Settling へ移る時刻
	subscribed bool  // センサー値を受け付けるか
	placed     bool  // 初期位置を決めたか
	closed     bool
}

// MachineOption は Machine の生成オプション
type MachineOption func(*Machine)

// WithRandom は長押しで使う乱数源を差し替える。[0,1) を返すこと
func WithRandom(random func() float64) MachineOption {
	return func(m *Machine) { m.random = random }
}

// WithMachineLogger はロガーを設定する
func WithMachineLogger(logger log.Log) MachineOption {
	return func(m *Machine) { m.logger = logger }
}

// NewMachine は Idle 状態の Machine を作成する
// 物理は nowMillis から猶予時間が過ぎるまで無効
func NewMachine(cfg config.PhysicsConfig, session config.SessionConfig, nowMillis int64, opts ...MachineOption) *Machine {
	initial := types.Vector2{X: cfg.InitialGravityX, Y: cfg.InitialGravityY}
	resolver := physics.NewResolver(cfg.BounceDamping, cfg.FloorFriction, consts.FallbackBodySize)
	m := &Machine{
		cfg:        cfg,
		filter:     features.NewGravityFilter(cfg.GravityStrength, cfg.SensorSmoothing, cfg.SensorWarmUp, initial),
		tracker:    features.NewDragTracker(cfg.BaselineInterval.Milliseconds(), cfg.ThrowCap),
		resolver:   resolver,
		integrator: physics.NewIntegrator(integratorParams(cfg), resolver),
		logger:     log.Nop(),
		random:     rand.Float64,
		settleAt:   nowMillis + cfg.IdleGrace.Milliseconds(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.state = State{Gravity: initial, Mode: types.ModeIdle}
	m.Resize(session.Container, session.Body)
	return m
}

func integratorParams(cfg config.PhysicsConfig) physics.Params {
	return physics.Params{
		Tick:            cfg.Tick,
		Friction:        cfg.Friction,
		SettleThreshold: cfg.SettleThreshold,
		SettleDamping:   cfg.SettleDamping,
	}
}

// Sensor はセンサー値を重力ベクトルに反映する
// ドラッグ中や終了後、不正な値のときは false を返す
func (m *Machine) Sensor(kind types.SensorKind, x, y float64) bool {
	if m.closed || !m.subscribed {
		return false
	}
	gravity, ok := m.filter.Filter(kind, x, y)
	if !ok {
		return false
	}
	m.state.Gravity = gravity
	return true
}

// BeginDrag はドラッグを開始する。積分を止め、速度を0にする
func (m *Machine) BeginDrag(nowMillis int64) {
	if m.closed {
		return
	}
	m.setMode(types.ModeDragging)
	m.subscribed = false
	m.state.Velocity = types.Vector2{}
	m.tracker.Begin(m.state.Position, nowMillis)
}

// MoveDrag はポインターの移動量を位置に反映し、出力する位置を返す
func (m *Machine) MoveDrag(delta types.Vector2, nowMillis int64) (types.Point, bool) {
	if m.closed || m.state.Mode != types.ModeDragging {
		return types.Point{}, false
	}
	m.state.Position = m.tracker.Update(delta, nowMillis, m.resolver)
	return m.state.Position.Round(), true
}

// EndDrag はドラッグを終了して投げ速度を設定する
// 猶予時間の後に Settling へ移る
func (m *Machine) EndDrag(nowMillis int64) types.Vector2 {
	if m.closed || m.state.Mode != types.ModeDragging {
		return m.state.Velocity
	}
	m.state.Velocity = m.tracker.End(nowMillis)
	m.subscribed = true
	m.settleAt = nowMillis + m.cfg.IdleGrace.Milliseconds()
	m.setMode(types.ModeIdle)
	return m.state.Velocity
}

// LongPress はランダムな速度を加える
func (m *Machine) LongPress() types.Vector2 {
	if m.closed || m.state.Mode == types.ModeDragging {
		return m.state.Velocity
	}
	r := m.cfg.ImpulseRange
	impulse := types.Vector2{X: (m.random()*2 - 1) * r, Y: (m.random()*2 - 1) * r}
	m.state.Velocity = m.state.Velocity.Add(impulse)
	return m.state.Velocity
}

// ResetPhysics は速度を impulse にして物理を有効にする
// Settling 中はモードを変えない
func (m *Machine) ResetPhysics(impulse types.Vector2) {
	if m.closed || m.state.Mode == types.ModeDragging || !impulse.IsFinite() {
		return
	}
	m.state.Velocity = impulse
	if m.state.Mode == types.ModeIdle {
		m.enterSettling()
	}
}

// Resize はコンテナと物体の大きさを更新し、位置をコンテナ内に収める
func (m *Machine) Resize(container types.Bounds, body types.BodySize) {
	if m.closed {
		return
	}
	m.resolver.SetBounds(container)
	if body.IsFinite() && (body.Width > 0 || body.Height > 0) {
		m.resolver.SetBody(body)
	}

	bounds := m.resolver.Bounds()
	if !m.placed && bounds.Width > 0 && bounds.Height > 0 {
		if center := bounds.Center(m.resolver.Body()); center.IsFinite() {
			m.state.Position = center
			m.placed = true
		}
	}
	if clamped := m.resolver.Clamp(m.state.Position); clamped.IsFinite() {
		m.state.Position = clamped
	}
}

// Place は位置を直接指定する。ホストが初期位置を決める場合に使う
func (m *Machine) Place(position types.Vector2) {
	if m.closed || !position.IsFinite() {
		return
	}
	if clamped := m.resolver.Clamp(position); clamped.IsFinite() {
		m.state.Position = clamped
		m.placed = true
	}
}

// Configure は物理パラメーターを差し替える
func (m *Machine) Configure(cfg config.PhysicsConfig) {
	m.cfg = cfg
	m.filter.Configure(cfg.GravityStrength, cfg.SensorSmoothing, cfg.SensorWarmUp)
	m.tracker.Configure(cfg.BaselineInterval.Milliseconds(), cfg.ThrowCap)
	m.resolver.Configure(cfg.BounceDamping, cfg.FloorFriction)
	m.integrator.Configure(integratorParams(cfg))
}

// Tick は1ティック分シミュレーションを進める
// Idle 中は猶予時間の経過だけを確認し、Dragging 中は何もしない
func (m *Machine) Tick(nowMillis int64) (types.Point, bool) {
	if m.closed {
		return types.Point{}, false
	}

	switch m.state.Mode {
	case types.ModeDragging:
		return types.Point{}, false
	case types.ModeIdle:
		if nowMillis < m.settleAt {
			return types.Point{}, false
		}
		m.enterSettling()
	}

	pos, vel, edges := m.integrator.Step(m.state.Position, m.state.Velocity, m.state.Gravity)
	m.state.Position, m.state.Velocity = pos, vel
	if edges != 0 {
		m.logger.Debug("衝突", log.Int("edges", int(edges)), log.Float64("vx", vel.X), log.Float64("vy", vel.Y))
	}
	return pos.Round(), true
}

// Close はセッションを終了する。以降の入力はすべて無視される
func (m *Machine) Close() {
	m.closed = true
	m.subscribed = false
}

// Closed は終了済みかを返す
func (m *Machine) Closed() bool {
	return m.closed
}

// Mode は現在のモードを返す
func (m *Machine) Mode() types.InteractionMode {
	return m.state.Mode
}

// State は現在の状態のコピーを返す
func (m *Machine) State() State {
	return m.state
}

// Snapshot は診断用の状態を返す
func (m *Machine) Snapshot() types.Snapshot {
	return types.Snapshot{
		Mode:     m.state.Mode,
		Position: m.state.Position,
		Velocity: m.state.Velocity,
		Gravity:  m.state.Gravity,
		Bounds:   m.resolver.Bounds(),
		Body:     m.resolver.Body(),
		Sensor:   m.filter.Kind(),
		Closed:   m.closed,
	}
}

func (m *Machine) enterSettling() {
	m.subscribed = true
	m.setMode(types.ModeSettling)
}

func (m *Machine) setMode(mode types.InteractionMode) {
	if m.state.Mode == mode {
		return
	}
	m.logger.Debug("モード遷移", log.String("from", m.state.Mode.String()), log.String("to", mode.String()))
	m.state.Mode = mode
}
