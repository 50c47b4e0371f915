package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/char5742/floatball/internal/config"
	"github.com/char5742/floatball/internal/consts"
	"github.com/char5742/floatball/internal/event"
	"github.com/char5742/floatball/internal/log"
	"github.com/char5742/floatball/internal/types"
)

var (
	// ErrSessionClosed は終了済みのセッションに入力したときに返す
	ErrSessionClosed = errors.New("session closed")
	// ErrInboxFull は受信キューが満杯でセンサー値を捨てたときに返す
	ErrInboxFull = errors.New("session inbox full")
)

// Session は Machine を1つのゴルーチンで所有し、すべての入力を到着順に処理する
// ティック、センサー値、ジェスチャーはすべて受信キューを経由するため、状態を同時に書き換えることはない
type Session struct {
	id      string
	machine *Machine
	inbox   chan event.Event
	sink    Sink
	clock   func() time.Time
	tick    time.Duration
	logger  log.Log

	// ループのゴルーチンだけが触る
	hostOffset int64
	hostClock  bool

	mutex    sync.Mutex
	started  bool
	closing  atomic.Bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// Option は Session の生成オプション
type Option func(*sessionOptions)

type sessionOptions struct {
	clock    func() time.Time
	logger   log.Log
	inbox    int
	machine  []MachineOption
	position *types.Vector2
}

// WithClock は時計を差し替える
func WithClock(clock func() time.Time) Option {
	return func(o *sessionOptions) { o.clock = clock }
}

// WithLogger はロガーを設定する
func WithLogger(logger log.Log) Option {
	return func(o *sessionOptions) { o.logger = logger }
}

// WithInboxSize は受信キューの大きさを設定する
func WithInboxSize(n int) Option {
	return func(o *sessionOptions) { o.inbox = n }
}

// WithMachineOptions は Machine の生成オプションを渡す
func WithMachineOptions(opts ...MachineOption) Option {
	return func(o *sessionOptions) { o.machine = append(o.machine, opts...) }
}

// WithPosition は初期位置を指定する。省略時はコンテナ中央
func WithPosition(p types.Vector2) Option {
	return func(o *sessionOptions) { o.position = &p }
}

// NewSession は新しいセッションを作成する。Start を呼ぶまでティックは進まない
func NewSession(cfg *config.Config, sink Sink, opts ...Option) *Session {
	o := sessionOptions{
		clock:  time.Now,
		logger: log.Nop(),
		inbox:  consts.InboxSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if sink == nil {
		sink = nopSink{}
	}

	tick := cfg.Physics.Tick
	if tick <= 0 {
		tick = consts.TickInterval
	}

	id := uuid.NewString()
	logger := o.logger.With(log.String("session", id))
	machineOpts := append([]MachineOption{WithMachineLogger(logger)}, o.machine...)

	s := &Session{
		id:       id,
		inbox:    make(chan event.Event, o.inbox),
		sink:     sink,
		clock:    o.clock,
		tick:     tick,
		logger:   logger,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	s.machine = NewMachine(cfg.Physics, cfg.Session, s.nowMillis(), machineOpts...)
	if o.position != nil {
		s.machine.Place(*o.position)
	}
	return s
}

// ID はセッションの識別子を返す
func (s *Session) ID() string {
	return s.id
}

// Start はシミュレーションループを開始する
func (s *Session) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closing.Load() {
		return ErrSessionClosed
	}
	if s.started {
		return nil
	}
	s.started = true
	s.logger.Info("セッションを開始しました", log.Duration("tick", s.tick))
	go s.run()
	return nil
}

// Close はループを止め、センサー購読を解除して状態を破棄する
// 呼び出し以降にティックが処理されることはない
func (s *Session) Close() error {
	s.mutex.Lock()
	if s.closing.Swap(true) {
		s.mutex.Unlock()
		<-s.doneChan
		return nil
	}
	close(s.stopChan)
	started := s.started
	s.mutex.Unlock()

	if !started {
		s.machine.Close()
		close(s.doneChan)
	}
	<-s.doneChan
	return nil
}

// Done はループ終了時に閉じられるチャネルを返す
func (s *Session) Done() <-chan struct{} {
	return s.doneChan
}

// Sensor はセンサー値を送る。ブロックせず、キューが満杯なら捨てる
func (s *Session) Sensor(kind types.SensorKind, x, y float64) error {
	return s.trySend(event.Event{Kind: event.Sensor, Sensor: kind, X: x, Y: y})
}

// BeginDrag はドラッグ開始を送る。x, y はポインター位置で、記録のみに使う
// timestampMillis はホストの時計の時刻で、0なら受信時刻を使う
func (s *Session) BeginDrag(x, y float64, timestampMillis int64) error {
	return s.send(s.stamp(event.Event{Kind: event.DragBegin, X: x, Y: y, TimestampMillis: timestampMillis}))
}

// MoveDrag はドラッグ移動を送る。timestampMillis が0なら受信時刻を使う
func (s *Session) MoveDrag(dx, dy float64, timestampMillis int64) error {
	return s.send(s.stamp(event.Event{Kind: event.DragMove, X: dx, Y: dy, TimestampMillis: timestampMillis}))
}

// EndDrag はドラッグ終了を送る。timestampMillis が0なら受信時刻を使う
func (s *Session) EndDrag(timestampMillis int64) error {
	return s.send(s.stamp(event.Event{Kind: event.DragEnd, TimestampMillis: timestampMillis}))
}

// LongPress は長押しを送る
func (s *Session) LongPress() error {
	return s.send(event.Event{Kind: event.LongPress})
}

// ResetPhysics は速度の再設定を送る
func (s *Session) ResetPhysics(impulseX, impulseY float64) error {
	return s.send(event.Event{Kind: event.ResetPhysics, X: impulseX, Y: impulseY})
}

// Resize はコンテナと物体の大きさを送る
func (s *Session) Resize(container types.Bounds, body types.BodySize) error {
	return s.send(event.Event{Kind: event.Resize, Container: container, Body: body})
}

// UpdateConfig は物理パラメーターの差し替えを送る
func (s *Session) UpdateConfig(cfg config.PhysicsConfig) error {
	return s.send(event.Event{Kind: event.Configure, Physics: &cfg})
}

// Snapshot は現在の状態を問い合わせる
func (s *Session) Snapshot(ctx context.Context) (types.Snapshot, error) {
	reply := make(chan types.Snapshot, 1)
	if err := s.send(event.Event{Kind: event.Snapshot, Reply: reply}); err != nil {
		return types.Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-s.doneChan:
		return types.Snapshot{}, ErrSessionClosed
	case <-ctx.Done():
		return types.Snapshot{}, ctx.Err()
	}
}

func (s *Session) send(ev event.Event) error {
	if s.closing.Load() {
		return ErrSessionClosed
	}
	select {
	case s.inbox <- ev:
		return nil
	case <-s.stopChan:
		return ErrSessionClosed
	}
}

func (s *Session) trySend(ev event.Event) error {
	if s.closing.Load() {
		return ErrSessionClosed
	}
	select {
	case s.inbox <- ev:
		return nil
	case <-s.stopChan:
		return ErrSessionClosed
	default:
		return ErrInboxFull
	}
}

func (s *Session) nowMillis() int64 {
	return s.clock().UnixMilli()
}

func (s *Session) stamp(ev event.Event) event.Event {
	ev.ReceivedMillis = s.nowMillis()
	return ev
}

// dragTime はドラッグ入力の時刻をセッションの時計に揃える
// ホストの時計は起点が異なることがあるため、1回のドラッグで最初に届いた時刻との差を使う
func (s *Session) dragTime(ev event.Event) int64 {
	if ev.TimestampMillis == 0 {
		return ev.ReceivedMillis
	}
	if !s.hostClock {
		s.hostOffset = ev.ReceivedMillis - ev.TimestampMillis
		s.hostClock = true
	}
	return ev.TimestampMillis + s.hostOffset
}

// run はシミュレーションの時間軸。Dragging 中はティッカーを止める
func (s *Session) run() {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	ticking := true

	for {
		var tickC <-chan time.Time
		if ticking {
			tickC = ticker.C
		}

		select {
		case <-s.stopChan:
			s.teardown()
			return
		case ev := <-s.inbox:
			if s.closing.Load() {
				continue
			}
			s.handle(ev, ticker)
			ticking = s.syncTicker(ticker, ticking)
		case <-tickC:
			if s.closing.Load() {
				continue
			}
			if p, ok := s.machine.Tick(s.nowMillis()); ok {
				s.sink.Publish(p)
			}
		}
	}
}

func (s *Session) handle(ev event.Event, ticker *time.Ticker) {
	switch ev.Kind {
	case event.Sensor:
		if !s.machine.Sensor(ev.Sensor, ev.X, ev.Y) && s.machine.Mode() != types.ModeDragging {
			s.logger.Debug("センサー値を無視しました", log.String("kind", ev.Sensor.String()))
		}
	case event.DragBegin:
		s.hostClock = false
		s.machine.BeginDrag(s.dragTime(ev))
		s.logger.Debug("ドラッグ開始", log.Float64("x", ev.X), log.Float64("y", ev.Y))
	case event.DragMove:
		if p, ok := s.machine.MoveDrag(types.Vector2{X: ev.X, Y: ev.Y}, s.dragTime(ev)); ok {
			s.sink.Publish(p)
		}
	case event.DragEnd:
		v := s.machine.EndDrag(s.dragTime(ev))
		s.logger.Debug("ドラッグ終了", log.Float64("vx", v.X), log.Float64("vy", v.Y))
	case event.LongPress:
		s.machine.LongPress()
	case event.ResetPhysics:
		s.machine.ResetPhysics(types.Vector2{X: ev.X, Y: ev.Y})
	case event.Resize:
		s.machine.Resize(ev.Container, ev.Body)
	case event.Configure:
		if ev.Physics == nil {
			return
		}
		s.machine.Configure(*ev.Physics)
		if ev.Physics.Tick > 0 && ev.Physics.Tick != s.tick {
			s.tick = ev.Physics.Tick
			ticker.Reset(s.tick)
		}
		s.logger.Info("物理パラメーターを更新しました")
	case event.Snapshot:
		if ev.Reply != nil {
			ev.Reply <- s.machine.Snapshot()
		}
	default:
		s.logger.Warn("不明な入力", log.Int("kind", int(ev.Kind)))
	}
}

// syncTicker はモードに合わせてティッカーを止めたり再開したりする
func (s *Session) syncTicker(ticker *time.Ticker, ticking bool) bool {
	dragging := s.machine.Mode() == types.ModeDragging
	switch {
	case dragging && ticking:
		ticker.Stop()
		return false
	case !dragging && !ticking:
		ticker.Reset(s.tick)
		return true
	}
	return ticking
}

func (s *Session) teardown() {
	s.machine.Close()
	s.logger.Info("セッションを終了しました")
}
