package consts

import "time"

// 物理シミュレーションの既定値
const (
	GravityStrength   = 600.0 // センサー値に掛ける重力の強さ (units/s²)
	InitialGravityX   = 0.0   // 最初のセンサー値が届くまでの重力
	InitialGravityY   = 800.0
	Friction          = 0.98 // 1ティックあたりの摩擦係数
	BounceDamping     = 0.6  // 衝突後に残る速度の割合
	FloorFriction     = 0.8  // 下端で跳ねたときの水平速度の減衰
	SettleThreshold   = 20.0 // この速さ未満で追加減衰を行う
	SettleDamping     = 0.9
	ThrowCap          = 1500.0 // 投げ速度の上限 (units/s)
	SensorSmoothing   = 0.8    // 加速度センサー用ローパスフィルターの係数
	SensorWarmUp      = 1      // フィルターを通さない最初のサンプル数
	ImpulseRange      = 200.0  // 長押しで加える速度の範囲 (±)
	FallbackBodySize  = 200.0  // 物体サイズ未計測時の既定値
	DefaultPortNumber = 8080
)

// 時間に関する既定値
const (
	TickInterval     = 16 * time.Millisecond
	IdleGrace        = 100 * time.Millisecond
	BaselineInterval = 50 * time.Millisecond
)

// セッション入力キューの大きさ
const (
	InboxSize    = 64
	SinkBuffer   = 8
	ClientBuffer = 16
)

// 端末サイズからコンテナを求めるときの1文字の大きさ
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)
