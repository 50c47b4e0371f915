package event

import (
	"github.com/char5742/floatball/internal/config"
	"github.com/char5742/floatball/internal/types"
)

// Kind はセッションへの入力の種類
type Kind int

const (
	Sensor       Kind = iota // センサー値
	DragBegin                // ドラッグ開始
	DragMove                 // ドラッグ移動
	DragEnd                  // ドラッグ終了
	LongPress                // 長押し（ランダムな速度を加える）
	ResetPhysics             // 速度を指定値にして物理を有効化
	Resize                   // コンテナ・物体サイズの変更
	Configure                // 物理パラメーターの差し替え
	Snapshot                 // 状態の問い合わせ
)

func (k Kind) String() string {
	switch k {
	case Sensor:
		return "sensor"
	case DragBegin:
		return "drag_begin"
	case DragMove:
		return "drag_move"
	case DragEnd:
		return "drag_end"
	case LongPress:
		return "long_press"
	case ResetPhysics:
		return "reset_physics"
	case Resize:
		return "resize"
	case Configure:
		return "configure"
	case Snapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// Event はセッションの受信キューに積まれる1件の入力
// 使うフィールドは Kind によって異なる
type Event struct {
	Kind            Kind
	Sensor          types.SensorKind
	X               float64 // センサー値・ポインター位置・移動量・速度
	Y               float64
	TimestampMillis int64 // ホストの時刻。0なら未指定
	ReceivedMillis  int64 // セッションの時計での受信時刻
	Container       types.Bounds
	Body            types.BodySize
	Physics         *config.PhysicsConfig
	Reply           chan<- types.Snapshot
}
