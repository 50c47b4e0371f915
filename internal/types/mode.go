package types

// InteractionMode は位置・速度の書き込み権を持つモード
type InteractionMode int

const (
	ModeIdle InteractionMode = iota
	ModeDragging
	ModeSettling
)

func (m InteractionMode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDragging:
		return "dragging"
	case ModeSettling:
		return "settling"
	default:
		return "unknown"
	}
}

// MarshalText はJSON出力用
func (m InteractionMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// SensorKind はセンサーの種類
type SensorKind int

const (
	SensorNone SensorKind = iota
	SensorGravity
	SensorAccelerometer
)

func (k SensorKind) String() string {
	switch k {
	case SensorGravity:
		return "gravity"
	case SensorAccelerometer:
		return "accelerometer"
	default:
		return "none"
	}
}

// MarshalText はJSON出力用
func (k SensorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseSensorKind は文字列からセンサー種別を得る
func ParseSensorKind(s string) (SensorKind, bool) {
	switch s {
	case "gravity", "grav", "g":
		return SensorGravity, true
	case "accelerometer", "accel", "a":
		return SensorAccelerometer, true
	default:
		return SensorNone, false
	}
}

// Snapshot はある時点のシミュレーション状態
type Snapshot struct {
	Mode     InteractionMode `json:"mode"`
	Position Vector2         `json:"position"`
	Velocity Vector2         `json:"velocity"`
	Gravity  Vector2         `json:"gravity"`
	Bounds   Bounds          `json:"bounds"`
	Body     BodySize        `json:"body"`
	Sensor   SensorKind      `json:"sensor"`
	Closed   bool            `json:"closed"`
}
