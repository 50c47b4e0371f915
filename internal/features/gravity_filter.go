package features

import "github.com/char5742/floatball/internal/types"

// GravityFilter はセンサーの傾き値を2次元の重力ベクトルに変換します
type GravityFilter struct {
	strength     float64 // センサー値に掛ける重力の強さ
	smoothing    float64 // 0.0-1.0の範囲。1.0に近いほど滑らかになりますが、遅延が大きくなります
	warmUpCount  int
	currentCount int
	kind         types.SensorKind
	gravity      types.Vector2
}

// 新しい重力フィルターを作成します
func NewGravityFilter(strength, smoothing float64, warmUpCount int, initial types.Vector2) *GravityFilter {
	return &GravityFilter{
		strength:    strength,
		smoothing:   smoothing,
		warmUpCount: warmUpCount,
		gravity:     initial,
	}
}

// Filter はセンサー値を取り込み、現在の重力ベクトルを返します
// 不正な値は破棄して直前の重力を維持し、accepted=false を返します
func (gf *GravityFilter) Filter(kind types.SensorKind, x, y float64) (gravity types.Vector2, accepted bool) {
	instant := types.Vector2{X: -x * gf.strength, Y: y * gf.strength}
	if !instant.IsFinite() || (kind != types.SensorGravity && kind != types.SensorAccelerometer) {
		return gf.gravity, false
	}

	// センサーの種類が変わったらフィルターをやり直す
	if kind != gf.kind {
		gf.Reset()
		gf.kind = kind
	}

	switch kind {
	case types.SensorGravity:
		gf.gravity = instant
	case types.SensorAccelerometer:
		if gf.currentCount < gf.warmUpCount {
			gf.currentCount++
			gf.gravity = instant
			break
		}
		// ノイズの多い加速度センサーにはローパスフィルターを適用
		f := gf.smoothing
		gf.gravity = gf.gravity.Scale(f).Add(instant.Scale(1.0 - f))
	}

	return gf.gravity, true
}

// Gravity は現在の重力ベクトルを返します
func (gf *GravityFilter) Gravity() types.Vector2 {
	return gf.gravity
}

// Kind は直前に受け付けたセンサーの種類を返します
func (gf *GravityFilter) Kind() types.SensorKind {
	return gf.kind
}

// Configure はパラメーターを差し替えます。フィルターの状態は維持します
func (gf *GravityFilter) Configure(strength, smoothing float64, warmUpCount int) {
	gf.strength = strength
	gf.smoothing = smoothing
	gf.warmUpCount = warmUpCount
}

// フィルターの状態をリセットします。重力ベクトルそのものは保持します
func (gf *GravityFilter) Reset() {
	gf.currentCount = 0
	gf.kind = types.SensorNone
}
