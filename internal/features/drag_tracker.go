package features

import (
	"github.com/char5742/floatball/internal/types"
)

// Clamper はドラッグ中の位置をコンテナ内に収める
type Clamper interface {
	Clamp(position types.Vector2) types.Vector2
}

// DragTracker はポインターの移動量からドラッグ位置と投げ速度を求めます
type DragTracker struct {
	baselineMillis int64   // 基準サンプルを更新する最小間隔
	throwCap       float64 // 投げ速度の各軸の上限
	position       types.Vector2
	last           types.DragSample
	active         bool
}

// 新しいドラッグトラッカーを作成します
func NewDragTracker(baselineMillis int64, throwCap float64) *DragTracker {
	return &DragTracker{
		baselineMillis: baselineMillis,
		throwCap:       throwCap,
	}
}

// Begin はドラッグ開始位置と時刻を記録します
func (dt *DragTracker) Begin(position types.Vector2, nowMillis int64) {
	dt.position = position
	dt.last = types.DragSample{X: position.X, Y: position.Y, TimestampMillis: nowMillis}
	dt.active = true
}

// Update は移動量を適用した位置を返します
// 連続したフレーム間の細かい移動で速度が跳ねないよう、基準サンプルは一定間隔でのみ更新します
func (dt *DragTracker) Update(delta types.Vector2, nowMillis int64, clamper Clamper) types.Vector2 {
	if !dt.active || !delta.IsFinite() {
		return dt.position
	}

	// 未計測の軸はクランプされないため、和があふれることがある
	next := clamper.Clamp(dt.position.Add(delta))
	if !next.IsFinite() {
		return dt.position
	}
	dt.position = next

	if nowMillis-dt.last.TimestampMillis >= dt.baselineMillis {
		dt.last = types.DragSample{X: dt.position.X, Y: dt.position.Y, TimestampMillis: nowMillis}
	}
	return dt.position
}

// End は最後の基準サンプルからの移動で投げ速度を求めます
// 経過時間が0以下なら速度は0のままです
func (dt *DragTracker) End(nowMillis int64) types.Vector2 {
	if !dt.active {
		return types.Vector2{}
	}
	dt.active = false

	elapsed := float64(nowMillis-dt.last.TimestampMillis) / 1000.0
	if elapsed <= 0 {
		return types.Vector2{}
	}

	v := types.Vector2{
		X: (dt.position.X - dt.last.X) / elapsed,
		Y: (dt.position.Y - dt.last.Y) / elapsed,
	}
	if !v.IsFinite() {
		return types.Vector2{}
	}
	return types.Vector2{X: clamp(v.X, -dt.throwCap, dt.throwCap), Y: clamp(v.Y, -dt.throwCap, dt.throwCap)}
}

// Position はドラッグ中の位置を返します
func (dt *DragTracker) Position() types.Vector2 {
	return dt.position
}

// Active はドラッグ中かどうかを返します
func (dt *DragTracker) Active() bool {
	return dt.active
}

// Configure はパラメーターを差し替えます
func (dt *DragTracker) Configure(baselineMillis int64, throwCap float64) {
	dt.baselineMillis = baselineMillis
	dt.throwCap = throwCap
}

// clamp は値を最小値と最大値の間に制限する
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
