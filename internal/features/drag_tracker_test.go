package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char5742/floatball/internal/types"
)

type boxClamper struct{ maxX, maxY float64 }

func (b boxClamper) Clamp(p types.Vector2) types.Vector2 {
	p.X = clamp(p.X, 0, b.maxX)
	p.Y = clamp(p.Y, 0, b.maxY)
	return p
}

var wide = boxClamper{maxX: 800, maxY: 1800}

func TestDragTrackerThrowIsCapped(t *testing.T) {
	dt := NewDragTracker(50, 1500)
	dt.Begin(types.Vector2{X: 100, Y: 100}, 0)

	// 200ms で 400 移動（2000 units/s）
	for ts := int64(20); ts <= 200; ts += 20 {
		dt.Update(types.Vector2{Y: 40}, ts, wide)
	}
	require.Equal(t, types.Vector2{X: 100, Y: 500}, dt.Position())

	v := dt.End(200)
	assert.InDelta(t, 0, v.X, 1e-9)
	assert.Equal(t, 1500.0, v.Y)
	assert.False(t, dt.Active())
}

func TestDragTrackerUncappedVelocity(t *testing.T) {
	dt := NewDragTracker(50, 1500)
	dt.Begin(types.Vector2{X: 100, Y: 100}, 1000)
	dt.Update(types.Vector2{X: -10, Y: 20}, 1010, wide)

	// 基準サンプルは開始時のまま
	v := dt.End(1100)
	assert.InDelta(t, -100, v.X, 1e-9)
	assert.InDelta(t, 200, v.Y, 1e-9)
}

func TestDragTrackerBaselineThrottle(t *testing.T) {
	dt := NewDragTracker(50, 1e9)
	dt.Begin(types.Vector2{}, 0)

	dt.Update(types.Vector2{X: 10}, 30, wide)  // 30ms: 更新しない
	dt.Update(types.Vector2{X: 10}, 50, wide)  // 50ms: 基準を (20,0)@50 に更新
	dt.Update(types.Vector2{X: 30}, 90, wide)  // 40ms: 更新しない
	v := dt.End(100)

	assert.InDelta(t, 30/0.05, v.X, 1e-9)
}

func TestDragTrackerZeroElapsed(t *testing.T) {
	dt := NewDragTracker(50, 1500)
	dt.Begin(types.Vector2{X: 10, Y: 10}, 500)
	dt.Update(types.Vector2{X: 300}, 500, wide)

	assert.Equal(t, types.Vector2{}, dt.End(500))

	dt.Begin(types.Vector2{}, 500)
	assert.Equal(t, types.Vector2{}, dt.End(400))
}

func TestDragTrackerClampsMidDrag(t *testing.T) {
	dt := NewDragTracker(50, 1500)
	dt.Begin(types.Vector2{X: 700, Y: 10}, 0)

	p := dt.Update(types.Vector2{X: 500, Y: -50}, 10, wide)
	assert.Equal(t, types.Vector2{X: 800, Y: 0}, p)
}

func TestDragTrackerIgnoresWhenInactive(t *testing.T) {
	dt := NewDragTracker(50, 1500)
	p := dt.Update(types.Vector2{X: 5}, 10, wide)
	assert.Equal(t, types.Vector2{}, p)
	assert.Equal(t, types.Vector2{}, dt.End(20))
}

type passThrough struct{}

func (passThrough) Clamp(p types.Vector2) types.Vector2 { return p }

func TestDragTrackerOverflowKeepsPosition(t *testing.T) {
	dt := NewDragTracker(50, 1500)
	dt.Begin(types.Vector2{}, 0)

	// コンテナ未計測ではクランプされず、2回目で和が +Inf になる
	first := dt.Update(types.Vector2{X: math.MaxFloat64}, 10, passThrough{})
	require.Equal(t, math.MaxFloat64, first.X)

	second := dt.Update(types.Vector2{X: math.MaxFloat64}, 20, passThrough{})
	assert.Equal(t, first, second)
	assert.True(t, dt.Position().IsFinite())

	// 次の正常な入力で動き続ける
	third := dt.Update(types.Vector2{X: -math.MaxFloat64, Y: 5}, 30, passThrough{})
	assert.Equal(t, types.Vector2{X: 0, Y: 5}, third)
	assert.True(t, dt.End(100).IsFinite())
}
