package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/char5742/floatball/internal/types"
)

func TestGravityFilterDirect(t *testing.T) {
	gf := NewGravityFilter(600, 0.8, 1, types.Vector2{Y: 800})

	g, ok := gf.Filter(types.SensorGravity, 0.5, 1.0)
	assert.True(t, ok)
	assert.Equal(t, types.Vector2{X: -300, Y: 600}, g)

	// 直接の重力センサーは平滑化しない
	g, _ = gf.Filter(types.SensorGravity, 0, 0.5)
	assert.Equal(t, types.Vector2{X: 0, Y: 300}, g)
}

func TestGravityFilterAccelerometerLowPass(t *testing.T) {
	gf := NewGravityFilter(600, 0.8, 1, types.Vector2{Y: 800})

	// ウォームアップ中はそのまま通す
	g, ok := gf.Filter(types.SensorAccelerometer, 0, 1)
	assert.True(t, ok)
	assert.Equal(t, types.Vector2{X: 0, Y: 600}, g)

	g, _ = gf.Filter(types.SensorAccelerometer, -1, 0)
	assert.InDelta(t, 0.2*600, g.X, 1e-9)
	assert.InDelta(t, 0.8*600, g.Y, 1e-9)
}

func TestGravityFilterKindChangeResets(t *testing.T) {
	gf := NewGravityFilter(600, 0.8, 1, types.Vector2{})

	gf.Filter(types.SensorAccelerometer, 0, 1)
	gf.Filter(types.SensorAccelerometer, 0, 1)
	gf.Filter(types.SensorGravity, 1, 0)
	assert.Equal(t, types.SensorGravity, gf.Kind())

	// 種類が戻ったらウォームアップからやり直す
	g, _ := gf.Filter(types.SensorAccelerometer, 0, 0.5)
	assert.Equal(t, types.Vector2{X: 0, Y: 300}, g)
}

func TestGravityFilterRejectsInvalid(t *testing.T) {
	gf := NewGravityFilter(600, 0.8, 1, types.Vector2{Y: 800})
	gf.Filter(types.SensorGravity, 0, 1)

	for _, tc := range []struct {
		name string
		kind types.SensorKind
		x, y float64
	}{
		{"nan", types.SensorGravity, math.NaN(), 0},
		{"inf", types.SensorAccelerometer, 0, math.Inf(-1)},
		{"unknown kind", types.SensorNone, 1, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g, ok := gf.Filter(tc.kind, tc.x, tc.y)
			assert.False(t, ok)
			assert.Equal(t, types.Vector2{X: 0, Y: 600}, g)
			assert.Equal(t, types.SensorGravity, gf.Kind())
		})
	}
}

func TestGravityFilterNoWarmUpBlendsWithPrevious(t *testing.T) {
	gf := NewGravityFilter(600, 0.8, 0, types.Vector2{Y: 800})
	g, _ := gf.Filter(types.SensorAccelerometer, 0, 0)
	assert.InDelta(t, 640, g.Y, 1e-9)
}
