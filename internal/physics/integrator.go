package physics

import (
	"math"
	"time"

	"github.com/char5742/floatball/internal/types"
)

// Params は積分に使う調整値
type Params struct {
	Tick            time.Duration
	Friction        float64
	SettleThreshold float64
	SettleDamping   float64
}

// Integrator は固定ティックで速度と位置を進める
type Integrator struct {
	params   Params
	dt       float64
	resolver *Resolver
}

// NewIntegrator は新しいIntegratorを作成する
func NewIntegrator(params Params, resolver *Resolver) *Integrator {
	in := &Integrator{resolver: resolver}
	in.Configure(params)
	return in
}

// Configure はパラメーターを差し替える
func (in *Integrator) Configure(params Params) {
	in.params = params
	in.dt = params.Tick.Seconds()
}

// Step は半陰的オイラー法で1ティック進める
// 結果が有限でない場合は状態を変えずに返す
func (in *Integrator) Step(position, velocity, gravity types.Vector2) (types.Vector2, types.Vector2, Edges) {
	v := velocity.Add(gravity.Scale(in.dt))
	v = v.Scale(in.params.Friction)

	candidate := position.Add(v.Scale(in.dt))
	pos, v, edges := in.resolver.Resolve(candidate, v)

	// 静止付近での微小な振動を抑える。完全には止めない
	if math.Abs(v.X) < in.params.SettleThreshold && math.Abs(v.Y) < in.params.SettleThreshold {
		v = v.Scale(in.params.SettleDamping)
	}

	if !pos.IsFinite() || !v.IsFinite() {
		return position, velocity, 0
	}
	return pos, v, edges
}
