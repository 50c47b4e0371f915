package physics

import (
	"math"

	"github.com/char5742/floatball/internal/types"
)

// Edges は衝突した辺の集合
type Edges uint8

const (
	EdgeLeft Edges = 1 << iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

// Has は指定した辺に衝突したかを返す
func (e Edges) Has(edge Edges) bool {
	return e&edge != 0
}

// Resolver はコンテナの端との衝突を処理する
type Resolver struct {
	bounds        types.Bounds
	body          types.BodySize
	fallback      float64
	bounceDamping float64
	floorFriction float64
}

// NewResolver は新しいResolverを作成する
func NewResolver(bounceDamping, floorFriction, fallbackBody float64) *Resolver {
	return &Resolver{
		body:          types.BodySize{Width: fallbackBody, Height: fallbackBody},
		fallback:      fallbackBody,
		bounceDamping: bounceDamping,
		floorFriction: floorFriction,
	}
}

// SetBounds はコンテナサイズを更新する
// 0以下や有限でない軸は以前に取得した値を使い続ける
func (r *Resolver) SetBounds(b types.Bounds) {
	if validExtent(b.Width) {
		r.bounds.Width = b.Width
	}
	if validExtent(b.Height) {
		r.bounds.Height = b.Height
	}
}

// SetBody は物体サイズを更新する。未計測の軸は既定値になる
// 有限でない値は無視して以前の大きさを残す
func (r *Resolver) SetBody(b types.BodySize) {
	if !b.IsFinite() {
		return
	}
	r.body = types.BodySize{Width: r.fallback, Height: r.fallback}
	if b.Width > 0 {
		r.body.Width = b.Width
	}
	if b.Height > 0 {
		r.body.Height = b.Height
	}
}

func validExtent(f float64) bool {
	return f > 0 && types.IsFinite(f)
}

// Configure は反発係数と床摩擦を差し替える
func (r *Resolver) Configure(bounceDamping, floorFriction float64) {
	r.bounceDamping = bounceDamping
	r.floorFriction = floorFriction
}

func (r *Resolver) Bounds() types.Bounds { return r.bounds }

func (r *Resolver) Body() types.BodySize { return r.body }

// Resolve は候補位置を各軸独立にコンテナ内へ補正し、衝突した軸の速度を反射させる
// 下端で跳ねたときだけ水平速度も減衰させる
func (r *Resolver) Resolve(candidate, velocity types.Vector2) (types.Vector2, types.Vector2, Edges) {
	maxX, okX, maxY, okY := r.bounds.Limit(r.body)
	pos, vel := candidate, velocity
	var edges Edges

	if okX {
		switch {
		case candidate.X <= 0:
			pos.X = 0
			vel.X = math.Abs(velocity.X) * r.bounceDamping
			edges |= EdgeLeft
		case candidate.X >= maxX:
			pos.X = maxX
			vel.X = -math.Abs(velocity.X) * r.bounceDamping
			edges |= EdgeRight
		}
	}

	if okY {
		switch {
		case candidate.Y <= 0:
			pos.Y = 0
			vel.Y = math.Abs(velocity.Y) * r.bounceDamping
			edges |= EdgeTop
		case candidate.Y >= maxY:
			pos.Y = maxY
			vel.Y = -math.Abs(velocity.Y) * r.bounceDamping
			vel.X *= r.floorFriction
			edges |= EdgeBottom
		}
	}

	return pos, vel, edges
}

// Clamp は位置をコンテナ内に収める。ドラッグ中に使う
func (r *Resolver) Clamp(p types.Vector2) types.Vector2 {
	maxX, okX, maxY, okY := r.bounds.Limit(r.body)
	if okX {
		p.X = math.Max(0, math.Min(p.X, maxX))
	}
	if okY {
		p.Y = math.Max(0, math.Min(p.Y, maxY))
	}
	return p
}
