package types

import "math"

// Vector2 は位置・速度・重力に使う2次元ベクトル
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add はベクトルの和を返す
func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub はベクトルの差を返す
func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale はスカラー倍したベクトルを返す
func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{X: v.X * s, Y: v.Y * s}
}

// IsFinite は両成分が NaN/Inf でないかを返す
func (v Vector2) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// Round は整数座標に丸める。NaN/Inf の成分は0になる
func (v Vector2) Round() Point {
	return Point{X: roundInt(v.X), Y: roundInt(v.Y)}
}

func roundInt(f float64) int {
	if !isFinite(f) {
		return 0
	}
	return int(math.Round(f))
}

// IsFinite は NaN/Inf でないかを返す
func IsFinite(f float64) bool {
	return isFinite(f)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Point はホストへ出力する整数座標
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}
