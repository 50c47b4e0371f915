package types

// Bounds はコンテナ（画面）の大きさ
type Bounds struct {
	Width  float64 `json:"width" toml:"width" yaml:"width"`
	Height float64 `json:"height" toml:"height" yaml:"height"`
}

// BodySize は移動する物体の大きさ
type BodySize struct {
	Width  float64 `json:"width" toml:"width" yaml:"width"`
	Height float64 `json:"height" toml:"height" yaml:"height"`
}

// Limit は物体の左上座標が取りうる最大値を返す
// コンテナが未設定（0以下）または有限でない軸は ok=false となり、クランプを行わない
func (b Bounds) Limit(body BodySize) (maxX float64, okX bool, maxY float64, okY bool) {
	maxX, maxY = b.Width-body.Width, b.Height-body.Height
	return maxX, validExtent(b.Width) && isFinite(maxX), maxY, validExtent(b.Height) && isFinite(maxY)
}

// IsFinite は両辺が NaN/Inf でないかを返す
func (b Bounds) IsFinite() bool {
	return isFinite(b.Width) && isFinite(b.Height)
}

// IsFinite は両辺が NaN/Inf でないかを返す
func (b BodySize) IsFinite() bool {
	return isFinite(b.Width) && isFinite(b.Height)
}

// validExtent は大きさとして使える正の有限値かを返す
func validExtent(f float64) bool {
	return f > 0 && isFinite(f)
}

// Center はコンテナ中央に物体を置いたときの左上座標を返す
func (b Bounds) Center(body BodySize) Vector2 {
	return Vector2{X: (b.Width - body.Width) / 2, Y: (b.Height - body.Height) / 2}
}

// DragSample はドラッグ中に記録する基準サンプル
type DragSample struct {
	X               float64
	Y               float64
	TimestampMillis int64
}
