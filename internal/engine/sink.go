package engine

import "github.com/char5742/floatball/internal/types"

// Sink は毎ティックの位置を受け取る
// Publish はシミュレーションの時間軸上で呼ばれるため、ブロックしてはならない
type Sink interface {
	Publish(p types.Point)
}

// SinkFunc は関数を Sink として使うためのアダプター
type SinkFunc func(p types.Point)

func (f SinkFunc) Publish(p types.Point) { f(p) }

// MultiSink は複数の Sink へ順に配る
type MultiSink []Sink

func (ms MultiSink) Publish(p types.Point) {
	for _, s := range ms {
		s.Publish(p)
	}
}

type nopSink struct{}

func (nopSink) Publish(types.Point) {}

// ChannelSink はバッファ付きチャネルへ位置を送る
// 受け手が追いつかない場合は古い位置を捨てて最新を残す
type ChannelSink struct {
	ch chan types.Point
}

// NewChannelSink は新しい ChannelSink を作成する
func NewChannelSink(size int) *ChannelSink {
	if size < 1 {
		size = 1
	}
	return &ChannelSink{ch: make(chan types.Point, size)}
}

func (c *ChannelSink) Publish(p types.Point) {
	select {
	case c.ch <- p:
		return
	default:
	}
	// 古い位置を捨てる
	select {
	case <-c.ch:
	default:
	}
	select {
	case c.ch <- p:
	default:
	}
}

// C は受信用のチャネルを返す
func (c *ChannelSink) C() <-chan types.Point {
	return c.ch
}
