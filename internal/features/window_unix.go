//go:build linux || darwin

package features

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/char5742/floatball/internal/types"
)

// TerminalBounds は端末の大きさをコンテナサイズとして取得する
// ピクセル数が取れない端末では文字数にセルの大きさを掛けて求める
func TerminalBounds(f *os.File, cellWidth, cellHeight float64) (types.Bounds, error) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return types.Bounds{}, fmt.Errorf("端末サイズの取得に失敗しました: %w", err)
	}
	if ws.Xpixel > 0 && ws.Ypixel > 0 {
		return types.Bounds{Width: float64(ws.Xpixel), Height: float64(ws.Ypixel)}, nil
	}
	if ws.Col == 0 || ws.Row == 0 {
		return types.Bounds{}, fmt.Errorf("端末サイズが0です")
	}
	return types.Bounds{Width: float64(ws.Col) * cellWidth, Height: float64(ws.Row) * cellHeight}, nil
}
