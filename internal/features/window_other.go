//go:build !linux && !darwin

package features

import (
	"errors"
	"os"

	"github.com/char5742/floatball/internal/types"
)

// TerminalBounds はこのプラットフォームでは利用できない
func TerminalBounds(f *os.File, cellWidth, cellHeight float64) (types.Bounds, error) {
	return types.Bounds{}, errors.New("端末サイズの取得はサポートされていません")
}
