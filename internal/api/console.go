package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/char5742/floatball/internal/engine"
	"github.com/char5742/floatball/internal/log"
	"github.com/char5742/floatball/internal/types"
)

// Console は標準入力の1行1コマンドをセッションへの入力に変換する
//
//	sensor gravity|accel x y
//	begin x y [timestampMillis]
//	move dx dy [timestampMillis]
//	end [timestampMillis]
//	longpress
//	reset ix iy
//	bounds cw ch [bw bh]
//	state
//	close
type Console struct {
	session *engine.Session
	out     io.Writer
	logger  log.Log
}

// NewConsole は新しい Console を作成する
// out への書き込みは state の出力と位置の出力で共有するため排他する
func NewConsole(session *engine.Session, out io.Writer, logger log.Log) *Console {
	return &Console{session: session, out: &lockedWriter{w: out}, logger: logger}
}

// PrintPositions は ch から受け取った位置を Console の出力先へ書き出す
func (c *Console) PrintPositions(ctx context.Context, ch <-chan types.Point) {
	PrintPositions(ctx, ch, c.out)
}

// lockedWriter は1回の Write 単位で書き込みを直列化する
type lockedWriter struct {
	mutex sync.Mutex
	w     io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mutex.Lock()
	defer lw.mutex.Unlock()
	return lw.w.Write(p)
}

// Run は入力が終わるか close を受け取るまでコマンドを処理する
// 不正な行は警告を出して読み飛ばす
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		quit, err := c.Exec(ctx, scanner.Text())
		if err != nil {
			c.logger.Warn("コマンドを処理できませんでした", log.String("line", scanner.Text()), log.Err(err))
			continue
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// Exec は1行を実行する。close のとき quit=true を返す
func (c *Console) Exec(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "sensor":
		if len(args) != 3 {
			return false, fmt.Errorf("使い方: sensor <gravity|accel> x y")
		}
		kind, ok := types.ParseSensorKind(args[0])
		if !ok {
			return false, fmt.Errorf("不明なセンサー種別です: %s", args[0])
		}
		v, err := parseFloats(args[1:])
		if err != nil {
			return false, err
		}
		return false, c.session.Sensor(kind, v[0], v[1])

	case "begin":
		if len(args) < 2 || len(args) > 3 {
			return false, fmt.Errorf("使い方: begin x y [timestamp]")
		}
		v, err := parseFloats(args[:2])
		if err != nil {
			return false, err
		}
		ts, err := parseTimestamp(args[2:])
		if err != nil {
			return false, err
		}
		return false, c.session.BeginDrag(v[0], v[1], ts)

	case "move":
		if len(args) < 2 || len(args) > 3 {
			return false, fmt.Errorf("使い方: move dx dy [timestamp]")
		}
		v, err := parseFloats(args[:2])
		if err != nil {
			return false, err
		}
		ts, err := parseTimestamp(args[2:])
		if err != nil {
			return false, err
		}
		return false, c.session.MoveDrag(v[0], v[1], ts)

	case "end":
		ts, err := parseTimestamp(args)
		if err != nil {
			return false, err
		}
		return false, c.session.EndDrag(ts)

	case "longpress", "long":
		return false, c.session.LongPress()

	case "reset":
		v, err := parseFloats(args)
		if err != nil {
			return false, err
		}
		switch len(v) {
		case 0:
			return false, c.session.ResetPhysics(0, 0)
		case 2:
			return false, c.session.ResetPhysics(v[0], v[1])
		}
		return false, fmt.Errorf("使い方: reset [ix iy]")

	case "bounds":
		v, err := parseFloats(args)
		if err != nil || (len(v) != 2 && len(v) != 4) {
			return false, fmt.Errorf("使い方: bounds cw ch [bw bh]")
		}
		body := types.BodySize{}
		if len(v) == 4 {
			body = types.BodySize{Width: v[2], Height: v[3]}
		}
		return false, c.session.Resize(types.Bounds{Width: v[0], Height: v[1]}, body)

	case "state":
		snap, err := c.session.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		// Encode は1行を1回の Write で書き出す
		return false, json.NewEncoder(c.out).Encode(snap)

	case "close", "quit", "exit":
		return true, nil
	}

	return false, fmt.Errorf("不明なコマンドです: %s", cmd)
}

// PrintPositions は ch から受け取った位置を1行ずつ書き出す
func PrintPositions(ctx context.Context, ch <-chan types.Point, w io.Writer) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-ch:
			fmt.Fprintf(w, "%d %d\n", p.X, p.Y)
		}
	}
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("数値ではありません: %s", a)
		}
		out[i] = f
	}
	return out, nil
}

func parseTimestamp(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	ts, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("時刻が不正です: %s", args[0])
	}
	return ts, nil
}
