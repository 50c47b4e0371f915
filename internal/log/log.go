package log

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log はアプリケーション内で使うロガーのインターフェース
type Log interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Log
	Sync() error
}

// Field は構造化ログのキーと値
type Field = zap.Field

func String(key, val string) Field                 { return zap.String(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Int64(key string, val int64) Field            { return zap.Int64(key, val) }
func Float64(key string, val float64) Field        { return zap.Float64(key, val) }
func Bool(key string, val bool) Field              { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Err(err error) Field                          { return zap.Error(err) }
func Any(key string, val any) Field                { return zap.Any(key, val) }

var _ Log = (*Logger)(nil)

// Logger は zap をラップした Log の実装
type Logger struct {
	zapLogger *zap.Logger
}

// New は指定レベルで JSON 出力のロガーを作成する
func New(level string) (*Logger, error) {
	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(ParseLevel(level)),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{zapLogger: zapLogger}, nil
}

// Nop は何も出力しないロガーを返す
func Nop() *Logger {
	return &Logger{zapLogger: zap.NewNop()}
}

// FromZap は既存の zap.Logger を包む
func FromZap(l *zap.Logger) *Logger {
	return &Logger{zapLogger: l}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.zapLogger.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.zapLogger.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.zapLogger.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.zapLogger.Error(msg, fields...) }

func (l *Logger) With(fields ...Field) Log {
	return &Logger{zapLogger: l.zapLogger.With(fields...)}
}

func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

// ParseLevel は文字列のレベルを zap のレベルに変換する
// 不明な値は info とする
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
