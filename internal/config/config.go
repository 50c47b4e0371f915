package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/char5742/floatball/internal/consts"
	"github.com/char5742/floatball/internal/types"
)

// ErrInvalidConfig は設定値が範囲外のときに返す
var ErrInvalidConfig = errors.New("invalid config")

// Config はアプリケーション全体の設定を表す構造体
type Config struct {
	Physics PhysicsConfig `toml:"physics" yaml:"physics"`
	Session SessionConfig `toml:"session" yaml:"session"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// PhysicsConfig は物理シミュレーションの調整値
type PhysicsConfig struct {
	GravityStrength  float64       `toml:"gravity_strength" yaml:"gravity_strength"`
	InitialGravityX  float64       `toml:"initial_gravity_x" yaml:"initial_gravity_x"`
	InitialGravityY  float64       `toml:"initial_gravity_y" yaml:"initial_gravity_y"`
	Friction         float64       `toml:"friction" yaml:"friction"`
	BounceDamping    float64       `toml:"bounce_damping" yaml:"bounce_damping"`
	FloorFriction    float64       `toml:"floor_friction" yaml:"floor_friction"`
	SettleThreshold  float64       `toml:"settle_threshold" yaml:"settle_threshold"`
	SettleDamping    float64       `toml:"settle_damping" yaml:"settle_damping"`
	ThrowCap         float64       `toml:"throw_cap" yaml:"throw_cap"`
	SensorSmoothing  float64       `toml:"sensor_smoothing" yaml:"sensor_smoothing"`
	SensorWarmUp     int           `toml:"sensor_warm_up" yaml:"sensor_warm_up"`
	ImpulseRange     float64       `toml:"impulse_range" yaml:"impulse_range"`
	Tick             time.Duration `toml:"tick" yaml:"tick"`
	IdleGrace        time.Duration `toml:"idle_grace" yaml:"idle_grace"`
	BaselineInterval time.Duration `toml:"baseline_interval" yaml:"baseline_interval"`
}

// SessionConfig はコンテナと物体の初期サイズ
// コンテナが0の場合はホスト側で取得した大きさを使う
type SessionConfig struct {
	Container types.Bounds   `toml:"container" yaml:"container"`
	Body      types.BodySize `toml:"body" yaml:"body"`
}

// ServerConfig はAPIサーバーの設定
type ServerConfig struct {
	Port        int  `toml:"port" yaml:"port"`
	OpenBrowser bool `toml:"open_browser" yaml:"open_browser"`
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() *Config {
	return &Config{
		Physics: DefaultPhysics(),
		Session: SessionConfig{
			Body: types.BodySize{Width: consts.FallbackBodySize, Height: consts.FallbackBodySize},
		},
		Server: ServerConfig{
			Port: consts.DefaultPortNumber,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPhysics は物理パラメーターの既定値を返す
func DefaultPhysics() PhysicsConfig {
	return PhysicsConfig{
		GravityStrength:  consts.GravityStrength,
		InitialGravityX:  consts.InitialGravityX,
		InitialGravityY:  consts.InitialGravityY,
		Friction:         consts.Friction,
		BounceDamping:    consts.BounceDamping,
		FloorFriction:    consts.FloorFriction,
		SettleThreshold:  consts.SettleThreshold,
		SettleDamping:    consts.SettleDamping,
		ThrowCap:         consts.ThrowCap,
		SensorSmoothing:  consts.SensorSmoothing,
		SensorWarmUp:     consts.SensorWarmUp,
		ImpulseRange:     consts.ImpulseRange,
		Tick:             consts.TickInterval,
		IdleGrace:        consts.IdleGrace,
		BaselineInterval: consts.BaselineInterval,
	}
}

// Validate は値の範囲を検査する
func (c *Config) Validate() error {
	p := c.Physics
	switch {
	case p.Tick <= 0:
		return fmt.Errorf("%w: tick must be positive", ErrInvalidConfig)
	case p.IdleGrace < 0 || p.BaselineInterval < 0:
		return fmt.Errorf("%w: negative interval", ErrInvalidConfig)
	case p.Friction <= 0 || p.Friction > 1:
		return fmt.Errorf("%w: friction %v out of (0,1]", ErrInvalidConfig, p.Friction)
	case p.BounceDamping < 0 || p.BounceDamping > 1:
		return fmt.Errorf("%w: bounce_damping %v out of [0,1]", ErrInvalidConfig, p.BounceDamping)
	case p.FloorFriction < 0 || p.FloorFriction > 1:
		return fmt.Errorf("%w: floor_friction %v out of [0,1]", ErrInvalidConfig, p.FloorFriction)
	case p.SettleDamping < 0 || p.SettleDamping > 1:
		return fmt.Errorf("%w: settle_damping %v out of [0,1]", ErrInvalidConfig, p.SettleDamping)
	case p.SensorSmoothing < 0 || p.SensorSmoothing >= 1:
		return fmt.Errorf("%w: sensor_smoothing %v out of [0,1)", ErrInvalidConfig, p.SensorSmoothing)
	case p.SettleThreshold < 0 || p.ThrowCap < 0 || p.ImpulseRange < 0 || p.SensorWarmUp < 0:
		return fmt.Errorf("%w: negative threshold", ErrInvalidConfig)
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// GetDefaultConfigDir は設定ファイルを置くディレクトリを返す
func GetDefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "floatball"), nil
}

// LoadConfig は設定ファイルから設定を読み込む
func LoadConfig(configPath string) (*Config, error) {
	// デフォルト設定を用意
	config := DefaultConfig()

	// ファイルが存在しない場合はデフォルト設定を保存して返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveConfig(configPath, config); err != nil {
			return config, err
		}
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return config, err
	}
	if err := Decode(configPath, data, config); err != nil {
		return DefaultConfig(), err
	}
	if err := config.Validate(); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// Decode は拡張子に応じて TOML または YAML として解析する
func Decode(configPath string, data []byte, config *Config) error {
	if isYAML(configPath) {
		return yaml.Unmarshal(data, config)
	}
	_, err := toml.Decode(string(data), config)
	return err
}

// SaveConfig は設定をファイルに保存する
func SaveConfig(configPath string, config *Config) error {
	// 設定ディレクトリの作成
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(configPath) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(config)
	}
	return toml.NewEncoder(f).Encode(config)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
