package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char5742/floatball/internal/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 600.0, cfg.Physics.GravityStrength)
	assert.Equal(t, 800.0, cfg.Physics.InitialGravityY)
	assert.Equal(t, 16*time.Millisecond, cfg.Physics.Tick)
	assert.Equal(t, 100*time.Millisecond, cfg.Physics.IdleGrace)
	assert.Equal(t, 50*time.Millisecond, cfg.Physics.BaselineInterval)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero tick", func(c *Config) { c.Physics.Tick = 0 }},
		{"negative grace", func(c *Config) { c.Physics.IdleGrace = -time.Millisecond }},
		{"friction above one", func(c *Config) { c.Physics.Friction = 1.5 }},
		{"zero friction", func(c *Config) { c.Physics.Friction = 0 }},
		{"bounce above one", func(c *Config) { c.Physics.BounceDamping = 1.1 }},
		{"negative floor friction", func(c *Config) { c.Physics.FloorFriction = -0.1 }},
		{"settle damping above one", func(c *Config) { c.Physics.SettleDamping = 2 }},
		{"smoothing of one", func(c *Config) { c.Physics.SensorSmoothing = 1 }},
		{"negative throw cap", func(c *Config) { c.Physics.ThrowCap = -1 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	for _, name := range []string{"config.toml", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := DefaultConfig()
			cfg.Physics.Friction = 0.95
			cfg.Physics.Tick = 8 * time.Millisecond
			cfg.Session.Container = types.Bounds{Width: 1280, Height: 720}
			cfg.Log.Level = "debug"
			require.NoError(t, SaveConfig(path, cfg))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadConfigCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[physics]\nfriction = 3.0\n"), 0644))

	cfg, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("physics:\n  throw_cap: 900\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 900.0, cfg.Physics.ThrowCap)
	assert.Equal(t, 0.98, cfg.Physics.Friction)
}
