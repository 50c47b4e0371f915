package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/char5742/floatball/internal/log"
)

type reloadRecorder struct {
	mutex sync.Mutex
	got   []*Config
}

func (r *reloadRecorder) record(cfg *Config) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.got = append(r.got, cfg)
}

func (r *reloadRecorder) count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.got)
}

func (r *reloadRecorder) all() []*Config {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]*Config(nil), r.got...)
}

func (r *reloadRecorder) last() *Config {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.got[len(r.got)-1]
}

func startWatcher(t *testing.T, path string) *reloadRecorder {
	t.Helper()
	w, err := NewWatcher(path, log.Nop())
	require.NoError(t, err)

	rec := &reloadRecorder{}
	w.RegisterCallback(rec.record)
	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)
	return rec
}

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveConfig(path, DefaultConfig()))
	rec := startWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte("[physics]\nthrow_cap = 700.0\n"), 0644))

	require.Eventually(t, func() bool {
		return rec.count() > 0 && rec.last().Physics.ThrowCap == 700
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0.98, rec.last().Physics.Friction)
}

func TestWatcherIgnoresInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveConfig(path, DefaultConfig()))
	rec := startWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte("[physics]\nfriction = 5.0\n"), 0644))
	require.NoError(t, os.WriteFile(path, []byte("[physics]\nthrow_cap = 650.0\n"), 0644))

	require.Eventually(t, func() bool {
		return rec.count() > 0 && rec.last().Physics.ThrowCap == 650
	}, 2*time.Second, 10*time.Millisecond)

	for _, cfg := range rec.all() {
		assert.NoError(t, cfg.Validate())
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveConfig(path, DefaultConfig()))
	rec := startWatcher(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("[physics]\nthrow_cap = 1.0\n"), 0644))

	assert.Never(t, func() bool { return rec.count() > 0 }, 200*time.Millisecond, 20*time.Millisecond)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	w, err := NewWatcher(path, log.Nop())
	require.NoError(t, err)

	require.NoError(t, w.Start())
	w.Stop()
	w.Stop()
}
