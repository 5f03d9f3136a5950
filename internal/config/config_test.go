package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/interval-timer/internal/logic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Poll)
	assert.Equal(t, 350*time.Millisecond, cfg.CueGap)
	assert.Equal(t, 15*time.Minute, cfg.Heartbeat)
	assert.Equal(t, "tcp://localhost:1883", cfg.Broker)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "interval-timer.db", cfg.DBPath)
	assert.Equal(t, 18, cfg.BuzzerPin)
	assert.Equal(t, 17, cfg.SoundPin)
	assert.Equal(t, logic.DefaultProtectionConfig(), cfg.Protection)
	assert.False(t, cfg.StartProtection)
	assert.False(t, cfg.TUI)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"--poll=100ms",
		"--broker=",
		"-w", "last",
		"--tui",
		"--protection",
		"--listen=45m",
		"--ear-rest=10m",
		"--cycles=4",
		"--buzzer-pin=-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, cfg.Poll)
	assert.Empty(t, cfg.Broker)
	assert.Equal(t, "last", cfg.Workout)
	assert.True(t, cfg.TUI)
	assert.True(t, cfg.StartProtection)
	assert.Equal(t, logic.ProtectionConfig{ListenTime: 2700, EarRestTime: 600, ExtendedBreakTime: 3600, Cycles: 4}, cfg.Protection)
	assert.Equal(t, -1, cfg.BuzzerPin)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
broker: tcp://broker.local:1883
cue-gap: 500ms
log-file: /var/log/interval-timer.log
workout-file: /etc/interval-timer/workouts.yaml
extended-break: 30m
`)

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "tcp://broker.local:1883", cfg.Broker)
	assert.Equal(t, 500*time.Millisecond, cfg.CueGap)
	assert.Equal(t, "/var/log/interval-timer.log", cfg.LogFile)
	assert.Equal(t, "/etc/interval-timer/workouts.yaml", cfg.WorkoutFile)
	assert.Equal(t, 1800, cfg.Protection.ExtendedBreakTime)
	assert.Equal(t, 250*time.Millisecond, cfg.Poll, "unset keys keep defaults")
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, "broker: tcp://file:1883\nhttp: :9000\ndb: file.db\n")
	t.Setenv("INTERVAL_BROKER", "tcp://env:1883")
	t.Setenv("INTERVAL_HTTP", ":9001")

	cfg, err := Load([]string{"-c", path, "--broker", "tcp://flag:1883"})
	require.NoError(t, err)

	assert.Equal(t, "tcp://flag:1883", cfg.Broker, "flag beats env and file")
	assert.Equal(t, ":9001", cfg.HTTPAddr, "env beats file")
	assert.Equal(t, "file.db", cfg.DBPath, "file beats default")
}

func TestLoadEnvWithDash(t *testing.T) {
	t.Setenv("INTERVAL_LOG_FILE", "/tmp/timer.log")
	t.Setenv("INTERVAL_EAR_REST", "5m")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/timer.log", cfg.LogFile)
	assert.Equal(t, 300, cfg.Protection.EarRestTime)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.ErrorContains(t, err, "read config file")
}

func TestLoadBadFlag(t *testing.T) {
	_, err := Load([]string{"--no-such-flag"})
	assert.Error(t, err)

	_, err = Load([]string{"--help"})
	assert.True(t, errors.Is(err, pflag.ErrHelp))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero poll", []string{"--poll=0s"}, "poll must be positive"},
		{"negative gap", []string{"--cue-gap=-1s"}, "cue-gap must not be negative"},
		{"no cycles", []string{"--cycles=0"}, "cycles must be at least 1"},
		{"negative listen", []string{"--listen=-1m"}, "protection durations must not be negative"},
		{"zero listen", []string{"--listen=0s"}, "listen must be at least 1s"},
		{"sub-second listen", []string{"--listen=500ms"}, "listen must be at least 1s"},
		{"no db", []string{"--db="}, "db path is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
