// Package config loads daemon settings from defaults, an optional YAML
// file, INTERVAL_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/interval-timer/internal/cues"
	"github.com/sweeney/interval-timer/internal/engine"
	"github.com/sweeney/interval-timer/internal/gpio"
	"github.com/sweeney/interval-timer/internal/logic"
)

// EnvPrefix is prepended to every environment override, e.g. INTERVAL_BROKER.
const EnvPrefix = "INTERVAL"

// ErrHelp is returned by Load when -h or --help was given.
var ErrHelp = pflag.ErrHelp

// Config is the daemon configuration.
type Config struct {
	ConfigFile string

	Poll      time.Duration
	CueGap    time.Duration
	Heartbeat time.Duration // 0 disables

	Broker   string // empty disables MQTT
	HTTPAddr string // empty disables the HTTP readout
	DBPath   string
	LogFile  string // empty logs to stderr only

	BuzzerPin int // negative disables the buzzer
	SoundPin  int // negative disables ambient sampling

	Workout     string // ID or name of a stored workout, or "last"
	WorkoutFile string // YAML file of workouts to import
	TUI         bool

	Protection      logic.ProtectionConfig
	StartProtection bool
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("interval-timer", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "YAML config file")
	fs.Duration("poll", engine.DefaultPollInterval, "Engine polling interval")
	fs.Duration("cue-gap", cues.DefaultCueGap, "Minimum spacing between cues")
	fs.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.String("broker", "tcp://localhost:1883", "MQTT broker address (empty to disable)")
	fs.String("http", ":8080", "HTTP status address (empty to disable)")
	fs.String("db", "interval-timer.db", "SQLite database path")
	fs.String("log-file", "", "Rotated log file (empty for stderr only)")
	fs.Int("buzzer-pin", gpio.PinBuzzer, "BCM pin for the piezo buzzer (-1 to disable)")
	fs.Int("sound-pin", gpio.PinSound, "BCM pin for the sound sensor (-1 to disable)")
	fs.StringP("workout", "w", "", `Workout to start: stored ID or name, or "last"`)
	fs.String("workout-file", "", "YAML file of workouts to import")
	fs.Bool("tui", false, "Show the terminal readout")
	fs.Bool("protection", false, "Start the listening protection cycle")
	fs.Duration("listen", time.Duration(logic.DefaultListenTime)*time.Second, "Protection listen phase")
	fs.Duration("ear-rest", time.Duration(logic.DefaultEarRestTime)*time.Second, "Protection ear rest phase")
	fs.Duration("extended-break", time.Duration(logic.DefaultExtendedBreakTime)*time.Second, "Protection extended break")
	fs.Int("cycles", logic.DefaultProtectionCycles, "Listen phases before an extended break")
	return fs
}

// Load parses args (without the program name) and resolves the final
// configuration.
func Load(args []string) (Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		ConfigFile:  v.GetString("config"),
		Poll:        v.GetDuration("poll"),
		CueGap:      v.GetDuration("cue-gap"),
		Heartbeat:   v.GetDuration("heartbeat"),
		Broker:      v.GetString("broker"),
		HTTPAddr:    v.GetString("http"),
		DBPath:      v.GetString("db"),
		LogFile:     v.GetString("log-file"),
		BuzzerPin:   v.GetInt("buzzer-pin"),
		SoundPin:    v.GetInt("sound-pin"),
		Workout:     v.GetString("workout"),
		WorkoutFile: v.GetString("workout-file"),
		TUI:         v.GetBool("tui"),
		Protection: logic.ProtectionConfig{
			ListenTime:        seconds(v.GetDuration("listen")),
			EarRestTime:       seconds(v.GetDuration("ear-rest")),
			ExtendedBreakTime: seconds(v.GetDuration("extended-break")),
			Cycles:            v.GetInt("cycles"),
		},
		StartProtection: v.GetBool("protection"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

// Validate checks values that would otherwise fail later at runtime.
func (c Config) Validate() error {
	var errs []error
	if c.Poll <= 0 {
		errs = append(errs, fmt.Errorf("poll must be positive, got %v", c.Poll))
	}
	if c.CueGap < 0 {
		errs = append(errs, fmt.Errorf("cue-gap must not be negative, got %v", c.CueGap))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("heartbeat must not be negative, got %v", c.Heartbeat))
	}
	if c.Protection.Cycles < 1 {
		errs = append(errs, fmt.Errorf("cycles must be at least 1, got %d", c.Protection.Cycles))
	}
	if c.Protection.ListenTime < 0 || c.Protection.EarRestTime < 0 || c.Protection.ExtendedBreakTime < 0 {
		errs = append(errs, errors.New("protection durations must not be negative"))
	}
	if c.Protection.ListenTime == 0 {
		errs = append(errs, errors.New("listen must be at least 1s"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
