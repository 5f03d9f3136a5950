// Package status provides a thread-safe status tracker for the interval-timer daemon.
// It is read by the HTTP and terminal readouts and by MQTT system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/interval-timer/internal/engine"
	"github.com/sweeney/interval-timer/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	CueGapMs    int64
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Timer            engine.TimerState
	Protection       logic.ProtectionState
	ProtectionConfig logic.ProtectionConfig
	AmbientLevel     float64
	Sampling         bool
	StartTime        time.Time
	Now              time.Time
	MQTTConnected    bool
	Config           Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Timer:     engine.TimerState{Status: logic.InitialStatus()},
		},
	}
}

// UpdateTimer records the workout run. Called after every workout poll.
func (t *Tracker) UpdateTimer(state engine.TimerState) {
	t.mu.Lock()
	t.snap.Timer = state
	t.mu.Unlock()
}

// UpdateProtection records the protection cycle. Called after every
// protection poll.
func (t *Tracker) UpdateProtection(state logic.ProtectionState, cfg logic.ProtectionConfig) {
	t.mu.Lock()
	t.snap.Protection = state
	t.snap.ProtectionConfig = cfg
	t.mu.Unlock()
}

// SetAmbient records the sound level and whether the sensor is sampling.
func (t *Tracker) SetAmbient(level float64, sampling bool) {
	t.mu.Lock()
	t.snap.AmbientLevel = level
	t.snap.Sampling = sampling
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
