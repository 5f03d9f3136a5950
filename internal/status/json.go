package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Workout       WorkoutJSON    `json:"workout"`
	Protection    ProtectionJSON `json:"protection"`
	Ambient       AmbientJSON    `json:"ambient"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Config        ConfigJSON     `json:"config"`
}

// WorkoutJSON is the JSON representation of the workout run. Set and Round
// are 1-based for display.
type WorkoutJSON struct {
	Name         string `json:"name,omitempty"`
	Running      bool   `json:"running"`
	Paused       bool   `json:"paused"`
	Completed    bool   `json:"completed"`
	Phase        string `json:"phase"`
	Exercise     string `json:"exercise,omitempty"`
	Set          int    `json:"set"`
	Sets         int    `json:"sets"`
	Round        int    `json:"round"`
	Rounds       int    `json:"rounds"`
	TimeLeft     int    `json:"time_left"`
	PhaseTime    int    `json:"phase_time"`
	TotalSeconds int    `json:"total_seconds"`
}

// ProtectionJSON is the JSON representation of the protection cycle.
type ProtectionJSON struct {
	Active   bool   `json:"active"`
	Phase    string `json:"phase"`
	TimeLeft int    `json:"time_left"`
	Cycle    int    `json:"cycle"`
	Cycles   int    `json:"cycles"`
}

// AmbientJSON is the JSON representation of the sound sensor.
type AmbientJSON struct {
	Sampling bool    `json:"sampling"`
	Level    float64 `json:"level"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	CueGapMs    int64  `json:"cue_gap_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPPort    string `json:"http_port"`
}

func buildWorkout(snap Snapshot) WorkoutJSON {
	ts := snap.Timer
	w := WorkoutJSON{
		Name:      ts.Workout.Name,
		Running:   ts.Running,
		Paused:    ts.Paused,
		Completed: ts.Status.WorkoutCompleted,
		Phase:     string(ts.Status.Phase),
		Set:       ts.Status.CurrentSet,
		Sets:      ts.Workout.Sets,
		Round:     ts.Status.CurrentRoundIndex + 1,
		Rounds:    len(ts.Workout.Rounds),
		TimeLeft:  ts.Status.TimeLeftInPhase,
		PhaseTime: ts.Status.TotalPhaseTime,
	}
	if len(ts.Workout.Rounds) > 0 {
		w.TotalSeconds = ts.Workout.TotalDuration()
	}
	if r, ok := ts.CurrentRound(); ok {
		w.Exercise = r.ExerciseName
	}
	return w
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Workout: buildWorkout(snap),
		Protection: ProtectionJSON{
			Active:   snap.Protection.Active,
			Phase:    string(snap.Protection.Phase),
			TimeLeft: snap.Protection.TimeLeft,
			Cycle:    snap.Protection.CycleCount,
			Cycles:   snap.ProtectionConfig.Cycles,
		},
		Ambient:       AmbientJSON{Sampling: snap.Sampling, Level: snap.AmbientLevel},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			CueGapMs:    snap.Config.CueGapMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPPort:    snap.Config.HTTPPort,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
