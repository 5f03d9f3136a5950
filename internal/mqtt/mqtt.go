// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/interval-timer/internal/logic"
)

// Topic is the MQTT topic for phase transition events of both engines.
const Topic = "interval/timer/events"

// TopicAnnounce is the MQTT topic for spoken announcements.
const TopicAnnounce = "interval/timer/announce"

// TopicNotify is the MQTT topic for user notifications.
const TopicNotify = "interval/timer/notify"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "interval/timer/system"

// Engine names used in transition payloads.
const (
	EngineWorkout    = "workout"
	EngineProtection = "protection"
)

// Publisher publishes cues and events to MQTT.
type Publisher interface {
	// Announce sends an announcement for a speaker or display.
	Announce(text string) error

	// Notify sends a user notification.
	Notify(title, body string) error

	// WorkoutTransition sends a workout phase change.
	WorkoutTransition(event logic.Event, cue string) error

	// ProtectionTransition sends a protection phase change.
	ProtectionTransition(event logic.ProtectionEvent, cue string) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// TransitionPayload represents the MQTT message payload for a phase change.
type TransitionPayload struct {
	Transition TransitionInner `json:"transition"`
}

// TransitionInner contains the phase change details. Set and Round apply to
// the workout engine, Cycle to the protection engine.
type TransitionInner struct {
	ID        uint64 `json:"id"`
	Engine    string `json:"engine"`
	Timestamp string `json:"timestamp"`
	Phase     string `json:"phase"`
	Set       int    `json:"set,omitempty"`
	Round     *int   `json:"round,omitempty"`
	Cycle     int    `json:"cycle,omitempty"`
	Cue       string `json:"cue"`
}

// FormatWorkoutPayload creates the JSON payload for a workout transition.
func FormatWorkoutPayload(event logic.Event, cue string) ([]byte, error) {
	round := event.RoundIndex
	return json.Marshal(TransitionPayload{
		Transition: TransitionInner{
			ID:        event.ID,
			Engine:    EngineWorkout,
			Timestamp: event.OccurredAt.UTC().Format(time.RFC3339),
			Phase:     string(event.Phase),
			Set:       event.Set,
			Round:     &round,
			Cue:       cue,
		},
	})
}

// FormatProtectionPayload creates the JSON payload for a protection transition.
func FormatProtectionPayload(event logic.ProtectionEvent, cue string) ([]byte, error) {
	return json.Marshal(TransitionPayload{
		Transition: TransitionInner{
			ID:        event.ID,
			Engine:    EngineProtection,
			Timestamp: event.OccurredAt.UTC().Format(time.RFC3339),
			Phase:     string(event.Phase),
			Cycle:     event.CycleCount,
			Cue:       cue,
		},
	})
}

// AnnouncePayload represents the MQTT message payload for an announcement.
type AnnouncePayload struct {
	Announce AnnounceInner `json:"announce"`
}

// AnnounceInner contains the announcement text.
type AnnounceInner struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// FormatAnnouncePayload creates the JSON payload for an announcement.
func FormatAnnouncePayload(at time.Time, text string) ([]byte, error) {
	return json.Marshal(AnnouncePayload{
		Announce: AnnounceInner{
			Timestamp: at.UTC().Format(time.RFC3339),
			Text:      text,
		},
	})
}

// NotifyPayload represents the MQTT message payload for a notification.
type NotifyPayload struct {
	Notify NotifyInner `json:"notify"`
}

// NotifyInner contains the notification details.
type NotifyInner struct {
	Timestamp string `json:"timestamp"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

// FormatNotifyPayload creates the JSON payload for a notification.
func FormatNotifyPayload(at time.Time, title, body string) ([]byte, error) {
	return json.Marshal(NotifyPayload{
		Notify: NotifyInner{
			Timestamp: at.UTC().Format(time.RFC3339),
			Title:     title,
			Body:      body,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
