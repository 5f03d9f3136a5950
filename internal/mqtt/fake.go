package mqtt

import (
	"sync"

	"github.com/sweeney/interval-timer/internal/logic"
)

// Notification is one Notify call recorded by FakePublisher.
type Notification struct {
	Title string
	Body  string
}

// FakePublisher records published messages for test assertions.
// It is safe for concurrent use; read results through its accessors.
type FakePublisher struct {
	mu sync.Mutex

	announcements []string
	notifications []Notification
	workout       []logic.Event
	protection    []logic.ProtectionEvent
	payloads      [][]byte
	systemEvents  []SystemEvent
	closed        bool

	// PublishError, if set, will be returned by every cue and transition.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Announce records the announcement.
func (f *FakePublisher) Announce(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.announcements = append(f.announcements, text)
	return nil
}

// Notify records the notification.
func (f *FakePublisher) Notify(title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.notifications = append(f.notifications, Notification{Title: title, Body: body})
	return nil
}

// WorkoutTransition records the workout event and its payload.
func (f *FakePublisher) WorkoutTransition(event logic.Event, cue string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatWorkoutPayload(event, cue)
	if err != nil {
		return err
	}
	f.workout = append(f.workout, event)
	f.payloads = append(f.payloads, payload)
	return nil
}

// ProtectionTransition records the protection event and its payload.
func (f *FakePublisher) ProtectionTransition(event logic.ProtectionEvent, cue string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatProtectionPayload(event, cue)
	if err != nil {
		return err
	}
	f.protection = append(f.protection, event)
	f.payloads = append(f.payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	f.systemEvents = append(f.systemEvents, event)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// SetConnected changes the value reported by IsConnected.
func (f *FakePublisher) SetConnected(connected bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connected = connected
}

// Announcements returns the recorded announcements in order.
func (f *FakePublisher) Announcements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.announcements...)
}

// Notifications returns the recorded notifications in order.
func (f *FakePublisher) Notifications() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.notifications...)
}

// WorkoutEvents returns the recorded workout transitions in order.
func (f *FakePublisher) WorkoutEvents() []logic.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Event(nil), f.workout...)
}

// ProtectionEvents returns the recorded protection transitions in order.
func (f *FakePublisher) ProtectionEvents() []logic.ProtectionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.ProtectionEvent(nil), f.protection...)
}

// Payloads returns the JSON payloads of all recorded transitions in order.
func (f *FakePublisher) Payloads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.payloads...)
}

// SystemEvents returns the recorded system events in order.
func (f *FakePublisher) SystemEvents() []SystemEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SystemEvent(nil), f.systemEvents...)
}

// Closed reports whether Close was called.
func (f *FakePublisher) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.announcements = nil
	f.notifications = nil
	f.workout = nil
	f.protection = nil
	f.payloads = nil
	f.systemEvents = nil
	f.closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
