// Package cues turns engine transition events into side effects: spoken
// announcements, notifications and buzzer tones.
//
// Every side effect is handed to a Runner. Collaborator failures are logged
// and dropped; they never reach the engines.
package cues

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/sweeney/interval-timer/internal/logic"
)

// Toner plays a single tone.
type Toner interface {
	PlayTone(freqHz float64, d time.Duration) error
}

// Announcer speaks or displays a short announcement.
type Announcer interface {
	Announce(text string) error
}

// Notifier delivers a user-visible notification.
type Notifier interface {
	Notify(title, body string) error
}

// EventSink receives every replayed transition along with its announcement.
type EventSink interface {
	WorkoutTransition(e logic.Event, cue string) error
	ProtectionTransition(e logic.ProtectionEvent, cue string) error
}

// Outputs groups the collaborators cues are sent to. Nil fields are skipped.
type Outputs struct {
	Toner     Toner
	Announcer Announcer
	Notifier  Notifier
	Events    EventSink
}

// Runner executes side effects. Do is for audible cues, which a Runner may
// space out; Send is for data that should go out without delay. name is used
// only for logging.
type Runner interface {
	Do(name string, fn func() error)
	Send(name string, fn func() error)
}

// Inline runs each side effect immediately on the caller's goroutine.
type Inline struct {
	Logger *log.Logger
}

// Do runs fn and logs its error.
func (r Inline) Do(name string, fn func() error) {
	run(r.Logger, name, fn)
}

// Send runs fn and logs its error.
func (r Inline) Send(name string, fn func() error) {
	run(r.Logger, name, fn)
}

func run(logger *log.Logger, name string, fn func() error) {
	if err := fn(); err != nil && logger != nil {
		logger.Printf("cues: %s failed: %v", name, err)
	}
}

func discardLogger(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard, "", 0)
	}
	return l
}

// Tone frequencies and lengths.
const (
	ToneLength      = 200 * time.Millisecond
	CountdownFreq   = 1000.0
	CountdownLength = 100 * time.Millisecond
	CompletionStep  = 150 * time.Millisecond

	// CountdownFrom is the number of final seconds of a phase that beep.
	CountdownFrom = 3
)

// CompletionMelody is played when a workout finishes, in place of the
// per-phase tone.
var CompletionMelody = []float64{523, 659, 784, 1047}

// cue is everything that happens at one boundary. Its parts run back to
// back as a single job, tone first.
type cue struct {
	name  string
	parts []job
}

func (c *cue) add(name string, fn func() error) {
	c.parts = append(c.parts, job{name: name, fn: fn})
}

func (c *cue) run() error {
	var errs []error
	for _, p := range c.parts {
		if err := p.fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
		}
	}
	return errors.Join(errs...)
}

// sender wraps Outputs with a Runner so callers don't repeat nil checks.
type sender struct {
	out Outputs
	run Runner
}

// play hands c to the runner as one cue.
func (s sender) play(c *cue) {
	if len(c.parts) == 0 {
		return
	}
	s.run.Do(c.name, c.run)
}

func (s sender) announce(c *cue, text string) {
	if s.out.Announcer == nil {
		return
	}
	c.add("announce", func() error { return s.out.Announcer.Announce(text) })
}

func (s sender) notify(c *cue, title, body string) {
	if s.out.Notifier == nil {
		return
	}
	c.add("notify", func() error { return s.out.Notifier.Notify(title, body) })
}

func (s sender) tone(c *cue, freqHz float64, d time.Duration) {
	if s.out.Toner == nil {
		return
	}
	c.add("tone", func() error { return s.out.Toner.PlayTone(freqHz, d) })
}

// melody stops at the first failed tone.
func (s sender) melody(c *cue, freqs []float64, step time.Duration) {
	if s.out.Toner == nil {
		return
	}
	c.add("melody", func() error {
		for _, f := range freqs {
			if err := s.out.Toner.PlayTone(f, step); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s sender) workoutEvent(e logic.Event, text string) {
	if s.out.Events == nil {
		return
	}
	s.run.Send("publish", func() error { return s.out.Events.WorkoutTransition(e, text) })
}

func (s sender) protectionEvent(e logic.ProtectionEvent, text string) {
	if s.out.Events == nil {
		return
	}
	s.run.Send("publish", func() error { return s.out.Events.ProtectionTransition(e, text) })
}

// beep plays one countdown tone as its own cue.
func (s sender) beep() {
	c := &cue{name: "countdown"}
	s.tone(c, CountdownFreq, CountdownLength)
	s.play(c)
}

// countdown remembers the last beeped second so each one beeps once.
type countdown struct {
	last string
}

// due reports whether key (identifying a phase instance and second) should
// beep now. timeLeft and total are the phase's remaining and full durations.
func (c *countdown) due(key string, timeLeft, total int) bool {
	if timeLeft < 1 || timeLeft > CountdownFrom || total <= CountdownFrom {
		return false
	}
	if key == c.last {
		return false
	}
	c.last = key
	return true
}
