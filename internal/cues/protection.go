package cues

import (
	"fmt"
	"log"

	"github.com/sweeney/interval-timer/internal/logic"
)

// ProtectionSource is the part of engine.Protection the protection cues read.
type ProtectionSource interface {
	DrainEvents() []logic.ProtectionEvent
	ProtectionState() logic.ProtectionState
	Config() logic.ProtectionConfig
}

var protectionFreq = map[logic.ProtectionPhase]float64{
	logic.PhaseListen:        392,
	logic.PhaseEarRest:       330,
	logic.PhaseExtendedBreak: 262,
}

// ProtectionCues emits one announcement and tone per protection phase entry,
// plus the final countdown.
type ProtectionCues struct {
	src    ProtectionSource
	send   sender
	logger *log.Logger
	beeps  countdown
}

// NewProtectionCues creates a dispatcher for src.
func NewProtectionCues(src ProtectionSource, out Outputs, run Runner, logger *log.Logger) *ProtectionCues {
	return &ProtectionCues{
		src:    src,
		send:   sender{out: out, run: run},
		logger: discardLogger(logger),
	}
}

// Dispatch drains the queue and replays the events in order.
func (c *ProtectionCues) Dispatch() {
	for _, e := range c.src.DrainEvents() {
		text := ProtectionAnnouncement(e.Phase)
		c.send.protectionEvent(e, text)

		boundary := &cue{name: string(e.Phase)}
		c.send.tone(boundary, protectionFreq[e.Phase], ToneLength)
		c.send.announce(boundary, text)
		c.send.notify(boundary, "Listening protection", fmt.Sprintf("%s (cycle %d)", text, e.CycleCount))
		c.send.play(boundary)
	}

	s := c.src.ProtectionState()
	if !s.Active {
		return
	}
	total := c.src.Config().Duration(s.Phase)
	key := fmt.Sprintf("%s/%d/%d", s.Phase, s.CycleCount, s.TimeLeft)
	if c.beeps.due(key, s.TimeLeft, total) {
		c.send.beep()
	}
}

// ProtectionAnnouncement returns the text announced when phase begins.
func ProtectionAnnouncement(phase logic.ProtectionPhase) string {
	switch phase {
	case logic.PhaseListen:
		return "LISTEN"
	case logic.PhaseEarRest:
		return "EAR REST"
	case logic.PhaseExtendedBreak:
		return "EXTENDED BREAK"
	}
	return string(phase)
}
