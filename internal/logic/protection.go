package logic

import "time"

// StartProtection returns the state of a freshly started protection cycle.
func StartProtection(cfg ProtectionConfig) ProtectionState {
	return ProtectionState{
		Active:     true,
		Phase:      PhaseListen,
		TimeLeft:   cfg.ListenTime,
		CycleCount: 1,
	}
}

// StoppedProtection returns the inactive default state.
func StoppedProtection(cfg ProtectionConfig) ProtectionState {
	return ProtectionState{
		Phase:      PhaseListen,
		TimeLeft:   cfg.ListenTime,
		CycleCount: 1,
	}
}

// Duration returns the nominal length in seconds of a protection phase.
func (cfg ProtectionConfig) Duration(phase ProtectionPhase) int {
	switch phase {
	case PhaseEarRest:
		return cfg.EarRestTime
	case PhaseExtendedBreak:
		return cfg.ExtendedBreakTime
	}
	return cfg.ListenTime
}

// TransitionProtection returns the state that follows s once its phase has
// expired. Listening for the configured number of cycles earns an extended
// break; otherwise each listen phase is followed by a short ear rest.
func TransitionProtection(s ProtectionState, cfg ProtectionConfig) (ProtectionState, bool) {
	if !s.Active {
		return s, false
	}

	switch s.Phase {
	case PhaseListen:
		if s.CycleCount >= cfg.Cycles {
			s.Phase = PhaseExtendedBreak
		} else {
			s.Phase = PhaseEarRest
			s.CycleCount++
		}
	case PhaseEarRest:
		s.Phase = PhaseListen
	case PhaseExtendedBreak:
		s.Phase = PhaseListen
		s.CycleCount = 1
	default:
		return s, false
	}
	s.TimeLeft = cfg.Duration(s.Phase)
	return s, true
}

// AdvanceProtection fast-forwards the protection cycle by elapsed seconds, in
// the same way Advance does for workouts.
//
// A cycle whose every phase has zero length would never consume time; the loop
// gives up after one full lap of such phases.
func AdvanceProtection(s ProtectionState, cfg ProtectionConfig, elapsed int, now time.Time) (ProtectionState, []ProtectionEvent) {
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := elapsed
	cursor := now.Add(-time.Duration(elapsed) * time.Second)
	maxIdle := 2*cfg.Cycles + 2

	var events []ProtectionEvent
	idle := 0
	for s.Active {
		if s.TimeLeft <= 0 {
			if idle > maxIdle {
				break
			}
			next, ok := TransitionProtection(s, cfg)
			if !ok {
				break
			}
			s = next
			idle++
			events = append(events, ProtectionEvent{
				Phase:      s.Phase,
				CycleCount: s.CycleCount,
				OccurredAt: cursor,
			})
			continue
		}

		if remaining < s.TimeLeft {
			s.TimeLeft -= remaining
			break
		}

		idle = 0
		cursor = cursor.Add(time.Duration(s.TimeLeft) * time.Second)
		remaining -= s.TimeLeft
		s.TimeLeft = 0
	}
	return s, events
}
