//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

const chipName = "gpiochip0"

// RealBuzzer toggles an output line to drive a passive piezo buzzer.
type RealBuzzer struct {
	mu   sync.Mutex
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealBuzzer requests pin as an output, initially low.
func NewRealBuzzer(pin int) (*RealBuzzer, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pin, err)
	}

	return &RealBuzzer{chip: chip, line: line}, nil
}

// PlayTone bit-bangs a square wave at freqHz for d. Tones are played one at
// a time.
func (b *RealBuzzer) PlayTone(freqHz float64, d time.Duration) error {
	half := halfPeriod(freqHz)
	if half <= 0 || d <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	level := 1
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if err := b.line.SetValue(level); err != nil {
			b.line.SetValue(0)
			return fmt.Errorf("set buzzer pin: %w", err)
		}
		level ^= 1
		time.Sleep(half)
	}
	if err := b.line.SetValue(0); err != nil {
		return fmt.Errorf("silence buzzer pin: %w", err)
	}
	return nil
}

// Close drives the line low, returns it to an input with pull-down (matching
// Pi boot defaults) and releases the chip.
func (b *RealBuzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	if b.line != nil {
		if err := b.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("silence buzzer pin: %w", err))
		}
		if err := b.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure buzzer pin: %w", err))
		}
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close buzzer pin: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealSensor reads a sound module's digital output from an input line.
type RealSensor struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealSensor requests pin as an input with pull-down.
func NewRealSensor(pin int) (*RealSensor, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sound pin %d: %w", pin, err)
	}

	return &RealSensor{chip: chip, line: line}, nil
}

// Read returns true while the module reports sound over its threshold.
func (s *RealSensor) Read() (bool, error) {
	raw, err := s.line.Value()
	if err != nil {
		return false, fmt.Errorf("read sound pin: %w", err)
	}
	return raw == 1, nil
}

// Close releases GPIO resources.
func (s *RealSensor) Close() error {
	var errs []error
	if s.line != nil {
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sound pin: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
