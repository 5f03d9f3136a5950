//go:build !linux

package gpio

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealBuzzer is not available on non-Linux platforms.
type RealBuzzer struct{}

// NewRealBuzzer returns an error on non-Linux platforms.
func NewRealBuzzer(pin int) (*RealBuzzer, error) {
	return nil, errUnsupported
}

// PlayTone is not implemented on non-Linux platforms.
func (b *RealBuzzer) PlayTone(freqHz float64, d time.Duration) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (b *RealBuzzer) Close() error {
	return nil
}

// RealSensor is not available on non-Linux platforms.
type RealSensor struct{}

// NewRealSensor returns an error on non-Linux platforms.
func NewRealSensor(pin int) (*RealSensor, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (s *RealSensor) Read() (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (s *RealSensor) Close() error {
	return nil
}
