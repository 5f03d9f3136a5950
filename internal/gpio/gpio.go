// Package gpio drives the buzzer and reads the sound sensor with hardware
// abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Buzzer plays square-wave tones on a piezo buzzer.
type Buzzer interface {
	// PlayTone sounds freqHz for d and returns when the tone has finished.
	PlayTone(freqHz float64, d time.Duration) error

	// Close silences the buzzer and releases GPIO resources.
	Close() error
}

// SoundSensor reads the digital output of a sound level module.
type SoundSensor interface {
	// Read reports whether the sensor is over its threshold.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	PinBuzzer = 18
	PinSound  = 17
)

// halfPeriod returns how long each level of a freqHz square wave is held.
func halfPeriod(freqHz float64) time.Duration {
	if freqHz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / (2 * freqHz))
}
