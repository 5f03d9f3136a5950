package gpio

import (
	"errors"
	"sync"
	"time"
)

// Tone is one PlayTone call recorded by FakeBuzzer.
type Tone struct {
	FreqHz   float64
	Duration time.Duration
}

// FakeBuzzer is a test double that records tones instead of playing them.
// It is safe for concurrent use.
type FakeBuzzer struct {
	mu     sync.Mutex
	tones  []Tone
	closed bool

	// PlayError, if set, will be returned by PlayTone
	PlayError error
}

// NewFakeBuzzer creates a silent FakeBuzzer.
func NewFakeBuzzer() *FakeBuzzer {
	return &FakeBuzzer{}
}

// PlayTone records the tone and returns immediately.
func (f *FakeBuzzer) PlayTone(freqHz float64, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PlayError != nil {
		return f.PlayError
	}
	f.tones = append(f.tones, Tone{FreqHz: freqHz, Duration: d})
	return nil
}

// Tones returns a copy of the recorded tones.
func (f *FakeBuzzer) Tones() []Tone {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Tone(nil), f.tones...)
}

// Close marks the buzzer as closed.
func (f *FakeBuzzer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeBuzzer) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeSensor is a test double that returns scripted sensor values.
type FakeSensor struct {
	mu sync.Mutex

	// Samples contains scripted values to return.
	// Each call to Read() consumes the next sample.
	Samples []bool

	// index tracks current position in Samples
	index int

	// reads counts Read calls
	reads int

	closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeSensor creates a FakeSensor with the given samples.
func NewFakeSensor(samples ...bool) *FakeSensor {
	return &FakeSensor{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSensor) Read() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++

	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Reads returns how many times Read was called.
func (f *FakeSensor) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Close marks the sensor as closed.
func (f *FakeSensor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeSensor) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset rewinds the sensor to the beginning of samples.
func (f *FakeSensor) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = 0
	f.reads = 0
	f.closed = false
}
