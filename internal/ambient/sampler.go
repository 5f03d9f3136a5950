// Package ambient samples the room's sound level while the listening
// protection cycle is in its listen phase.
package ambient

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/sweeney/interval-timer/internal/gpio"
)

// DefaultInterval is the sampling cadence, roughly one display frame.
const DefaultInterval = 16 * time.Millisecond

// DefaultWindow is the number of recent samples Level averages over.
const DefaultWindow = 64

// Opener acquires the sound sensor.
type Opener func() (gpio.SoundSensor, error)

// Options configures a Sampler.
type Options struct {
	Interval time.Duration
	Window   int
	Logger   *log.Logger

	// Ticks, if set, replaces the interval ticker.
	Ticks <-chan time.Time
}

// Sampler reads the sensor on its own loop, independent of the engines.
// The sensor is held only between Start and Stop.
type Sampler struct {
	open Opener
	opts Options

	mu     sync.Mutex
	sensor gpio.SoundSensor
	cancel context.CancelFunc
	done   chan struct{}

	window []bool
	next   int
	filled int
	failed bool
}

// NewSampler creates a stopped Sampler.
func NewSampler(open Opener, opts Options) *Sampler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Sampler{
		open:   open,
		opts:   opts,
		window: make([]bool, opts.Window),
	}
}

// Start acquires the sensor and begins sampling. Starting a running
// Sampler does nothing.
func (s *Sampler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sensor != nil {
		return nil
	}
	sensor, err := s.open()
	if err != nil {
		return fmt.Errorf("acquire sound sensor: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.sensor = sensor
	s.cancel = cancel
	s.done = make(chan struct{})
	s.next, s.filled, s.failed = 0, 0, false

	ticks := s.opts.Ticks
	var ticker *time.Ticker
	if ticks == nil {
		ticker = time.NewTicker(s.opts.Interval)
		ticks = ticker.C
	}
	go s.loop(ctx, sensor, ticks, ticker, s.done)

	s.opts.Logger.Printf("ambient: sampling started")
	return nil
}

// Stop ends sampling and releases the sensor. Stopping a stopped Sampler
// does nothing.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if s.sensor == nil {
		s.mu.Unlock()
		return
	}
	sensor, cancel, done := s.sensor, s.cancel, s.done
	s.sensor, s.cancel = nil, nil
	s.mu.Unlock()

	cancel()
	<-done
	if err := sensor.Close(); err != nil {
		s.opts.Logger.Printf("ambient: release sensor: %v", err)
	}
	s.opts.Logger.Printf("ambient: sampling stopped")
}

// Sync starts or stops sampling to match want.
func (s *Sampler) Sync(want bool) error {
	if want {
		return s.Start()
	}
	s.Stop()
	return nil
}

// Active reports whether the sensor is currently held.
func (s *Sampler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sensor != nil
}

// Level returns the fraction of recent samples over the sensor threshold,
// from 0 to 1.
func (s *Sampler) Level() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filled == 0 {
		return 0
	}
	over := 0
	for i := 0; i < s.filled; i++ {
		if s.window[i] {
			over++
		}
	}
	return float64(over) / float64(s.filled)
}

func (s *Sampler) loop(ctx context.Context, sensor gpio.SoundSensor, ticks <-chan time.Time, ticker *time.Ticker, done chan struct{}) {
	defer close(done)
	if ticker != nil {
		defer ticker.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			loud, err := sensor.Read()
			s.record(loud, err)
		}
	}
}

func (s *Sampler) record(loud bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		// Log once per run; the sensor is polled every frame.
		if !s.failed {
			s.opts.Logger.Printf("ambient: read sensor: %v", err)
			s.failed = true
		}
		return
	}
	s.window[s.next] = loud
	s.next = (s.next + 1) % len(s.window)
	if s.filled < len(s.window) {
		s.filled++
	}
}
