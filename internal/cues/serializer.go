package cues

import (
	"log"
	"sync"
	"time"
)

// DefaultCueGap is the minimum spacing between two cues.
const DefaultCueGap = 350 * time.Millisecond

// SerializerOptions configures a Serializer.
type SerializerOptions struct {
	Gap    time.Duration
	Logger *log.Logger

	// Now and Sleep default to time.Now and time.Sleep.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Serializer runs cues one at a time on a worker goroutine, leaving at least
// Gap between the end of one and the start of the next, so cues from the
// workout and protection engines don't overlap. Data sent with Send runs in
// order on a second worker with no gap and never delays a cue.
type Serializer struct {
	cues *lane
	data *lane
}

// NewSerializer starts the worker goroutines. Call Close to stop them.
func NewSerializer(opts SerializerOptions) *Serializer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	opts.Logger = discardLogger(opts.Logger)

	data := opts
	data.Gap = 0
	return &Serializer{
		cues: newLane(opts),
		data: newLane(data),
	}
}

// Do queues a cue. It never blocks. Cues queued after Close are dropped.
func (s *Serializer) Do(name string, fn func() error) {
	s.cues.push(job{name: name, fn: fn})
}

// Send queues a data side effect. It never blocks.
func (s *Serializer) Send(name string, fn func() error) {
	s.data.push(job{name: name, fn: fn})
}

// Close runs everything already queued, then stops the workers.
func (s *Serializer) Close() {
	s.cues.close()
	s.data.close()
}

type job struct {
	name string
	fn   func() error
}

// lane is a FIFO of jobs drained by one goroutine.
type lane struct {
	opts SerializerOptions

	mu      sync.Mutex
	pending []job
	closed  bool

	signal chan struct{}
	done   chan struct{}
}

func newLane(opts SerializerOptions) *lane {
	l := &lane{
		opts:   opts,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go l.loop()
	return l
}

func (l *lane) push(j job) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.pending = append(l.pending, j)

	select {
	case l.signal <- struct{}{}:
	default:
	}
}

func (l *lane) close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.signal)
	}
	l.mu.Unlock()

	<-l.done
}

func (l *lane) take() []job {
	l.mu.Lock()
	defer l.mu.Unlock()
	jobs := l.pending
	l.pending = nil
	return jobs
}

func (l *lane) loop() {
	defer close(l.done)

	var lastDone time.Time
	for range l.signal {
		for jobs := l.take(); len(jobs) > 0; jobs = l.take() {
			for _, j := range jobs {
				if l.opts.Gap > 0 && !lastDone.IsZero() {
					if wait := l.opts.Gap - l.opts.Now().Sub(lastDone); wait > 0 {
						l.opts.Sleep(wait)
					}
				}
				run(l.opts.Logger, j.name, j.fn)
				lastDone = l.opts.Now()
			}
		}
	}
}
