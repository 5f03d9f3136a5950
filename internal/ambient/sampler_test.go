package ambient

import (
	"bytes"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/interval-timer/internal/gpio"
)

type opener struct {
	sensors []*gpio.FakeSensor
	samples []bool
	err     error
}

func (o *opener) open() (gpio.SoundSensor, error) {
	if o.err != nil {
		return nil, o.err
	}
	s := gpio.NewFakeSensor(o.samples...)
	o.sensors = append(o.sensors, s)
	return s, nil
}

func TestSamplerStartStopIdempotent(t *testing.T) {
	o := &opener{samples: []bool{false}}
	s := NewSampler(o.open, Options{Ticks: make(chan time.Time)})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.Active())
	assert.Len(t, o.sensors, 1, "second Start does not acquire again")

	s.Stop()
	s.Stop()
	assert.False(t, s.Active())
	assert.True(t, o.sensors[0].Closed())

	require.NoError(t, s.Start())
	assert.Len(t, o.sensors, 2, "restart acquires a fresh handle")
	s.Stop()
	assert.True(t, o.sensors[1].Closed())
}

func TestSamplerLevel(t *testing.T) {
	ticks := make(chan time.Time)
	o := &opener{samples: []bool{true, false, true, true}}
	s := NewSampler(o.open, Options{Ticks: ticks, Window: 4})

	assert.Equal(t, 0.0, s.Level())
	require.NoError(t, s.Start())
	for i := 0; i < 4; i++ {
		ticks <- time.Time{}
	}
	s.Stop()

	assert.Equal(t, 0.75, s.Level())
	assert.Equal(t, 4, o.sensors[0].Reads())
}

func TestSamplerWindowSlides(t *testing.T) {
	ticks := make(chan time.Time)
	o := &opener{samples: []bool{true, true, false, false, false}}
	s := NewSampler(o.open, Options{Ticks: ticks, Window: 2})

	require.NoError(t, s.Start())
	for i := 0; i < 5; i++ {
		ticks <- time.Time{}
	}
	s.Stop()

	assert.Equal(t, 0.0, s.Level())
}

func TestSamplerAcquireFailure(t *testing.T) {
	o := &opener{err: errors.New("device busy")}
	s := NewSampler(o.open, Options{})

	err := s.Start()
	assert.ErrorContains(t, err, "device busy")
	assert.False(t, s.Active())
	assert.NotPanics(t, s.Stop)
}

func TestSamplerReadFailureLoggedOnce(t *testing.T) {
	ticks := make(chan time.Time)
	var buf bytes.Buffer
	o := &opener{samples: []bool{true}}
	s := NewSampler(o.open, Options{Ticks: ticks, Logger: log.New(&buf, "", 0)})

	require.NoError(t, s.Start())
	o.sensors[0].ReadError = errors.New("line gone")
	for i := 0; i < 3; i++ {
		ticks <- time.Time{}
	}
	s.Stop()

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("ambient: read sensor: line gone")))
	assert.Equal(t, 0.0, s.Level())
}

func TestSamplerSync(t *testing.T) {
	o := &opener{samples: []bool{false}}
	s := NewSampler(o.open, Options{Ticks: make(chan time.Time)})

	require.NoError(t, s.Sync(true))
	assert.True(t, s.Active())
	require.NoError(t, s.Sync(false))
	assert.False(t, s.Active())
}

func TestSamplerRealTicker(t *testing.T) {
	o := &opener{samples: []bool{true}}
	s := NewSampler(o.open, Options{Interval: time.Millisecond})

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool { return s.Level() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()
}
