package main

import (
	"log"

	"github.com/sweeney/interval-timer/internal/ambient"
	"github.com/sweeney/interval-timer/internal/cues"
	"github.com/sweeney/interval-timer/internal/engine"
	"github.com/sweeney/interval-timer/internal/logic"
	"github.com/sweeney/interval-timer/internal/mqtt"
	"github.com/sweeney/interval-timer/internal/status"
)

// daemon ties the two engines to their cue dispatchers and the status
// tracker. Its after hooks run on the scheduler goroutines; its control
// methods serve the HTTP and terminal readouts.
type daemon struct {
	timer      *engine.Timer
	protection *engine.Protection
	protCfg    logic.ProtectionConfig

	workoutCues    *cues.WorkoutCues
	protectionCues *cues.ProtectionCues

	tracker    *status.Tracker
	mqttStatus mqtt.ConnectionStatus // nil when MQTT is disabled
	sampler    *ambient.Sampler      // nil when the sound sensor is disabled
	logger     *log.Logger

	listening bool // touched only by afterProtection

	workoutSched    *engine.Scheduler
	protectionSched *engine.Scheduler
}

type daemonOptions struct {
	Timer      *engine.Timer
	Protection *engine.Protection
	ProtCfg    logic.ProtectionConfig
	Outputs    cues.Outputs
	Runner     cues.Runner
	Tracker    *status.Tracker
	MQTTStatus mqtt.ConnectionStatus
	Sampler    *ambient.Sampler
	Logger     *log.Logger
}

func newDaemon(opts daemonOptions) *daemon {
	d := &daemon{
		timer:          opts.Timer,
		protection:     opts.Protection,
		protCfg:        opts.ProtCfg,
		workoutCues:    cues.NewWorkoutCues(opts.Timer, opts.Outputs, opts.Runner, opts.Logger),
		protectionCues: cues.NewProtectionCues(opts.Protection, opts.Outputs, opts.Runner, opts.Logger),
		tracker:        opts.Tracker,
		mqttStatus:     opts.MQTTStatus,
		sampler:        opts.Sampler,
		logger:         opts.Logger,
	}
	d.workoutSched = engine.NewScheduler(d.timer, d.afterWorkout)
	d.protectionSched = engine.NewScheduler(d.protection, d.afterProtection)
	return d
}

func (d *daemon) afterWorkout() {
	d.workoutCues.Dispatch()
	d.tracker.UpdateTimer(d.timer.State())
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

func (d *daemon) afterProtection() {
	d.protectionCues.Dispatch()
	state := d.protection.ProtectionState()
	d.tracker.UpdateProtection(state, d.protection.Config())

	if d.sampler == nil {
		return
	}
	listening := state.Active && state.Phase == logic.PhaseListen
	if listening != d.listening {
		if err := d.sampler.Sync(listening); err != nil {
			d.logger.Printf("ambient: %v", err)
		} else {
			d.listening = listening
		}
	}
	d.tracker.SetAmbient(d.sampler.Level(), d.sampler.Active())
}

// wake asks both schedulers for an immediate poll.
func (d *daemon) wake() {
	d.workoutSched.Wake()
	d.protectionSched.Wake()
}

// foreground catches both engines up after the host resumes.
func (d *daemon) foreground() {
	if n := d.timer.Foreground(); n > 0 {
		d.logger.Printf("timer: caught up %d transitions", n)
	}
	if n := d.protection.Foreground(); n > 0 {
		d.logger.Printf("protection: caught up %d transitions", n)
	}
	d.wake()
}

func (d *daemon) Pause() {
	d.timer.Pause()
	d.workoutSched.Wake()
}

func (d *daemon) Resume() {
	d.timer.Resume()
	d.workoutSched.Wake()
}

func (d *daemon) Stop() {
	d.timer.Stop()
	d.workoutSched.Wake()
}

func (d *daemon) StartProtection() error {
	if err := d.protection.StartProtectionCycle(d.protCfg); err != nil {
		return err
	}
	d.protectionSched.Wake()
	return nil
}

func (d *daemon) StopProtection() {
	d.protection.StopProtectionCycle()
	d.protectionSched.Wake()
}

// shutdown releases the sound sensor.
func (d *daemon) shutdown() {
	if d.sampler != nil {
		d.sampler.Stop()
	}
}
