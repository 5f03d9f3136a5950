// Command interval-timer runs interval workouts and a listening protection
// cycle, cueing phase changes through a buzzer and MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sweeney/interval-timer/internal/ambient"
	"github.com/sweeney/interval-timer/internal/config"
	"github.com/sweeney/interval-timer/internal/cues"
	"github.com/sweeney/interval-timer/internal/engine"
	"github.com/sweeney/interval-timer/internal/gpio"
	"github.com/sweeney/interval-timer/internal/logging"
	"github.com/sweeney/interval-timer/internal/mqtt"
	"github.com/sweeney/interval-timer/internal/status"
	"github.com/sweeney/interval-timer/internal/store"
	"github.com/sweeney/interval-timer/internal/tui"
	"github.com/sweeney/interval-timer/internal/web"
	"github.com/sweeney/interval-timer/internal/workout"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	logger, closeLog := logging.New(logging.Options{File: cfg.LogFile, Quiet: cfg.TUI})
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Printf("fatal: %v", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *log.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.WorkoutFile != "" {
		n, err := importWorkouts(ctx, db, cfg.WorkoutFile)
		if err != nil {
			return err
		}
		logger.Printf("imported %d workouts from %s", n, cfg.WorkoutFile)
	}

	var selected *workout.Workout
	if cfg.Workout != "" {
		w, err := selectWorkout(ctx, db, cfg.Workout)
		if err != nil {
			return err
		}
		selected = &w
	}

	// Initialize outputs. A missing buzzer or broker is not fatal.
	var outputs cues.Outputs
	if buzzer := openBuzzer(cfg.BuzzerPin, logger); buzzer != nil {
		defer buzzer.Close()
		outputs.Toner = buzzer
	}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{Broker: cfg.Broker, Logger: logger})
		if err != nil {
			logger.Printf("mqtt disabled: %v", err)
		} else {
			defer p.Close()
			publisher, mqttStatus = p, p
			outputs.Announcer = p
			outputs.Notifier = p
			outputs.Events = p
		}
	}

	var sampler *ambient.Sampler
	if cfg.SoundPin >= 0 {
		pin := cfg.SoundPin
		sampler = ambient.NewSampler(func() (gpio.SoundSensor, error) {
			return gpio.NewRealSensor(pin)
		}, ambient.Options{Logger: logger})
	}

	serializer := cues.NewSerializer(cues.SerializerOptions{Gap: cfg.CueGap, Logger: logger})
	defer serializer.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		CueGapMs:    cfg.CueGap.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPPort:    cfg.HTTPAddr,
	})

	d := newDaemon(daemonOptions{
		Timer:      engine.NewTimer(engine.Options{Logger: logger}),
		Protection: engine.NewProtection(engine.Options{Logger: logger}),
		ProtCfg:    cfg.Protection,
		Outputs:    outputs,
		Runner:     serializer,
		Tracker:    tracker,
		MQTTStatus: mqttStatus,
		Sampler:    sampler,
		Logger:     logger,
	})
	defer d.shutdown()

	if selected != nil {
		if err := d.timer.Start(*selected); err != nil {
			return fmt.Errorf("start workout: %w", err)
		}
		if err := db.SetLastWorkout(ctx, selected.ID); err != nil {
			logger.Printf("remember last workout: %v", err)
		}
	}
	if cfg.StartProtection {
		if err := d.StartProtection(); err != nil {
			return fmt.Errorf("start protection: %w", err)
		}
	}

	workoutTicker := time.NewTicker(cfg.Poll)
	defer workoutTicker.Stop()
	protectionTicker := time.NewTicker(cfg.Poll)
	defer protectionTicker.Stop()
	d.workoutSched.PollNow()
	d.protectionSched.PollNow()
	go d.workoutSched.Run(ctx, workoutTicker.C)
	go d.protectionSched.Run(ctx, protectionTicker.C)

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			logger.Printf("failed to publish startup event: %v", err)
		} else {
			logger.Printf("published startup event")
		}
	}

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, d)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGCONT)
	defer signal.Stop(sigCh)

	if cfg.TUI {
		p := tea.NewProgram(tui.NewModel(tracker, d), tea.WithAltScreen())
		go refreshTUI(ctx, p, cfg.Poll)
		go func() {
			if _, err := p.Run(); err != nil {
				logger.Printf("tui error: %v", err)
			}
			// Closing the readout shuts the daemon down.
			select {
			case sigCh <- syscall.SIGINT:
			default:
			}
		}()
		defer p.Quit()
	}

	logger.Printf("started: poll=%v cue-gap=%v broker=%s heartbeat=%v", cfg.Poll, cfg.CueGap, cfg.Broker, cfg.Heartbeat)

	var heartbeat <-chan time.Time
	if cfg.Heartbeat > 0 {
		hb := time.NewTicker(cfg.Heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	return runLoop(publisher, mqttStatus, tracker, d.foreground, time.Now, heartbeat, sigCh, logger)
}

func runLoop(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, foreground func(), now func() time.Time, heartbeat <-chan time.Time, sig <-chan os.Signal, logger *log.Logger) error {
	for {
		select {
		case s := <-sig:
			if s == syscall.SIGCONT {
				logger.Printf("resumed, catching up")
				foreground()
				continue
			}

			logger.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher == nil {
				return nil
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				logger.Printf("failed to publish shutdown event: %v", err)
			} else {
				logger.Printf("published shutdown event")
			}
			return nil

		case t := <-heartbeat:
			if publisher == nil {
				continue
			}
			hbEvent := mqtt.SystemEvent{
				Timestamp: t,
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				logger.Printf("heartbeat: uptime=%v running=%v protection=%v",
					snap.Uptime().Round(time.Second), snap.Timer.Running, snap.Protection.Active)
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				logger.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

// importWorkouts stores every workout in a YAML file. A stored workout with
// the same name is replaced, so importing the same file twice is harmless.
func importWorkouts(ctx context.Context, db *store.Store, path string) (int, error) {
	workouts, err := workout.LoadFile(path)
	if err != nil {
		return 0, err
	}
	for _, w := range workouts {
		existing, err := db.FindWorkout(ctx, w.Name)
		switch {
		case err == nil:
			w.ID = existing.ID
		case !errors.Is(err, store.ErrNotFound):
			return 0, err
		}
		if err := db.SaveWorkout(ctx, w); err != nil {
			return 0, fmt.Errorf("import %q: %w", w.Name, err)
		}
	}
	return len(workouts), nil
}

// selectWorkout resolves ref to a stored workout. "last" picks the most
// recently started one.
func selectWorkout(ctx context.Context, db *store.Store, ref string) (workout.Workout, error) {
	if ref == "last" {
		return db.LastWorkout(ctx)
	}
	return db.FindWorkout(ctx, ref)
}

// openBuzzer returns nil when the buzzer is disabled or unavailable.
func openBuzzer(pin int, logger *log.Logger) gpio.Buzzer {
	if pin < 0 {
		return nil
	}
	b, err := gpio.NewRealBuzzer(pin)
	if err != nil {
		logger.Printf("buzzer disabled: %v", err)
		return nil
	}
	return b
}

func refreshTUI(ctx context.Context, p *tea.Program, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Send(tui.MsgTick{})
		}
	}
}
