// Command gate-controller drives a motorised gate from buttons and limit
// switches and publishes its state transitions to MQTT.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/gate-controller/internal/gpio"
	"github.com/sweeney/gate-controller/internal/logic"
	"github.com/sweeney/gate-controller/internal/mqtt"
	"github.com/sweeney/gate-controller/internal/status"
	"github.com/sweeney/gate-controller/internal/web"
)

func main() {
	cfg, opts, err := parseConfig(os.Args[0], os.Args[1:])
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// publisher is what the daemon needs from an MQTT backend.
type publisher interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

func newPublisher(cfg mqtt.Config) (publisher, error) {
	if cfg.Broker == "" {
		log.Printf("mqtt disabled: no broker configured")
		return mqtt.Noop{}, nil
	}
	return mqtt.NewRealPublisher(cfg)
}

func run(cfg Config, opts options) error {
	// Initialize GPIO inputs
	reader, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.GPIO.Pins)
	if err != nil {
		return fmt.Errorf("init gpio inputs: %w", err)
	}
	defer reader.Close()

	// Print state mode
	if opts.printState {
		in, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Print(formatInputs(in))
		return nil
	}

	// Outputs start low until the first control cycle commits a state
	writer, err := gpio.NewRealWriter(cfg.GPIO.Chip, cfg.GPIO.Pins)
	if err != nil {
		return fmt.Errorf("init gpio outputs: %w", err)
	}
	defer writer.Close()

	// Initialize MQTT
	pub, err := newPublisher(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer pub.Close()

	startTime := time.Now()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(startTime, status.Config{
		PeriodMs:    cfg.Period.Milliseconds(),
		TickMs:      cfg.Tick.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Chip:        cfg.GPIO.Chip,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTPAddr,
	})
	tracker.SetMQTTConnected(pub.IsConnected())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := pub.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: chip=%s period=%v tick=%v broker=%q heartbeat=%v", cfg.GPIO.Chip, cfg.Period, cfg.Tick, cfg.MQTT.Broker, cfg.Heartbeat)

	machine := logic.NewMachine(logic.NewAutoCloseTimer(), startTime)

	// Auto-close countdown runs on its own goroutine
	timerTicker := time.NewTicker(cfg.Tick)
	defer timerTicker.Stop()
	done := make(chan struct{})
	defer close(done)
	go runTimerTicks(done, timerTicker.C, machine.Timer())

	ticker := time.NewTicker(cfg.Period)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, writer, pub, pub, tracker, machine, cfg.Heartbeat, time.Now, ticker.C, sigCh)
}

// runTimerTicks decrements the auto-close timer once per tick until done is closed.
func runTimerTicks(done <-chan struct{}, tick <-chan time.Time, timer *logic.AutoCloseTimer) {
	for {
		select {
		case <-done:
			return
		case <-tick:
			timer.Tick()
		}
	}
}

func runLoop(reader gpio.Reader, writer gpio.Writer, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, machine *logic.Machine, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	var lastIn logic.Inputs

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			if err := writer.Write(logic.Outputs{}); err != nil {
				log.Printf("gpio write error on shutdown: %v", err)
			}

			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
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
				tracker.Update(machine.State(), lastIn, logic.Outputs{}, machine.Timer().State(), machine.Counts())
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			in, err := reader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}
			lastIn = in

			out, event := machine.Step(in, t)
			if err := writer.Write(out); err != nil {
				log.Printf("gpio write error: %v", err)
			}

			if event != nil {
				for _, line := range logic.Lines(*event) {
					log.Printf("state: %s", line)
				}
				if err := publisher.Publish(*event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(machine.State(), in, out, machine.Timer().State(), machine.Counts())
				if event != nil {
					tracker.RecordEvent(*event)
				}
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if hbData := machine.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v state=%s transitions=%d faults=%d",
					hbData.Uptime, hbData.State, hbData.Counts.Transitions, hbData.Counts.Faults)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func activeString(on bool) string {
	if on {
		return "ACTIVE"
	}
	return "-"
}

// formatInputs renders one input sample and the state INIT would resolve it to.
func formatInputs(in logic.Inputs) string {
	return fmt.Sprintf(
		"open-button: %s\nclose-button: %s\nstop-button: %s\nemergency-button: %s\nreset-button: %s\nopen-limit: %s\nclose-limit: %s\nstartup state: %s\n",
		activeString(in.OpenButton),
		activeString(in.CloseButton),
		activeString(in.StopButton),
		activeString(in.EmergencyButton),
		activeString(in.ResetButton),
		activeString(in.OpenLimit),
		activeString(in.CloseLimit),
		logic.Label(logic.Evaluate(logic.StateInit, in, nil).Next),
	)
}
