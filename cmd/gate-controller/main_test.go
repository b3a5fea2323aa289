package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/gate-controller/internal/gpio"
	"github.com/sweeney/gate-controller/internal/logic"
	"github.com/sweeney/gate-controller/internal/mqtt"
	"github.com/sweeney/gate-controller/internal/status"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants, not the other way around.
func TestEnvVarNames(t *testing.T) {
	// These are the canonical names from pi-helper.
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}

	want := status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}
	if *info != want {
		t.Errorf("NetworkInfo: got %+v, want %+v", *info, want)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	info := readNetworkInfo()
	if info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}

	if info.Status != "connected" {
		t.Errorf("Status: got %q, want %q", info.Status, "connected")
	}
	if info.Type != "" || info.IP != "" || info.Gateway != "" || info.WifiStatus != "" || info.SSID != "" {
		t.Errorf("expected other fields empty, got %+v", info)
	}
}

func TestFormatInputs(t *testing.T) {
	got := formatInputs(logic.Inputs{CloseLimit: true, StopButton: true})

	for _, want := range []string{
		"stop-button: ACTIVE\n",
		"close-limit: ACTIVE\n",
		"open-limit: -\n",
		"startup state: CLOSED\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output:\n%s", want, got)
		}
	}
}

func TestFormatInputsBothLimits(t *testing.T) {
	got := formatInputs(logic.Inputs{OpenLimit: true, CloseLimit: true})
	if !strings.HasSuffix(got, "startup state: ERROR\n") {
		t.Errorf("expected ERROR startup state, got:\n%s", got)
	}
}

func TestNewPublisherWithoutBroker(t *testing.T) {
	pub, err := newPublisher(mqtt.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := pub.(mqtt.Noop); !ok {
		t.Errorf("expected Noop publisher, got %T", pub)
	}
}

func TestRunTimerTicks(t *testing.T) {
	timer := logic.NewAutoCloseTimer()
	timer.Arm()

	tick := make(chan time.Time)
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		runTimerTicks(done, tick, timer)
		close(exited)
	}()

	for i := 0; i < 3; i++ {
		tick <- time.Time{}
	}
	close(done)
	<-exited

	got := timer.State()
	if !got.Active || got.Remaining != logic.AutoCloseSeconds-3 {
		t.Errorf("timer: got %+v, want active with %d remaining", got, logic.AutoCloseSeconds-3)
	}
}

func TestRunTimerTicksInactiveTimer(t *testing.T) {
	timer := logic.NewAutoCloseTimer()

	tick := make(chan time.Time)
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		runTimerTicks(done, tick, timer)
		close(exited)
	}()

	tick <- time.Time{}
	close(done)
	<-exited

	if got := timer.State(); got.Active || got.Remaining != 0 {
		t.Errorf("inactive timer should not count, got %+v", got)
	}
}

// --- runLoop tests ---

var (
	atClosed = logic.Inputs{CloseLimit: true}
	atOpen   = logic.Inputs{OpenLimit: true}
	between  = logic.Inputs{}
)

var loopStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// repeat returns n copies of sample.
func repeat(sample logic.Inputs, n int) []logic.Inputs {
	out := make([]logic.Inputs, n)
	for i := range out {
		out[i] = sample
	}
	return out
}

func concat(parts ...[]logic.Inputs) []logic.Inputs {
	var out []logic.Inputs
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// faultReader wraps a FakeReader and returns errors for a range of Read() calls.
// The fault range is fixed at construction.
type faultReader struct {
	inner      *gpio.FakeReader
	call       int
	faultStart int // first call index that returns error (inclusive)
	faultEnd   int // last call index that returns error (exclusive)
}

func (r *faultReader) Read() (logic.Inputs, error) {
	i := r.call
	r.call++
	if i >= r.faultStart && i < r.faultEnd {
		return logic.Inputs{}, errors.New("gpio fault")
	}
	return r.inner.Read()
}

func (r *faultReader) Close() error { return r.inner.Close() }

// loopHarness runs runLoop on its own goroutine with injected ticks and signal.
type loopHarness struct {
	reader  gpio.Reader
	writer  *gpio.FakeWriter
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	machine *logic.Machine

	tick  chan time.Time
	sig   chan os.Signal
	errCh chan error
}

func startLoop(t *testing.T, reader gpio.Reader, heartbeat time.Duration, clock func() time.Time) *loopHarness {
	t.Helper()
	h := &loopHarness{
		reader:  reader,
		writer:  gpio.NewFakeWriter(),
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(loopStart, status.Config{PeriodMs: 50, TickMs: 1000}),
		machine: logic.NewMachine(logic.NewAutoCloseTimer(), loopStart),
		tick:    make(chan time.Time),
		sig:     make(chan os.Signal, 1),
		errCh:   make(chan error, 1),
	}
	go func() {
		h.errCh <- runLoop(h.reader, h.writer, h.pub, h.pub, h.tracker, h.machine, heartbeat, clock, h.tick, h.sig)
	}()
	return h
}

// ticks sends n control ticks. Each send returns once runLoop has received
// it, so every tick before the last one has been fully processed.
func (h *loopHarness) ticks(n int) {
	for i := 0; i < n; i++ {
		h.tick <- time.Time{}
	}
}

func (h *loopHarness) stop(s os.Signal) error {
	h.sig <- s
	return <-h.errCh
}

// runRunLoop drives runLoop through nTicks and then delivers signal.
func runRunLoop(t *testing.T, reader gpio.Reader, heartbeat time.Duration, clock func() time.Time, nTicks int, signal os.Signal) *loopHarness {
	t.Helper()
	h := startLoop(t, reader, heartbeat, clock)
	h.ticks(nTicks)
	if err := h.stop(signal); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	return h
}

func equalStates(a, b []logic.State) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRunLoopStartupResolvesClosed(t *testing.T) {
	samples := repeat(atClosed, 3)
	clock := fakeClock(loopStart, 50*time.Millisecond)

	h := runRunLoop(t, gpio.NewFakeReader(samples), 0, clock, len(samples), syscall.SIGTERM)

	if len(h.pub.Events) != 1 {
		t.Fatalf("expected 1 gate event, got %d", len(h.pub.Events))
	}
	e := h.pub.Events[0]
	if e.From != logic.StateInit || e.To != logic.StateClosed || e.Reason != logic.ReasonCloseLimit {
		t.Errorf("unexpected event: %+v", e)
	}

	// One write per cycle plus the all-off write on shutdown
	if len(h.writer.Writes) != len(samples)+1 {
		t.Errorf("expected %d writes, got %d", len(samples)+1, len(h.writer.Writes))
	}
}

func TestRunLoopOpenCycle(t *testing.T) {
	samples := concat(
		repeat(atClosed, 2),
		[]logic.Inputs{{CloseLimit: true, OpenButton: true}},
		repeat(between, 3),
		repeat(atOpen, 2),
	)
	clock := fakeClock(loopStart, 50*time.Millisecond)

	h := runRunLoop(t, gpio.NewFakeReader(samples), 0, clock, len(samples), syscall.SIGTERM)

	want := []logic.State{logic.StateClosed, logic.StateOpening, logic.StateOpen}
	if got := h.pub.States(); !equalStates(got, want) {
		t.Fatalf("transitions: got %v, want %v", got, want)
	}

	// Cycle 3 enters OPENING and drives the motor until the open limit
	for i := 2; i < 6; i++ {
		if w := h.writer.Writes[i]; !w.MotorOpen || w.MotorClose {
			t.Errorf("write %d: expected motor open only, got %+v", i, w)
		}
	}
	if w := h.writer.Writes[6]; w != (logic.Outputs{Buzzer: true, Lamp: true}) {
		t.Errorf("OPEN outputs: got %+v", w)
	}
}

func TestRunLoopAutoClose(t *testing.T) {
	reader := gpio.NewFakeReader([]logic.Inputs{atOpen})
	clock := fakeClock(loopStart, 50*time.Millisecond)
	h := startLoop(t, reader, 0, clock)

	// Second tick guarantees the OPEN entry (and its arm) has been committed
	h.ticks(2)
	for i := 0; i < logic.AutoCloseSeconds; i++ {
		h.machine.Timer().Tick()
	}
	h.ticks(2)

	if err := h.stop(syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	want := []logic.State{logic.StateOpen, logic.StateClosing}
	if got := h.pub.States(); !equalStates(got, want) {
		t.Fatalf("transitions: got %v, want %v", got, want)
	}
	if r := h.pub.Events[1].Reason; r != logic.ReasonTimeout {
		t.Errorf("expected timeout reason, got %s", r)
	}
	if h.machine.Timer().State().Active {
		t.Error("timer should be disarmed after auto-close")
	}
	if n := h.tracker.Snapshot().Counts.AutoCloses; n != 1 {
		t.Errorf("expected 1 auto-close, got %d", n)
	}
}

func TestRunLoopResetLogsLines(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	samples := concat(
		repeat(logic.Inputs{OpenLimit: true, CloseLimit: true}, 2),
		[]logic.Inputs{{OpenLimit: true, CloseLimit: true, ResetButton: true}},
		repeat(atClosed, 2),
	)
	clock := fakeClock(loopStart, 50*time.Millisecond)

	h := runRunLoop(t, gpio.NewFakeReader(samples), 0, clock, len(samples), syscall.SIGTERM)

	want := []logic.State{logic.StateError, logic.StateClosing, logic.StateClosed}
	if got := h.pub.States(); !equalStates(got, want) {
		t.Fatalf("transitions: got %v, want %v", got, want)
	}

	out := buf.String()
	iReset := strings.Index(out, "state: RESET")
	iClosing := strings.Index(out, "state: CLOSING")
	if iReset < 0 || iClosing < 0 || iReset > iClosing {
		t.Errorf("expected RESET then CLOSING diagnostic lines, got:\n%s", out)
	}
	if !strings.Contains(out, "state: ERROR") {
		t.Errorf("expected ERROR diagnostic line, got:\n%s", out)
	}
}

func TestRunLoopNoEventWithoutStateChange(t *testing.T) {
	samples := repeat(atClosed, 10)
	clock := fakeClock(loopStart, 50*time.Millisecond)

	h := runRunLoop(t, gpio.NewFakeReader(samples), 0, clock, len(samples), syscall.SIGTERM)

	if len(h.pub.Events) != 1 {
		t.Errorf("expected only the startup transition, got %d events", len(h.pub.Events))
	}
}

func TestRunLoopMotorsNeverBothOn(t *testing.T) {
	samples := concat(
		repeat(between, 2),
		repeat(logic.Inputs{OpenButton: true}, 2),
		repeat(logic.Inputs{OpenButton: true, CloseButton: true}, 3),
		repeat(logic.Inputs{CloseButton: true}, 2),
		repeat(between, 2),
		repeat(atClosed, 2),
	)
	clock := fakeClock(loopStart, 50*time.Millisecond)

	h := runRunLoop(t, gpio.NewFakeReader(samples), 0, clock, len(samples), syscall.SIGTERM)

	for i, w := range h.writer.Writes {
		if w.MotorOpen && w.MotorClose {
			t.Errorf("write %d drives both motors: %+v", i, w)
		}
	}
}

func TestRunLoopGPIOReadError(t *testing.T) {
	// 2 valid reads then 2 faults. Loop should continue past errors
	// and still publish SHUTDOWN.
	inner := gpio.NewFakeReader(repeat(atClosed, 2))
	reader := &faultReader{
		inner:      inner,
		faultStart: 2, // calls 2,3 return error
		faultEnd:   4,
	}
	clock := fakeClock(loopStart, 50*time.Millisecond)

	h := runRunLoop(t, reader, 0, clock, 4, syscall.SIGTERM)

	// Faulted cycles are skipped entirely: no outputs written
	if len(h.writer.Writes) != 3 {
		t.Errorf("expected 2 cycle writes plus shutdown, got %d", len(h.writer.Writes))
	}

	found := false
	for _, se := range h.pub.SystemEvents {
		if se.Event == "SHUTDOWN" {
			found = true
		}
	}
	if !found {
		t.Error("expected SHUTDOWN system event after GPIO errors")
	}
}

func TestRunLoopGPIOErrorRecovery(t *testing.T) {
	// Settle in CLOSED, inject GPIO errors, then press open.
	// Verifies the loop recovers normally.
	inner := gpio.NewFakeReader(concat(
		repeat(atClosed, 2),
		repeat(logic.Inputs{CloseLimit: true, OpenButton: true}, 1),
		repeat(between, 2),
	))
	reader := &faultReader{
		inner:      inner,
		faultStart: 2, // calls 2,3,4 return error
		faultEnd:   5,
	}
	clock := fakeClock(loopStart, 50*time.Millisecond)

	// 2 settled + 3 errors + 3 recovery = 8 ticks
	h := runRunLoop(t, reader, 0, clock, 8, syscall.SIGTERM)

	want := []logic.State{logic.StateClosed, logic.StateOpening}
	if got := h.pub.States(); !equalStates(got, want) {
		t.Fatalf("transitions: got %v, want %v", got, want)
	}
}

func TestRunLoopWriteErrorDoesNotStopLoop(t *testing.T) {
	reader := gpio.NewFakeReader(repeat(atOpen, 3))
	clock := fakeClock(loopStart, 50*time.Millisecond)
	h := startLoop(t, reader, 0, clock)
	h.writer.WriteError = errors.New("line busy")

	h.ticks(3)
	if err := h.stop(syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(h.pub.Events) != 1 || h.pub.Events[0].To != logic.StateOpen {
		t.Errorf("expected OPEN transition despite write errors, got %v", h.pub.States())
	}
	if len(h.pub.SystemEvents) != 1 {
		t.Errorf("expected SHUTDOWN despite write errors, got %d system events", len(h.pub.SystemEvents))
	}
}

func TestRunLoopPublishError(t *testing.T) {
	// A transition occurs but Publish returns an error; the loop continues.
	samples := concat(repeat(atClosed, 2), repeat(logic.Inputs{CloseLimit: true, OpenButton: true}, 1), repeat(between, 1))
	clock := fakeClock(loopStart, 50*time.Millisecond)
	h := startLoop(t, gpio.NewFakeReader(samples), 0, clock)
	h.pub.PublishError = fmt.Errorf("broker unavailable")

	h.ticks(len(samples))
	if err := h.stop(syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	// Gate events are not recorded (PublishError causes Publish to return error
	// without recording), but SHUTDOWN is still published via PublishSystem.
	if len(h.pub.Events) != 0 {
		t.Errorf("expected 0 recorded events (publish failed), got %d", len(h.pub.Events))
	}
	if h.machine.State() != logic.StateOpening {
		t.Errorf("expected OPENING despite publish failure, got %s", h.machine.State())
	}

	found := false
	for _, se := range h.pub.SystemEvents {
		if se.Event == "SHUTDOWN" {
			found = true
		}
	}
	if !found {
		t.Error("expected SHUTDOWN system event despite publish errors")
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	samples := repeat(atClosed, 4)
	clock := fakeClock(loopStart, 50*time.Millisecond)

	h := runRunLoop(t, gpio.NewFakeReader(samples), 0, clock, len(samples), syscall.SIGINT)

	if len(h.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
	}
	se := h.pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN, got %q", se.Event)
	}
	if se.Reason != "SIGINT" {
		t.Errorf("expected reason SIGINT, got %q", se.Reason)
	}
	if se.Retained != true {
		t.Error("expected Retained=true for SHUTDOWN")
	}
}

func TestRunLoopShutdownSIGTERM(t *testing.T) {
	samples := concat(repeat(atClosed, 2), repeat(logic.Inputs{CloseLimit: true, OpenButton: true}, 1), repeat(between, 2))
	clock := fakeClock(loopStart, 50*time.Millisecond)

	h := runRunLoop(t, gpio.NewFakeReader(samples), 0, clock, len(samples), syscall.SIGTERM)

	if len(h.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
	}
	se := h.pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" || se.Reason != "SIGTERM" || !se.Retained {
		t.Errorf("unexpected shutdown event: %+v", se)
	}

	// Motor was running; shutdown must leave everything off
	if last := h.writer.Last(); last != (logic.Outputs{}) {
		t.Errorf("expected all outputs off after shutdown, got %+v", last)
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(se.RawPayload, &parsed); err != nil {
		t.Fatalf("invalid shutdown payload: %v", err)
	}
	if parsed.Status.State != "OPENING" {
		t.Errorf("shutdown state: got %q, want OPENING", parsed.Status.State)
	}
	if parsed.Status.Outputs.MotorOpen {
		t.Error("shutdown payload should report outputs off")
	}
}

func TestRunLoopUpdatesTracker(t *testing.T) {
	// The reader repeats the open-button sample once OPENING, still on the
	// close limit, which is a limit fault.
	samples := concat(repeat(atClosed, 2), repeat(logic.Inputs{CloseLimit: true, OpenButton: true}, 1))
	clock := fakeClock(loopStart, 50*time.Millisecond)
	h := startLoop(t, gpio.NewFakeReader(samples), 0, clock)
	h.pub.Connected = true

	h.ticks(len(samples) + 1)
	if err := h.stop(syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	snap := h.tracker.Snapshot()
	if snap.State != logic.StateError {
		t.Errorf("State: got %s, want ERROR", snap.State)
	}
	if !snap.Inputs.CloseLimit || !snap.Inputs.OpenButton {
		t.Errorf("Inputs: got %+v", snap.Inputs)
	}
	if snap.LastEvent == nil || snap.LastEvent.Reason != logic.ReasonLimitFault {
		t.Errorf("LastEvent: got %+v", snap.LastEvent)
	}
	if snap.Counts.Transitions != 3 || snap.Counts.Faults != 1 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected from publisher status")
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	// Clock calls are t0 (tick 1), t0+5m, t0+10m, t0+15m (tick 4).
	// The machine starts at t0, so the 15 minute heartbeat fires on tick 4.
	step := 5 * time.Minute
	heartbeatInterval := 15 * time.Minute
	samples := repeat(atClosed, 4)
	clock := fakeClock(loopStart, step)

	h := runRunLoop(t, gpio.NewFakeReader(samples), heartbeatInterval, clock, len(samples), syscall.SIGTERM)

	// Should have HEARTBEAT and SHUTDOWN system events
	var heartbeats, shutdowns int
	for _, se := range h.pub.SystemEvents {
		switch se.Event {
		case "HEARTBEAT":
			heartbeats++
			var parsed status.StatusJSON
			if err := json.Unmarshal(se.RawPayload, &parsed); err != nil {
				t.Fatalf("invalid heartbeat payload: %v", err)
			}
			if parsed.Status.Event != "HEARTBEAT" {
				t.Errorf("payload event: got %q", parsed.Status.Event)
			}
			if parsed.Status.State != "CLOSED" {
				t.Errorf("payload state: got %q, want CLOSED", parsed.Status.State)
			}
			if !se.Timestamp.Equal(loopStart.Add(15 * time.Minute)) {
				t.Errorf("heartbeat timestamp: got %v", se.Timestamp)
			}
		case "SHUTDOWN":
			shutdowns++
		}
	}
	if heartbeats != 1 {
		t.Errorf("expected 1 HEARTBEAT event, got %d", heartbeats)
	}
	if shutdowns != 1 {
		t.Errorf("expected 1 SHUTDOWN event, got %d", shutdowns)
	}
}

func TestRunLoopHeartbeatDisabled(t *testing.T) {
	samples := repeat(atClosed, 6)
	clock := fakeClock(loopStart, time.Hour)

	h := runRunLoop(t, gpio.NewFakeReader(samples), 0, clock, len(samples), syscall.SIGTERM)

	for _, se := range h.pub.SystemEvents {
		if se.Event == "HEARTBEAT" {
			t.Fatal("heartbeat published while disabled")
		}
	}
}

func TestRunLoopHeartbeatIncludesNetworkInfo(t *testing.T) {
	// Set network env vars so readNetworkInfo() returns data, then trigger
	// a heartbeat and verify the system event carries the network info through.
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.42")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "associated")
	t.Setenv(envNetworkWifiSSID, "HomeNet")

	samples := repeat(atClosed, 4)
	clock := fakeClock(loopStart, 5*time.Minute)

	h := runRunLoop(t, gpio.NewFakeReader(samples), 15*time.Minute, clock, len(samples), syscall.SIGTERM)

	// Find the HEARTBEAT event
	var hb *mqtt.SystemEvent
	for i := range h.pub.SystemEvents {
		if h.pub.SystemEvents[i].Event == "HEARTBEAT" {
			hb = &h.pub.SystemEvents[i]
			break
		}
	}
	if hb == nil {
		t.Fatal("expected a HEARTBEAT system event")
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(hb.RawPayload, &parsed); err != nil {
		t.Fatalf("invalid heartbeat payload: %v", err)
	}
	n := parsed.Status.Network
	if n == nil {
		t.Fatal("HEARTBEAT event missing Network info")
	}
	if n.Status != "connected" {
		t.Errorf("Network.Status: got %q, want %q", n.Status, "connected")
	}
	if n.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", n.IP, "192.168.1.42")
	}
	if n.SSID != "HomeNet" {
		t.Errorf("Network.SSID: got %q, want %q", n.SSID, "HomeNet")
	}
}
