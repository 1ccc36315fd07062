package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/judsound-box/internal/alarm"
	"github.com/sweeney/judsound-box/internal/audio"
	"github.com/sweeney/judsound-box/internal/box"
	"github.com/sweeney/judsound-box/internal/config"
	"github.com/sweeney/judsound-box/internal/gpio"
	"github.com/sweeney/judsound-box/internal/logic"
	"github.com/sweeney/judsound-box/internal/mqtt"
	"github.com/sweeney/judsound-box/internal/status"
	"github.com/sweeney/judsound-box/internal/voice"
	"github.com/sweeney/judsound-box/internal/volume"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env.
func TestEnvVarNames(t *testing.T) {
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

func TestReadNetworkInfo(t *testing.T) {
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}

	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	if info.IP != "192.168.1.100" {
		t.Errorf("IP: got %q, want 192.168.1.100", info.IP)
	}
	if info.SSID != "MyNetwork" {
		t.Errorf("SSID: got %q, want MyNetwork", info.SSID)
	}
	if info.Gateway != "" {
		t.Errorf("Gateway: got %q, want empty", info.Gateway)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LogLevelDebug, true},
		{"WARNING", LogLevelWarn, true},
		{"", LogLevelInfo, true},
		{"error", LogLevelError, true},
		{"loud", "", false},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("parseLogLevel(%q): err=%v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetupLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, LogLevelWarn)
	logger.Info("quiet")
	logger.Warn("loud")
	if strings.Contains(buf.String(), "quiet") {
		t.Error("info line written at warn level")
	}
	if !strings.Contains(buf.String(), "loud") {
		t.Error("warn line missing")
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	cfg.MQTT.Broker = "tcp://box:1883"

	if err := applyFlags(cfg, "off", "", "DEBUG"); err != nil {
		t.Fatalf("applyFlags: %v", err)
	}
	if cfg.HTTP.Addr != "" {
		t.Errorf("HTTP.Addr: got %q, want disabled", cfg.HTTP.Addr)
	}
	if cfg.MQTT.Broker != "tcp://box:1883" {
		t.Errorf("MQTT.Broker: got %q, want unchanged", cfg.MQTT.Broker)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want debug", cfg.Logging.Level)
	}

	if err := applyFlags(cfg, ":8080", "off", ""); err != nil {
		t.Fatalf("applyFlags: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.MQTT.Broker != "" {
		t.Errorf("got http=%q broker=%q", cfg.HTTP.Addr, cfg.MQTT.Broker)
	}

	if err := applyFlags(cfg, "", "", "loud"); err == nil {
		t.Error("expected error for bad log level")
	}
}

func TestNewPublisherDisabled(t *testing.T) {
	p := newPublisher(config.MQTTConfig{}, setupLogger(&bytes.Buffer{}, LogLevelInfo))
	if _, ok := p.(mqtt.NopPublisher); !ok {
		t.Errorf("empty broker: got %T, want mqtt.NopPublisher", p)
	}
}

func TestSignalName(t *testing.T) {
	if got := signalName(syscall.SIGINT); got != "SIGINT" {
		t.Errorf("SIGINT: got %q", got)
	}
	if got := signalName(syscall.SIGHUP); got != "UNKNOWN" {
		t.Errorf("SIGHUP: got %q, want UNKNOWN", got)
	}
}

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

// newTestBox builds a started box on fake audio devices. alarms is the
// initial content of the alarm file.
func newTestBox(t *testing.T, start time.Time, alarms string, pub box.Notifier) *box.Box {
	t.Helper()
	sysDir := t.TempDir()
	for _, c := range audio.AllCues() {
		if err := os.WriteFile(filepath.Join(sysDir, c.DefaultFile()), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	catalog, err := audio.NewCatalog(sysDir, nil)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	alarmFile := filepath.Join(t.TempDir(), "alarms")
	if alarms != "" {
		if err := os.WriteFile(alarmFile, []byte(alarms), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	sysDev := audio.NewFakeDevice()
	sysDev.AutoFinish = true
	timing := audio.Timing{Sleep: func(time.Duration) {}}
	tracks := []string{"a.mp3", "b.mp3", "c.mp3", "d.mp3"}
	nightPl := audio.NewPlaylist("night", audio.NewFakeDevice(), tracks, timing, nil)
	dayPl := audio.NewPlaylist("day", audio.NewFakeDevice(), tracks, timing, nil)
	sysPl := audio.NewSystem("system", sysDev, catalog, timing, nil)

	cfg := config.Default()
	cfg.Modes = config.DefaultModes
	levels, err := volume.NewController(cfg.VolumeSettings(), sysPl, gpio.NewFakeSource(nil), nil, nightPl, dayPl)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	speaker := voice.New(sysPl, levels.System, cfg.Volume.HoursOffset, nil)
	cycle, err := cfg.ModeCycle()
	if err != nil {
		t.Fatalf("ModeCycle: %v", err)
	}

	clock := start
	b, err := box.New(box.Config{
		Cycle:         cycle,
		DayStart:      cfg.DayNight.DayStart,
		NightStart:    cfg.DayNight.NightStart,
		StartupVolume: cfg.Volume.Startup,
	}, box.Deps{
		Night:    nightPl,
		Day:      dayPl,
		System:   sysPl,
		Volume:   levels,
		Speaker:  speaker,
		Editor:   alarm.NewEditor(speaker, nil),
		Store:    alarm.NewStore(alarmFile, speaker, cfg.Volume.Alarm, nil),
		Notifier: pub,
		Now:      func() time.Time { return clock },
	}, nil)
	if err != nil {
		t.Fatalf("box.New: %v", err)
	}
	if err := b.Start(start); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return b
}

type script struct {
	events []logic.ButtonEvent
	ticks  int
	signal os.Signal
}

// runScript drives runLoop: events first, then ticks, then the signal.
// Every send is unbuffered, so each step completes before the next starts.
func runScript(t *testing.T, l loop, s script) error {
	t.Helper()
	events := make(chan logic.ButtonEvent)
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	l.events = events
	if l.logger == nil {
		l.logger = setupLogger(&bytes.Buffer{}, LogLevelDebug)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(l, tick, sig)
	}()

	for _, ev := range s.events {
		events <- ev
	}
	for i := 0; i < s.ticks; i++ {
		tick <- time.Time{}
	}
	sig <- s.signal

	return <-errCh
}

var (
	lateNight = time.Date(2026, 1, 1, 22, 0, 0, 0, time.Local)
	dawn      = time.Date(2026, 1, 1, 6, 59, 0, 0, time.Local)
)

func TestRunLoopShutdownSIGTERM(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(lateNight, status.Config{})
	b := newTestBox(t, lateNight, "", pub)

	err := runScript(t, loop{
		box:       b,
		publisher: pub,
		mqtt:      pub,
		tracker:   tracker,
		now:       fakeClock(lateNight, time.Minute),
	}, script{signal: syscall.SIGTERM})
	if err != nil {
		t.Fatalf("runLoop: %v", err)
	}

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("system events: got %d, want 1", len(pub.SystemEvents))
	}
	ev := pub.SystemEvents[0]
	if ev.Event != "SHUTDOWN" || ev.Reason != "SIGTERM" || !ev.Retained {
		t.Errorf("shutdown event: got %+v", ev)
	}
	payload := string(ev.RawPayload)
	for _, want := range []string{`"event":"SHUTDOWN"`, `"reason":"SIGTERM"`, `"mode":"player_night"`} {
		if !strings.Contains(payload, want) {
			t.Errorf("payload missing %s: %s", want, payload)
		}
	}
}

func TestRunLoopShutdownSIGINTWithoutTracker(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	b := newTestBox(t, lateNight, "", pub)

	if err := runScript(t, loop{box: b, publisher: pub, now: time.Now}, script{signal: syscall.SIGINT}); err != nil {
		t.Fatalf("runLoop: %v", err)
	}
	if len(pub.SystemEvents) != 1 || pub.SystemEvents[0].Reason != "SIGINT" {
		t.Fatalf("system events: got %+v", pub.SystemEvents)
	}
	if pub.SystemEvents[0].RawPayload != nil {
		t.Error("no tracker, expected no status payload")
	}
}

func TestRunLoopEventsReachBox(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(lateNight, status.Config{})
	b := newTestBox(t, lateNight, "", pub)

	err := runScript(t, loop{
		box:       b,
		publisher: pub,
		mqtt:      pub,
		tracker:   tracker,
		now:       fakeClock(lateNight, time.Second),
	}, script{
		events: []logic.ButtonEvent{
			logic.HoldExceeded(logic.ModeButton),
			logic.Released(logic.ModeButton),
		},
		signal: syscall.SIGTERM,
	})
	if err != nil {
		t.Fatalf("runLoop: %v", err)
	}

	if b.Mode() != logic.ModeAlarmMenu {
		t.Errorf("mode: got %v, want alarm", b.Mode())
	}
	if got := pub.Types(); len(got) != 1 || got[0] != logic.NoticeModeChanged {
		t.Errorf("notices: got %v, want [MODE_CHANGED]", got)
	}
	snap := tracker.Snapshot()
	if !snap.Started || snap.Box.Mode != logic.ModeAlarmMenu {
		t.Errorf("tracker: got started=%v mode=%v", snap.Started, snap.Box.Mode)
	}
}

func TestRunLoopTickRingsAlarm(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	b := newTestBox(t, dawn, "0700\n1800\n", pub)

	// now(): loop start at 06:59, first tick at 07:00
	err := runScript(t, loop{
		box:       b,
		publisher: pub,
		now:       fakeClock(dawn, time.Minute),
	}, script{ticks: 1, signal: syscall.SIGTERM})
	if err != nil {
		t.Fatalf("runLoop: %v", err)
	}

	if got := pub.Types(); len(got) != 1 || got[0] != logic.NoticeAlarmFired {
		t.Fatalf("notices: got %v, want [ALARM_FIRED]", got)
	}
	if got := pub.Notices[0].Alarm; got == nil || got.Clock() != "07:00" {
		t.Errorf("fired alarm: got %v, want 07:00", got)
	}
	if alarms := b.State().Alarms; len(alarms) != 1 || alarms[0].Clock() != "18:00" {
		t.Errorf("remaining alarms: got %v, want [18:00]", alarms)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(lateNight, status.Config{HeartbeatSec: 60})
	b := newTestBox(t, lateNight, "", pub)

	err := runScript(t, loop{
		box:       b,
		publisher: pub,
		mqtt:      pub,
		tracker:   tracker,
		heartbeat: time.Minute,
		now:       fakeClock(lateNight, time.Minute),
	}, script{ticks: 2, signal: syscall.SIGTERM})
	if err != nil {
		t.Fatalf("runLoop: %v", err)
	}

	want := []string{"HEARTBEAT", "HEARTBEAT", "SHUTDOWN"}
	got := pub.SystemEventNames()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("system events: got %v, want %v", got, want)
	}
	if !strings.Contains(string(pub.SystemEvents[0].RawPayload), `"event":"HEARTBEAT"`) {
		t.Errorf("heartbeat payload: %s", pub.SystemEvents[0].RawPayload)
	}
}

func TestRunLoopHeartbeatDisabled(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	b := newTestBox(t, lateNight, "", pub)

	err := runScript(t, loop{
		box:       b,
		publisher: pub,
		now:       fakeClock(lateNight, time.Hour),
	}, script{ticks: 3, signal: syscall.SIGTERM})
	if err != nil {
		t.Fatalf("runLoop: %v", err)
	}
	if got := pub.SystemEventNames(); len(got) != 1 || got[0] != "SHUTDOWN" {
		t.Errorf("system events: got %v, want [SHUTDOWN]", got)
	}
}

func TestRunLoopHeartbeatIncludesNetworkInfo(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkIP, "10.0.0.7")

	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(lateNight, status.Config{})
	b := newTestBox(t, lateNight, "", pub)

	err := runScript(t, loop{
		box:       b,
		publisher: pub,
		tracker:   tracker,
		heartbeat: time.Minute,
		now:       fakeClock(lateNight, time.Minute),
	}, script{ticks: 1, signal: syscall.SIGTERM})
	if err != nil {
		t.Fatalf("runLoop: %v", err)
	}
	if !strings.Contains(string(pub.SystemEvents[0].RawPayload), `"ip":"10.0.0.7"`) {
		t.Errorf("heartbeat payload lacks network info: %s", pub.SystemEvents[0].RawPayload)
	}
}

func TestRunLoopPublishErrorDoesNotStop(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	b := newTestBox(t, lateNight, "", pub)
	pub.PublishError = os.ErrDeadlineExceeded

	err := runScript(t, loop{
		box:       b,
		publisher: pub,
		now:       time.Now,
	}, script{
		events: []logic.ButtonEvent{logic.HoldExceeded(logic.ModeButton)},
		signal: syscall.SIGTERM,
	})
	if err != nil {
		t.Fatalf("runLoop: %v", err)
	}
	if b.Mode() != logic.ModeAlarmMenu {
		t.Errorf("mode: got %v, want alarm", b.Mode())
	}
	if len(pub.SystemEvents) != 1 {
		t.Errorf("shutdown not published after notice errors")
	}
}

func TestRunLoopClosedSource(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	b := newTestBox(t, lateNight, "", pub)
	events := make(chan logic.ButtonEvent)
	close(events)

	err := runLoop(loop{
		box:       b,
		events:    events,
		publisher: pub,
		now:       time.Now,
		logger:    setupLogger(&bytes.Buffer{}, LogLevelInfo),
	}, nil, nil)
	if err == nil {
		t.Error("expected error when the input source closes")
	}
}
