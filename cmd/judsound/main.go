// Command judsound runs the music box: it reads the buttons and the rotary
// encoder, plays music and voice cues, rings alarms and publishes what it
// does to MQTT and an HTTP status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
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
	"github.com/sweeney/judsound-box/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Config file (default "+config.DefaultPath()+")")
	httpAddr := flag.String("http", "", `HTTP status address, overrides http.addr ("off" disables)`)
	broker := flag.String("broker", "", `MQTT broker address, overrides mqtt.broker ("off" disables)`)
	logLevel := flag.String("log-level", "", "Log level: error, warn, info, debug (overrides logging.level)")
	printConfig := flag.Bool("print-config", false, "Print the effective configuration and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	if err := applyFlags(cfg, *httpAddr, *broker, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	if *printConfig {
		data, err := cfg.Dump()
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}

	level, _ := parseLogLevel(cfg.Logging.Level)
	logger := setupLogger(os.Stdout, level)
	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// applyFlags overrides file settings with the flags that were given.
func applyFlags(cfg *config.Config, httpAddr, broker, logLevel string) error {
	switch httpAddr {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = httpAddr
	}
	switch broker {
	case "":
	case "off":
		cfg.MQTT.Broker = ""
	default:
		cfg.MQTT.Broker = broker
	}
	if logLevel != "" {
		level, err := parseLogLevel(logLevel)
		if err != nil {
			return err
		}
		cfg.Logging.Level = string(level)
	}
	return nil
}

// publisher is what the daemon needs from the MQTT side.
type publisher interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

func newPublisher(cfg config.MQTTConfig, logger *slog.Logger) publisher {
	if cfg.Broker == "" {
		logger.Info("mqtt disabled")
		return mqtt.NopPublisher{}
	}
	return mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID, logger.With("component", "mqtt"))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	cycle, err := cfg.ModeCycle()
	if err != nil {
		return err
	}
	catalog, err := audio.NewCatalog(cfg.Paths.System, cfg.Cues)
	if err != nil {
		return fmt.Errorf("load cues: %w", err)
	}
	nightTracks, err := audio.ListTracks(cfg.Paths.MusicNight)
	if err != nil {
		return fmt.Errorf("night playlist: %w", err)
	}
	dayTracks, err := audio.ListTracks(cfg.Paths.MusicDay)
	if err != nil {
		return fmt.Errorf("day playlist: %w", err)
	}

	// Initialize GPIO
	source, err := gpio.NewRealSource(cfg.GPIO(), logger.With("component", "gpio"))
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer source.Close()

	timing := audio.Timing{Settle: cfg.Settle(), Poll: audio.DefaultTiming.Poll}
	nightPl := audio.NewPlaylist("night", audio.NewBeepDevice(0), nightTracks, timing, logger)
	dayPl := audio.NewPlaylist("day", audio.NewBeepDevice(0), dayTracks, timing, logger)
	sysPl := audio.NewSystem("system", audio.NewBeepDevice(0), catalog, timing, logger)
	logger.Info("playlists loaded", "night", nightPl.Tracks(), "day", dayPl.Tracks())

	levels, err := volume.NewController(cfg.VolumeSettings(), sysPl, source, logger.With("component", "volume"), nightPl, dayPl)
	if err != nil {
		return fmt.Errorf("init volume: %w", err)
	}
	speaker := voice.New(sysPl, levels.System, cfg.Volume.HoursOffset, logger)

	// Initialize MQTT
	pub := newPublisher(cfg.MQTT, logger)
	defer pub.Close()

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
		Editor:   alarm.NewEditor(speaker, logger),
		Store:    alarm.NewStore(cfg.Paths.Alarms, speaker, cfg.Volume.Alarm, logger),
		Notifier: pub,
	}, logger)
	if err != nil {
		return err
	}
	if err := b.Start(time.Now()); err != nil {
		return err
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Modes:        cfg.Modes,
		TickSec:      cfg.Timing.TickSec,
		HeartbeatSec: cfg.Timing.HeartbeatSec,
		HoldMs:       cfg.Timing.HoldMs,
		Broker:       cfg.MQTT.Broker,
		HTTPAddr:     cfg.HTTP.Addr,
		AlarmFile:    cfg.Paths.Alarms,
	})
	tracker.Update(b.State())
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := pub.PublishSystem(startup); err != nil {
		logger.Warn("failed to publish startup event", "err", err)
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, logger.With("component", "http"))
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	logger.Info("started", "mode", b.Mode(), "tick", cfg.Tick(), "heartbeat", cfg.Heartbeat(), "broker", cfg.MQTT.Broker)

	ticker := time.NewTicker(cfg.Tick())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loop{
		box:       b,
		events:    source.Events(),
		publisher: pub,
		mqtt:      pub,
		tracker:   tracker,
		heartbeat: cfg.Heartbeat(),
		now:       time.Now,
		logger:    logger,
	}, ticker.C, sigCh)
}

// loop holds what runLoop reads and drives.
type loop struct {
	box       *box.Box
	events    <-chan logic.ButtonEvent
	publisher mqtt.Publisher
	mqtt      mqtt.ConnectionStatus // optional
	tracker   *status.Tracker       // optional
	heartbeat time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func runLoop(l loop, tick <-chan time.Time, sig <-chan os.Signal) error {
	hb := logic.NewHeartbeat(l.now())

	for {
		select {
		case s := <-sig:
			l.logger.Info("shutting down", "signal", s)
			reason := signalName(s)
			event := mqtt.SystemEvent{
				Timestamp: l.now(),
				Event:     "SHUTDOWN",
				Reason:    reason,
				Retained:  true,
			}
			if l.tracker != nil {
				l.refresh()
				event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", reason)
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				l.logger.Warn("failed to publish shutdown event", "err", err)
			}
			return nil

		case ev, ok := <-l.events:
			if !ok {
				return fmt.Errorf("input source closed")
			}
			l.box.HandleEvent(ev)
			l.refresh()

		case <-tick:
			t := l.now()
			l.box.Tick(t)

			if hbData := hb.Check(t, l.heartbeat, l.box.Counts()); hbData != nil {
				c := hbData.Counts
				l.logger.Info("heartbeat", "uptime", hbData.Uptime, "presses", c.Presses,
					"alarms_fired", c.AlarmsFired, "audio_errors", c.AudioErrors)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if l.tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						l.tracker.SetNetwork(net)
					}
					l.refresh()
					hbEvent.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := l.publisher.PublishSystem(hbEvent); err != nil {
					l.logger.Warn("heartbeat publish error", "err", err)
				}
			}
			l.refresh()
		}
	}
}

// refresh copies the box state into the tracker for HTTP consumers.
func (l loop) refresh() {
	if l.tracker == nil {
		return
	}
	l.tracker.Update(l.box.State())
	if l.mqtt != nil {
		l.tracker.SetMQTTConnected(l.mqtt.IsConnected())
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
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
