package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"groundstation/internal/config"
	"groundstation/internal/link"
	"groundstation/internal/mirror"
	"groundstation/internal/render"
	"groundstation/internal/session"
	"groundstation/internal/telemetry"
	"groundstation/internal/ui"
)

func main() {
	var (
		configPath string
		port       string
		baud       int
		listPorts  bool
		headless   bool
		connect    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config (optional)")
	flag.StringVar(&port, "port", "", "Serial device (overrides config)")
	flag.IntVar(&baud, "baud", 0, "Baud rate (overrides config)")
	flag.BoolVar(&listPorts, "list-ports", false, "List candidate serial ports and exit")
	flag.BoolVar(&headless, "headless", false, "Run without the terminal dashboard")
	flag.BoolVar(&connect, "connect", false, "Connect on startup")
	flag.Parse()

	if listPorts {
		ports := link.ListPorts()
		if len(ports) == 0 {
			fmt.Println("no serial ports found")
			return
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
	}
	if port != "" {
		cfg.Link.Device = port
	}
	if baud != 0 {
		cfg.Link.Baud = baud
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	state := telemetry.NewState(cfg.Buffers.TrailCapacity, cfg.Buffers.RawCapacity)
	ctrl := session.New(state, nil)

	if cfg.Mirror.Enable {
		m, err := mirror.NewBroadcaster(cfg.Mirror.Dest, cfg.Mirror.Interval, state)
		if err != nil {
			log.Fatalf("mirror init failed: %v", err)
		}
		defer m.Close()
		go m.Run(ctx)
		log.Printf("mirror enabled dest=%s interval=%s", cfg.Mirror.Dest, cfg.Mirror.Interval)
	}

	if connect {
		if cfg.Link.Device == "" {
			log.Fatalf("-connect needs a port (flag or config)")
		}
		if err := ctrl.Connect(cfg.Link.Device, cfg.Link.Baud); err != nil {
			log.Printf("initial connect failed: %v", err)
		}
	}

	if headless {
		clock := render.NewClock(state, &statusLogger{}, cfg.Render.Period)
		go clock.Run(ctx)
		<-ctx.Done()
		ctrl.Disconnect()
		return
	}

	dash := ui.New(ctrl, cfg.Link.Device, cfg.Link.Baud)
	clock := render.NewClock(state, dash, cfg.Render.Period)
	go clock.Run(ctx)
	go func() {
		<-ctx.Done()
		dash.Stop()
	}()

	if err := dash.Run(); err != nil {
		log.Fatalf("ui failed: %v", err)
	}
	cancel()
	ctrl.Disconnect()
}

// statusLogger keeps headless runs observable: once a second instead of
// every render tick.
type statusLogger struct {
	last time.Time
}

func (l *statusLogger) Render(v render.View) {
	if time.Since(l.last) < time.Second {
		return
	}
	l.last = time.Now()

	state := "disconnected"
	if v.Connected {
		state = "connected"
	}
	log.Printf("link=%s flight=%s frames=%d lines=%d trail=%d", state, v.FlightTime, v.Frames, v.Lines, len(v.Trail))
}
