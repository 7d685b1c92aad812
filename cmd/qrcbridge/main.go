package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/roomctl/qrcbridge/config"
	"github.com/roomctl/qrcbridge/conn"
	"github.com/roomctl/qrcbridge/gateway"
	"github.com/roomctl/qrcbridge/mcp"
	"github.com/roomctl/qrcbridge/metric"
	"github.com/roomctl/qrcbridge/qrc"
	"github.com/roomctl/qrcbridge/qsys"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.Logging)

	metrics := metric.New()

	transport := conn.New(cfg.Device.Host, cfg.Device.Port,
		conn.WithReconnectDelay(cfg.Device.ReconnectDelayDuration()),
		conn.WithAutoReconnect(cfg.Device.AutoReconnect),
	)
	transport.OnStatus(func(connected bool) error {
		metrics.UpstreamAttempts.Inc()
		if connected {
			metrics.UpstreamConnected.Set(1)
		} else {
			metrics.UpstreamConnected.Set(0)
		}
		return nil
	})
	transport.OnData(func([]byte) error {
		metrics.FramesReceived.Inc()
		return nil
	})

	session := qrc.New(cfg.Device.Name, transport,
		qrc.WithHeartbeatInterval(cfg.Device.HeartbeatIntervalDuration()),
		qrc.WithResponseTimeout(cfg.Device.ResponseTimeoutDuration()),
	)
	sessions := []*qrc.Client{session}

	gw := gateway.New(cfg.Gateway.Addr, sessions, metrics)
	feature := qsys.New(gw, qsys.WithPollRate(cfg.Device.PollRate))

	session.OnConnect(feature.RegisterChangeGroup)
	session.OnChangeGroup(feature.HandlePoll)
	session.OnViewerJoined(feature.InvalidateChangeGroup)
	gw.Route(feature.Topic(), feature.Handle)

	if cfg.Metrics.Enabled {
		gw.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		session.Run(ctx)
		return nil
	})
	g.Go(gw.Start)
	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer(feature)
		g.Go(mcpServer.Run)
	}
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		session.Disconnect()
		return gw.Shutdown(context.Background())
	})

	slog.Info("WebSocket gateway running", "addr", cfg.Gateway.Addr)
	if err := g.Wait(); err != nil {
		slog.Error("Gateway exited with error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LoggingConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}
