// Command streamplayout plays PCM16 audio pushed by producers over WebSocket
// through the local audio output.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/realtime-ai/streamplayout/pkg/device"
	"github.com/realtime-ai/streamplayout/pkg/playback"
	"github.com/realtime-ai/streamplayout/pkg/server"
	"github.com/realtime-ai/streamplayout/pkg/trace"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	if err := trace.Initialize(ctx, trace.DefaultConfig()); err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := trace.Shutdown(ctx); err != nil {
			logger.Warn("failed to shutdown tracing", zap.Error(err))
		}
	}()

	player, err := playback.New(cfg.Playback, logger.Named("playback"))
	if err != nil {
		logger.Fatal("failed to create player", zap.Error(err))
	}

	factory, dump, err := newDeviceFactory(cfg, logger.Named("device"))
	if err != nil {
		logger.Fatal("failed to prepare output device", zap.Error(err))
	}
	if err := player.Attach(factory); err != nil {
		// ingest keeps running; audio is buffered but not heard
		logger.Warn("output device unavailable", zap.String("device", cfg.Device), zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		playback.NewCollector(player, "streamplayout"),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := server.New(cfg.Server, player, reg, logger.Named("server"))
	if err := srv.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if err := player.Destroy(); err != nil {
		logger.Warn("player shutdown", zap.Error(err))
	}
	if dump != nil {
		if err := dump.Close(); err != nil {
			logger.Warn("failed to close wav file", zap.Error(err))
		}
	}
}

// newDeviceFactory returns the configured output. The returned file, if any,
// must be closed after the player is destroyed.
func newDeviceFactory(cfg *config, logger *zap.Logger) (playback.DeviceFactory, *os.File, error) {
	if cfg.Device == deviceMalgo {
		return device.NewMalgo(logger), nil, nil
	}
	if cfg.DumpWAV == "" {
		return device.NewClock(nil, logger), nil, nil
	}

	f, err := os.Create(cfg.DumpWAV)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("writing output to wav file", zap.String("path", cfg.DumpWAV))
	sink := device.NewWAVSink(f, cfg.Playback.SampleRate, cfg.Playback.Channels)
	return device.NewClock(sink, logger), f, nil
}
