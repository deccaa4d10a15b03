package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/realtime-ai/streamplayout/pkg/playback"
	"github.com/realtime-ai/streamplayout/pkg/server"
)

const (
	deviceMalgo = "malgo"
	deviceClock = "clock"
)

type config struct {
	Playback playback.Config
	Server   *server.Config

	// Device is deviceMalgo or deviceClock.
	Device string
	// DumpWAV, if set, is a file the clock device writes its output to.
	// Only valid with deviceClock.
	DumpWAV string
}

// loadConfig reads the service configuration from the environment.
func loadConfig() (*config, error) {
	pb := playback.DefaultConfig()
	var err error

	if pb.SampleRate, err = envInt("PLAYOUT_SAMPLE_RATE", pb.SampleRate); err != nil {
		return nil, err
	}
	if pb.Channels, err = envInt("PLAYOUT_CHANNELS", pb.Channels); err != nil {
		return nil, err
	}
	secs, err := envInt("PLAYOUT_BUFFER_SECONDS", int(pb.BufferDuration/time.Second))
	if err != nil {
		return nil, err
	}
	if maxSecs := int(playback.MaxBufferDuration / time.Second); secs <= 0 || secs > maxSecs {
		return nil, fmt.Errorf("PLAYOUT_BUFFER_SECONDS: %d out of range [1, %d]", secs, maxSecs)
	}
	pb.BufferDuration = time.Duration(secs) * time.Second
	if pb.ArmThreshold, err = envMillis("PLAYOUT_ARM_MS", pb.ArmThreshold); err != nil {
		return nil, err
	}
	if pb.Period, err = envMillis("PLAYOUT_PERIOD_MS", pb.Period); err != nil {
		return nil, err
	}
	if pb.StrictChunks, err = envBool("PLAYOUT_STRICT", pb.StrictChunks); err != nil {
		return nil, err
	}
	if pb.StartOnArm, err = envBool("PLAYOUT_START_ON_ARM", pb.StartOnArm); err != nil {
		return nil, err
	}
	if err := pb.Validate(); err != nil {
		return nil, err
	}

	srv := server.DefaultConfig()
	srv.Addr = getEnv("LISTEN_ADDR", srv.Addr)
	srv.AuthToken = os.Getenv("API_TOKEN")

	cfg := &config{
		Playback: pb,
		Server:   srv,
		Device:   getEnv("PLAYOUT_DEVICE", deviceMalgo),
		DumpWAV:  os.Getenv("PLAYOUT_DUMP_WAV"),
	}
	if cfg.Device != deviceMalgo && cfg.Device != deviceClock {
		return nil, fmt.Errorf("PLAYOUT_DEVICE: unknown device %q", cfg.Device)
	}
	if cfg.DumpWAV != "" && cfg.Device != deviceClock {
		return nil, fmt.Errorf("PLAYOUT_DUMP_WAV requires PLAYOUT_DEVICE=%s", deviceClock)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envMillis(key string, fallback time.Duration) (time.Duration, error) {
	n, err := envInt(key, int(fallback/time.Millisecond))
	if err != nil {
		return 0, err
	}
	if maxMs := int(playback.MaxBufferDuration / time.Millisecond); n < 0 || n > maxMs {
		return 0, fmt.Errorf("%s: %d out of range [0, %d]", key, n, maxMs)
	}
	return time.Duration(n) * time.Millisecond, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
