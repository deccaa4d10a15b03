package server

import "time"

const (
	DefaultWriteWait  = 10 * time.Second
	DefaultPongWait   = 60 * time.Second
	DefaultPingPeriod = 54 * time.Second // must be less than PongWait
)

// Config holds the configuration of the ingest server.
type Config struct {
	// Addr is the address to listen on, e.g. ":8080".
	Addr string

	// Path is the WebSocket endpoint path.
	Path string

	// AuthToken is the bearer token producers must present.
	// If empty, authentication is disabled.
	AuthToken string

	// MaxMessageSize bounds one WebSocket message, i.e. one chunk.
	MaxMessageSize int64

	ReadBufferSize  int
	WriteBufferSize int

	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		Path:            "/ws",
		MaxMessageSize:  1 << 20,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		WriteWait:       DefaultWriteWait,
		PongWait:        DefaultPongWait,
		PingPeriod:      DefaultPingPeriod,
	}
}
