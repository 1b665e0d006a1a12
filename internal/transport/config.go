package transport

import (
	"net"
	"strconv"
	"time"
)

// Defaults match the service's stock deployment
const (
	DefaultHost          = "localhost"
	DefaultPort          = 6868
	DefaultMaxAttempts   = 100
	DefaultRetryInterval = 100 * time.Millisecond
	DefaultChunkSize     = 2048
)

// Config describes where the service listens and how hard to try reaching it
type Config struct {
	Host string
	Port int

	// MaxAttempts is the total number of connection attempts per command
	MaxAttempts int

	// RetryInterval is the pause between connection attempts. Zero retries
	// immediately.
	RetryInterval time.Duration

	// ChunkSize bounds each socket read of a response body
	ChunkSize int
}

// DefaultConfig returns the stock endpoint and retry budget
func DefaultConfig() Config {
	return Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		MaxAttempts:   DefaultMaxAttempts,
		RetryInterval: DefaultRetryInterval,
		ChunkSize:     DefaultChunkSize,
	}
}

// Address returns host:port
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// normalized fills zero or negative fields with defaults
func (c Config) normalized() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryInterval < 0 {
		c.RetryInterval = 0
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	return c
}
