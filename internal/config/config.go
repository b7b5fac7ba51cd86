// Package config loads the relay multiplexer's settings from layered
// sources (defaults, an optional YAML file, environment variables, and CLI
// flags) using knadh/koanf.
package config

import (
	"fmt"
	"time"
)

// PoolTag identifies which upstream pool a relay endpoint belongs to.
type PoolTag string

const (
	// PoolPublic marks an endpoint as a member of the public relay pool.
	PoolPublic PoolTag = "public"
	// PoolPrivate marks an endpoint as a member of the private relay pool.
	PoolPrivate PoolTag = "private"
)

// Endpoint is a relay address reconstructed into {scheme, host, port}, per
// the wire contract for --public-servers/--private-servers arguments.
type Endpoint struct {
	Scheme string
	Host   string
	Port   int
	Pool   PoolTag
}

// String reconstructs the dialable URL for this endpoint.
func (e Endpoint) String() string {
	return reconstructRelayURL(e.Scheme, e.Host, e.Port)
}

// ParseEndpoint parses a single --public-servers/--private-servers argument
// into an Endpoint tagged with pool.
func ParseEndpoint(raw string, pool PoolTag) (Endpoint, error) {
	scheme, host, port, err := parseRelayEndpoint(raw)
	if err != nil {
		return Endpoint{}, err
	}
	return Endpoint{Scheme: scheme, Host: host, Port: port, Pool: pool}, nil
}

// Config holds every tunable of the relay multiplexer.
type Config struct {
	// PublicServers lists upstream relay endpoints in the public pool.
	PublicServers []string `koanf:"public_servers"`

	// PrivateServers lists upstream relay endpoints in the private pool.
	PrivateServers []string `koanf:"private_servers"`

	// ListenIP is the address the client-facing listener binds to.
	ListenIP string `koanf:"listen_ip"`

	// ListenPort is the port the client-facing listener binds to.
	ListenPort int `koanf:"listen_port"`

	// NoteCacheTime is the dedup cache entry TTL.
	NoteCacheTime time.Duration `koanf:"note_cache_time"`

	// FilterLargeMedia enables the large-media filter stage of the
	// validator pipeline.
	FilterLargeMedia bool `koanf:"filter_large_media"`

	// MaxMediaBytes is the size threshold above which an event referencing
	// large media is dropped.
	MaxMediaBytes int64 `koanf:"max_media_bytes"`

	// MediaProbeTimeout bounds each HEAD probe issued by the media filter.
	MediaProbeTimeout time.Duration `koanf:"media_probe_timeout"`

	// DedupSweepInterval is how often the dedup cache evicts aged-out entries.
	DedupSweepInterval time.Duration `koanf:"dedup_sweep_interval"`

	// ConnectBackoff is the delay before retrying a failed upstream dial.
	ConnectBackoff time.Duration `koanf:"connect_backoff"`

	// ReconnectJitterMin/Max bound the uniform-random delay before
	// reconnecting after an upstream connection drops.
	ReconnectJitterMin time.Duration `koanf:"reconnect_jitter_min"`
	ReconnectJitterMax time.Duration `koanf:"reconnect_jitter_max"`

	// HandshakeTimeout bounds the outbound websocket dial.
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`

	// MetricsListenAddr is the bind address for the Prometheus /metrics
	// endpoint. Empty disables it.
	MetricsListenAddr string `koanf:"metrics_listen_addr"`

	// Log holds the logging sub-configuration.
	Log LogConfig `koanf:"log"`
}

// LogConfig mirrors internal/logging.Config's shape so it can be loaded
// through the same layered config source as everything else.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Endpoints returns every configured endpoint, tagged by pool, parsed and
// reconstructed via the {scheme, host, port} contract.
func (c *Config) Endpoints() ([]Endpoint, error) {
	endpoints := make([]Endpoint, 0, len(c.PublicServers)+len(c.PrivateServers))
	for _, raw := range c.PublicServers {
		ep, err := ParseEndpoint(raw, PoolPublic)
		if err != nil {
			return nil, fmt.Errorf("public server: %w", err)
		}
		endpoints = append(endpoints, ep)
	}
	for _, raw := range c.PrivateServers {
		ep, err := ParseEndpoint(raw, PoolPrivate)
		if err != nil {
			return nil, fmt.Errorf("private server: %w", err)
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// Validate checks the loaded configuration for internal consistency beyond
// what individual field parsing already enforces.
func (c *Config) Validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("listen_port must be between 1 and 65535, got %d", c.ListenPort)
	}
	if c.ListenIP == "" {
		return fmt.Errorf("listen_ip is required")
	}
	if len(c.PublicServers) == 0 && len(c.PrivateServers) == 0 {
		return fmt.Errorf("at least one public or private server must be configured")
	}
	if _, err := c.Endpoints(); err != nil {
		return err
	}
	if c.NoteCacheTime <= 0 {
		return fmt.Errorf("note_cache_time must be positive")
	}
	if c.ReconnectJitterMin <= 0 || c.ReconnectJitterMax < c.ReconnectJitterMin {
		return fmt.Errorf("reconnect_jitter_min must be positive and not exceed reconnect_jitter_max")
	}
	if c.MaxMediaBytes <= 0 {
		return fmt.Errorf("max_media_bytes must be positive")
	}
	return nil
}

// defaultConfig returns a Config with every field set to its documented
// default, applied first and overridden by file/env/flag layers.
func defaultConfig() *Config {
	return &Config{
		PublicServers:      []string{"wss://relay.damus.io:443", "wss://nos.lol:443"},
		PrivateServers:     nil,
		ListenIP:           "127.0.0.1",
		ListenPort:         9999,
		NoteCacheTime:      120 * time.Second,
		FilterLargeMedia:   false,
		MaxMediaBytes:      1_000_000,
		MediaProbeTimeout:  3 * time.Second,
		DedupSweepInterval: 5 * time.Second,
		ConnectBackoff:     5 * time.Second,
		ReconnectJitterMin: 1 * time.Second,
		ReconnectJitterMax: 5 * time.Second,
		HandshakeTimeout:   10 * time.Second,
		MetricsListenAddr:  ":9090",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
