package config

import "time"

// ServiceConfig is the root configuration for a marketd instance.
type ServiceConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Stream    StreamConfig    `yaml:"stream"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
	Writers   WritersConfig   `yaml:"writers"`
	Poll      PollConfig      `yaml:"poll"`
}

// InstanceConfig identifies this service instance.
type InstanceConfig struct {
	ID         string `yaml:"id"`
	HealthPort int    `yaml:"health_port"`
}

// UpstreamConfig holds trading-backend REST settings.
type UpstreamConfig struct {
	RestURL string        `yaml:"rest_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// StreamConfig holds streaming-connection settings.
type StreamConfig struct {
	URL                  string        `yaml:"url"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`
	PingTimeout          time.Duration `yaml:"ping_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
}

// CacheConfig holds per-category TTL defaults.
type CacheConfig struct {
	MarketDataTTL time.Duration `yaml:"market_data_ttl"`
	TradesTTL     time.Duration `yaml:"trades_ttl"`
	PortfolioTTL  time.Duration `yaml:"portfolio_ttl"`
	RiskTTL       time.Duration `yaml:"risk_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// RateLimitConfig holds the historical-fetch request budget.
type RateLimitConfig struct {
	MaxRequests   int              `yaml:"max_requests"`
	ResetInterval time.Duration    `yaml:"reset_interval"`
	Intervals     []IntervalConfig `yaml:"intervals"`
}

// IntervalConfig describes one tracked polling interval.
type IntervalConfig struct {
	ID          string        `yaml:"id"`           // e.g. "5m"
	APIInterval string        `yaml:"api_interval"` // Upstream sampling hint, optional
	MinPause    time.Duration `yaml:"min_pause"`    // Gap between consecutive requests
	Bucket      time.Duration `yaml:"bucket"`       // Candle bucket width
}

// Interval returns the interval config with the given id.
func (c RateLimitConfig) Interval(id string) (IntervalConfig, bool) {
	for _, iv := range c.Intervals {
		if iv.ID == id {
			return iv, true
		}
	}
	return IntervalConfig{}, false
}

// DatabaseConfig holds the TimescaleDB connection for time-series persistence.
type DatabaseConfig struct {
	Timescale DBConfig `yaml:"timescale"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// PollConfig holds snapshot poller settings. Polling is disabled when
// Symbols is empty.
type PollConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	Symbols     []string      `yaml:"symbols"`
}

// WritersConfig holds batch writer settings.
type WritersConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}
