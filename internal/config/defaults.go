package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultUpstreamTimeout      = 30 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectDelay       = 5 * time.Second
	DefaultPingTimeout          = 60 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultMarketDataTTL        = 30 * time.Second
	DefaultTradesTTL            = time.Minute
	DefaultPortfolioTTL         = 30 * time.Second
	DefaultRiskTTL              = time.Minute
	DefaultSweepInterval        = 5 * time.Minute
	DefaultMaxRequests          = 10
	DefaultResetInterval        = time.Minute
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 10
	DefaultMinConns             = 2
	DefaultBatchSize            = 500
	DefaultFlushInterval        = time.Second
	DefaultBufferSize           = 10000
	DefaultHealthPort           = 8080
	DefaultPollInterval         = 30 * time.Second
	DefaultPollConcurrency      = 8
	DefaultPollTimeout          = 10 * time.Second
)

func (c *ServiceConfig) applyDefaults() {
	if c.Instance.HealthPort == 0 {
		c.Instance.HealthPort = DefaultHealthPort
	}

	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = DefaultUpstreamTimeout
	}

	if c.Stream.MaxReconnectAttempts == 0 {
		c.Stream.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Stream.ReconnectDelay == 0 {
		c.Stream.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Stream.PingTimeout == 0 {
		c.Stream.PingTimeout = DefaultPingTimeout
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultWriteTimeout
	}

	if c.Cache.MarketDataTTL == 0 {
		c.Cache.MarketDataTTL = DefaultMarketDataTTL
	}
	if c.Cache.TradesTTL == 0 {
		c.Cache.TradesTTL = DefaultTradesTTL
	}
	if c.Cache.PortfolioTTL == 0 {
		c.Cache.PortfolioTTL = DefaultPortfolioTTL
	}
	if c.Cache.RiskTTL == 0 {
		c.Cache.RiskTTL = DefaultRiskTTL
	}
	if c.Cache.SweepInterval == 0 {
		c.Cache.SweepInterval = DefaultSweepInterval
	}

	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = DefaultMaxRequests
	}
	if c.RateLimit.ResetInterval == 0 {
		c.RateLimit.ResetInterval = DefaultResetInterval
	}

	applyDBDefaults(&c.Database.Timescale)

	if c.Writers.BatchSize == 0 {
		c.Writers.BatchSize = DefaultBatchSize
	}
	if c.Writers.FlushInterval == 0 {
		c.Writers.FlushInterval = DefaultFlushInterval
	}
	if c.Writers.BufferSize == 0 {
		c.Writers.BufferSize = DefaultBufferSize
	}

	if c.Poll.Interval == 0 {
		c.Poll.Interval = DefaultPollInterval
	}
	if c.Poll.Concurrency == 0 {
		c.Poll.Concurrency = DefaultPollConcurrency
	}
	if c.Poll.Timeout == 0 {
		c.Poll.Timeout = DefaultPollTimeout
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
