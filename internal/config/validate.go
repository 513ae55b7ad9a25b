package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *ServiceConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}
	if c.Upstream.RestURL == "" {
		return errors.New("upstream.rest_url is required")
	}
	if c.Stream.URL == "" {
		return errors.New("stream.url is required")
	}
	if c.Stream.MaxReconnectAttempts < 1 {
		return errors.New("stream.max_reconnect_attempts must be >= 1")
	}
	if c.Stream.ReconnectDelay <= 0 {
		return errors.New("stream.reconnect_delay must be positive")
	}

	if c.RateLimit.MaxRequests < 1 {
		return errors.New("rate_limit.max_requests must be >= 1")
	}
	if c.RateLimit.ResetInterval <= 0 {
		return errors.New("rate_limit.reset_interval must be positive")
	}
	seen := make(map[string]struct{}, len(c.RateLimit.Intervals))
	for i, iv := range c.RateLimit.Intervals {
		if iv.ID == "" {
			return fmt.Errorf("rate_limit.intervals[%d].id is required", i)
		}
		if _, dup := seen[iv.ID]; dup {
			return fmt.Errorf("rate_limit.intervals: duplicate id %q", iv.ID)
		}
		seen[iv.ID] = struct{}{}
		if iv.Bucket <= 0 {
			return fmt.Errorf("rate_limit.intervals[%d].bucket must be positive", i)
		}
		if iv.MinPause < 0 {
			return fmt.Errorf("rate_limit.intervals[%d].min_pause must be >= 0", i)
		}
	}

	// Persistence is optional: an empty host disables it.
	if c.Database.Timescale.Host != "" {
		if err := c.Database.Timescale.validate("database.timescale"); err != nil {
			return err
		}
	}

	if c.Writers.BatchSize < 1 {
		return errors.New("writers.batch_size must be >= 1")
	}
	if c.Writers.BufferSize < 1 {
		return errors.New("writers.buffer_size must be >= 1")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
