package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
)

// Validate reports every invalid or missing setting at once
func (c *Config) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("server.port: invalid port %d", c.Server.Port)
	}

	switch c.Store.Driver {
	case StoreFile:
		if c.Store.Path == "" {
			add("store.path is required for the file store")
		}
		if c.Store.LockTimeout <= 0 {
			add("store.lockTimeout must be positive")
		}
	case StorePostgres:
		if err := c.Database.Validate(); err != nil {
			add("database: %w", err)
		}
	default:
		add("store.driver: unsupported driver %q", c.Store.Driver)
	}

	if !validLogLevels[c.Logger.Level] {
		add("logger.level: invalid level %q", c.Logger.Level)
	}
	if !validLogFormats[c.Logger.Format] {
		add("logger.format: invalid format %q", c.Logger.Format)
	}

	if c.Game.ItemsPath == "" {
		add("game.itemsPath is required")
	}
	if c.Game.SpinCost <= 0 {
		add("game.spinCost must be positive")
	}
	if c.Game.HistoryLimit <= 0 {
		add("game.historyLimit must be positive")
	}
	if _, err := time.LoadLocation(c.Game.TimeZone); err != nil {
		add("game.timeZone: %w", err)
	}

	if c.Identity.CookieName == "" {
		add("identity.cookieName is required")
	}
	if c.Identity.CookieMaxAge <= 0 {
		add("identity.cookieMaxAge must be positive")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Backend != LimiterMemory && c.RateLimit.Backend != LimiterRedis {
			add("rateLimit.backend: unsupported backend %q", c.RateLimit.Backend)
		}
		if c.RateLimit.Backend == LimiterRedis && c.Redis.Addr == "" {
			add("redis.addr is required for the redis rate limiter")
		}
		if c.RateLimit.Requests <= 0 {
			add("rateLimit.requests must be positive")
		}
		if c.RateLimit.Window <= 0 {
			add("rateLimit.window must be positive")
		}
	}

	if c.Backup.Enabled {
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			add("backup.schedule: %w", err)
		}
		if c.Backup.Dir == "" {
			add("backup.dir is required")
		}
	}

	return errors.Join(problems...)
}
