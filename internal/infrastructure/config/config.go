package config

import (
	"time"

	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/database"
)

// Store drivers
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Rate limiter backends
const (
	LimiterMemory = "memory"
	LimiterRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Store       StoreConfig     `mapstructure:"store"`
	Database    database.Config `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Logger      LoggerConfig    `mapstructure:"logger"`
	Game        GameConfig      `mapstructure:"game"`
	Admin       AdminConfig     `mapstructure:"admin"`
	Identity    IdentityConfig  `mapstructure:"identity"`
	RateLimit   RateLimitConfig `mapstructure:"rateLimit"`
	Backup      BackupConfig    `mapstructure:"backup"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`
	StaticDir         string        `mapstructure:"staticDir"`
	AllowedOrigins    []string      `mapstructure:"allowedOrigins"`
	TrustedProxies    []string      `mapstructure:"trustedProxies"`
}

// StoreConfig selects where users, codes and spins live
type StoreConfig struct {
	Driver      string        `mapstructure:"driver"`
	Path        string        `mapstructure:"path"`
	LockTimeout time.Duration `mapstructure:"lockTimeout"`
}

// RedisConfig contains the Redis connection used by the shared rate limiter
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig contains the wheel rules
type GameConfig struct {
	ItemsPath    string `mapstructure:"itemsPath"`
	SpinCost     int64  `mapstructure:"spinCost"`
	HistoryLimit int    `mapstructure:"historyLimit"`
	TimeZone     string `mapstructure:"timeZone"`
}

// AdminConfig holds the administrative secret, either in plain form or as a bcrypt hash
type AdminConfig struct {
	Key     string `mapstructure:"key"`
	KeyHash string `mapstructure:"keyHash"`
}

// IdentityConfig describes the identity cookie
type IdentityConfig struct {
	CookieName   string        `mapstructure:"cookieName"`
	CookieMaxAge time.Duration `mapstructure:"cookieMaxAge"`
	CookieSecure bool          `mapstructure:"cookieSecure"`
}

// RateLimitConfig throttles code redemption attempts per client
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Backend  string        `mapstructure:"backend"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// BackupConfig schedules store snapshots
type BackupConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
	Dir      string `mapstructure:"dir"`
	Keep     int    `mapstructure:"keep"`
}

// AdminConfigured reports whether any administrative secret is set
func (c *Config) AdminConfigured() bool {
	return c.Admin.Key != "" || c.Admin.KeyHash != ""
}
