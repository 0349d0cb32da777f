package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "PW"

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
}

// LoadConfig loads .env, then configs/<PW_ENV>.yaml, then environment overrides
func LoadConfig() (*Config, error) {
	// a missing .env is normal outside development
	_ = loadDotEnvFile()

	return Load(afero.NewOsFs(), getEnvironment(), ConfigPaths...)
}

// Load reads the named environment's config file from the first matching path on fs.
// A missing file leaves defaults and environment variables in charge.
func Load(fs afero.Fs, env string, paths ...string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := processEnvOverrides(v); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.Environment = env

	return &config, nil
}

func loadDotEnvFile() error {
	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			return godotenv.Load(path)
		}
	}
	return errors.New("no .env file found in search paths")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 15*time.Second)
	v.SetDefault("server.idleTimeout", 60*time.Second)
	v.SetDefault("server.readHeaderTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.staticDir", "")
	v.SetDefault("server.allowedOrigins", []string{})
	v.SetDefault("server.trustedProxies", []string{})

	v.SetDefault("store.driver", StoreFile)
	v.SetDefault("store.path", "./db.json")
	v.SetDefault("store.lockTimeout", 5*time.Second)

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 10)
	v.SetDefault("database.connMaxLifetime", 5*time.Minute)
	v.SetDefault("database.connMaxIdleTime", 5*time.Minute)
	v.SetDefault("database.logLevel", "warn")
	v.SetDefault("database.slowThreshold", 200*time.Millisecond)
	v.SetDefault("database.retryAttempts", 5)
	v.SetDefault("database.retryDelay", time.Second)
	v.SetDefault("database.monitorInterval", 30*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("game.itemsPath", "./configs/items.json")
	v.SetDefault("game.spinCost", 1)
	v.SetDefault("game.historyLimit", 20)
	v.SetDefault("game.timeZone", "America/Sao_Paulo")

	v.SetDefault("admin.key", "")
	v.SetDefault("admin.keyHash", "")

	v.SetDefault("identity.cookieName", "userId")
	v.SetDefault("identity.cookieMaxAge", 365*24*time.Hour)
	v.SetDefault("identity.cookieSecure", false)

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.backend", LimiterMemory)
	v.SetDefault("rateLimit.requests", 10)
	v.SetDefault("rateLimit.window", time.Minute)

	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.schedule", "0 * * * *")
	v.SetDefault("backup.dir", "./backups")
	v.SetDefault("backup.keep", 24)
}

// getEnvironment determines the environment from PW_ENV, defaulting to development
func getEnvironment() string {
	env := strings.ToLower(os.Getenv(EnvPrefix + "_ENV"))
	if env == "" {
		return Development
	}
	return env
}

// processEnvOverrides applies the short database variables and the legacy unprefixed ones.
// Prefixed variables win over legacy ones.
func processEnvOverrides(v *viper.Viper) error {
	stringOverrides := map[string]string{
		"PW_DB_HOST":     "database.host",
		"PW_DB_USERNAME": "database.username",
		"PW_DB_PASSWORD": "database.password",
		"PW_DB_NAME":     "database.name",
		"PW_DB_SSL_MODE": "database.sslMode",
		"PW_REDIS_URL":   "redis.addr",
	}
	for env, key := range stringOverrides {
		if value := os.Getenv(env); value != "" {
			v.Set(key, value)
		}
	}

	if port := os.Getenv("PW_DB_PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("PW_DB_PORT: %w", err)
		}
		v.Set("database.port", n)
	}

	legacy := map[string]string{
		"ADMIN_KEY":      "admin.key",
		"ADMIN_KEY_HASH": "admin.keyHash",
	}
	for env, key := range legacy {
		if os.Getenv(envName(key)) != "" {
			continue
		}
		if value := os.Getenv(env); value != "" {
			v.Set(key, value)
		}
	}

	if port := os.Getenv("PORT"); port != "" && os.Getenv(envName("server.port")) == "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		v.Set("server.port", n)
	}
	return nil
}

// envName returns the prefixed variable viper binds to key
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
