package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	DatabaseURL     string
	RedisURL        string
	JWTSecret       string
	ProfileCacheTTL time.Duration
	SeedEnabled     bool
	SeedToken       string
	WriteRateMax    int
	WriteRateWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("UNIMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "UNIMS API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("profile.cache_ttl", "5m")
	v.SetDefault("write.rate_max", 20)
	v.SetDefault("write.rate_window", "1m")

	ttl, err := time.ParseDuration(v.GetString("profile.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid profile cache ttl: %w", err)
	}

	window, err := time.ParseDuration(v.GetString("write.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid write rate window: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		DatabaseURL:     v.GetString("database.url"),
		RedisURL:        v.GetString("redis.url"),
		JWTSecret:       v.GetString("jwt.secret"),
		ProfileCacheTTL: ttl,
		SeedEnabled:     v.GetBool("seed.enabled"),
		SeedToken:       v.GetString("seed.token"),
		WriteRateMax:    v.GetInt("write.rate_max"),
		WriteRateWindow: window,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.WriteRateMax <= 0 {
		cfg.WriteRateMax = 20
	}

	return cfg, nil
}
