package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	APNS     APNSConfig     `yaml:"apns"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Stories  StoriesConfig  `yaml:"stories"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AWSConfig holds AWS configuration for story media storage
type AWSConfig struct {
	Region     string `yaml:"region"`
	S3Bucket   string `yaml:"s3_bucket"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Endpoint   string `yaml:"endpoint"` // custom S3-compatible endpoint, optional
	DisableSSL bool   `yaml:"disable_ssl"`
}

// APNSConfig holds Apple push notification configuration.
// Push is disabled when KeyFile is empty.
type APNSConfig struct {
	KeyFile    string `yaml:"key_file"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// StoriesConfig holds story lifecycle configuration
type StoriesConfig struct {
	TTLHours       int `yaml:"ttl_hours"`        // story lifetime, default 24
	SweepMinutes   int `yaml:"sweep_minutes"`    // cleanup interval, default 30
	DurationMs     int `yaml:"duration_ms"`      // per-story playback duration, default 5000
	SettleDelayMs  int `yaml:"settle_delay_ms"`  // pause before jumping to the next user, default 500
	ProgressTickMs int `yaml:"progress_tick_ms"` // playback sampling interval, default 100
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Stories.applyDefaults()

	return &cfg, nil
}

func (c *StoriesConfig) applyDefaults() {
	if c.TTLHours <= 0 {
		c.TTLHours = 24
	}
	if c.SweepMinutes <= 0 {
		c.SweepMinutes = 30
	}
	if c.DurationMs <= 0 {
		c.DurationMs = 5000
	}
	if c.SettleDelayMs <= 0 {
		c.SettleDelayMs = 500
	}
	if c.ProgressTickMs <= 0 {
		c.ProgressTickMs = 100
	}
}

// TTL returns the story lifetime as a duration
func (c *StoriesConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// SweepInterval returns the cleanup interval as a duration
func (c *StoriesConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepMinutes) * time.Minute
}

// Duration returns the per-story playback duration
func (c *StoriesConfig) Duration() time.Duration {
	return time.Duration(c.DurationMs) * time.Millisecond
}

// SettleDelay returns the end-of-group settle delay
func (c *StoriesConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// ProgressTick returns the playback sampling interval
func (c *StoriesConfig) ProgressTick() time.Duration {
	return time.Duration(c.ProgressTickMs) * time.Millisecond
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
