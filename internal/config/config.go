package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	TransportTelegram  = "telegram"
	TransportWebSocket = "websocket"
)

type Config struct {
	Transport string `yaml:"transport"`
	Telegram  struct {
		Token string `yaml:"token"`
	} `yaml:"telegram"`
	Admins       []int64 `yaml:"admins"`
	MaterialsDir string  `yaml:"materials_dir"`
	Server       struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Quiz struct {
		CacheTTL string `yaml:"cache_ttl"`
		LockTTL  string `yaml:"lock_ttl"`
	} `yaml:"quiz"`
	Broadcast struct {
		Concurrency int     `yaml:"concurrency"`
		Rate        float64 `yaml:"rate"`
		Burst       int     `yaml:"burst"`
	} `yaml:"broadcast"`
	Dispatch struct {
		Workers int `yaml:"workers"`
	} `yaml:"dispatch"`
	Log Log `yaml:"log"`
}

type Log struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

func defaults() Config {
	cfg := Config{Transport: TransportTelegram, MaterialsDir: "materials"}
	cfg.Server.Port = "8080"
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = "bot.db"
	cfg.Redis.TTL = "30m"
	cfg.Quiz.CacheTTL = "10m"
	cfg.Quiz.LockTTL = "10s"
	cfg.Broadcast.Concurrency = 8
	cfg.Broadcast.Rate = 25
	cfg.Broadcast.Burst = 5
	cfg.Dispatch.Workers = 16
	cfg.Log.Level = "info"
	return cfg
}

// Load builds the config from defaults, the optional YAML file at path, a .env file in
// the working directory and finally the process environment.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Transport, "TRANSPORT")
	setString(&cfg.Telegram.Token, "TELEGRAM_TOKEN")
	setString(&cfg.MaterialsDir, "MATERIALS_FOLDER")
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.File, "LOG_FILE")

	switch cfg.Storage.Driver {
	case "postgres":
		setString(&cfg.Storage.DSN, "DATABASE_URL")
	case "sqlite":
		setString(&cfg.Storage.DSN, "DB_PATH")
	}

	if raw, ok := os.LookupEnv("ADMIN_IDS"); ok {
		ids, err := ParseIDs(raw)
		if err != nil {
			return fmt.Errorf("ADMIN_IDS: %w", err)
		}
		cfg.Admins = ids
	}
	if raw, ok := os.LookupEnv("LOG_JSON"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("LOG_JSON: %w", err)
		}
		cfg.Log.JSON = v
	}
	if raw, ok := os.LookupEnv("DISPATCH_WORKERS"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("DISPATCH_WORKERS: %w", err)
		}
		cfg.Dispatch.Workers = v
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// ParseIDs reads a comma-separated list of user ids, ignoring blanks.
func ParseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate checks what the long-running server needs.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportTelegram:
		if c.Telegram.Token == "" {
			return errors.New("TELEGRAM_TOKEN is not set")
		}
	case TransportWebSocket:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	switch c.Storage.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
