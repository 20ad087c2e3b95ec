// Package config loads the daemon's TOML configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type DaemonConfig struct {
	Name        string   `toml:"name"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`

	Storage   StorageConfig   `toml:"storage"`
	Client    ClientConfig    `toml:"client"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

type StorageConfig struct {
	// Backend is one of "memory", "sqlite", "redis".
	Backend   string `toml:"backend"`
	Path      string `toml:"path"`
	RedisAddr string `toml:"redis_addr"`
}

type ClientConfig struct {
	APIID             int32  `toml:"api_id"`
	APIHash           string `toml:"api_hash"`
	DatabaseDirectory string `toml:"database_directory"`
	UseTestDC         bool   `toml:"use_test_dc"`
	UseFileDatabase   bool   `toml:"use_file_database"`
	UseSecretChats    bool   `toml:"use_secret_chats"`
}

type SchedulerConfig struct {
	ID    int `toml:"id"`
	Count int `toml:"count"`
}

func LoadDaemonConfig(path string) (DaemonConfig, error) {
	var cfg DaemonConfig
	if err := loadToml(path, &cfg); err != nil {
		return DaemonConfig{}, err
	}
	if cfg.Name == "" {
		cfg.Name = "wirectl"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9200"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Scheduler.Count == 0 {
		cfg.Scheduler.Count = 4
	}
	if err := ValidateDaemonConfig(cfg); err != nil {
		return DaemonConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateDaemonConfig(cfg DaemonConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("daemon config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("daemon config missing addr")
	}
	switch cfg.Storage.Backend {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(cfg.Storage.Path) == "" {
			return fmt.Errorf("storage path required for sqlite backend")
		}
	case "redis":
		if strings.TrimSpace(cfg.Storage.RedisAddr) == "" {
			return fmt.Errorf("redis_addr required for redis backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if cfg.Client.APIID == 0 {
		return fmt.Errorf("client config missing api_id")
	}
	if cfg.Scheduler.Count < 1 {
		return fmt.Errorf("scheduler count must be at least 1")
	}
	if cfg.Scheduler.ID < 0 || cfg.Scheduler.ID >= cfg.Scheduler.Count {
		return fmt.Errorf("scheduler id %d out of range [0, %d)", cfg.Scheduler.ID, cfg.Scheduler.Count)
	}
	return nil
}
