package main

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/Alp4ka/pagereader"
)

// Config describes one dump job.
type Config struct {
	Job        string           `yaml:"job"`
	Database   DatabaseConfig   `yaml:"database"`
	Query      QueryConfig      `yaml:"query"`
	Reader     ReaderConfig     `yaml:"reader"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

type DatabaseConfig struct {
	// Driver is one of mysql, postgres, sqlite.
	Driver string `yaml:"driver" default:"sqlite"`
	DSN    string `yaml:"dsn"`
}

type QueryConfig struct {
	Select []string `yaml:"select"`
	From   string   `yaml:"from"`
	// Where uses "?" placeholders bound from Parameters in the order of their
	// sorted names.
	Where      string         `yaml:"where"`
	Sort       []string       `yaml:"sort"`
	Parameters map[string]any `yaml:"parameters"`
}

type ReaderConfig struct {
	Name         string        `yaml:"name" default:"pagingReader"`
	PageSize     int           `yaml:"page_size" default:"1000"`
	FetchSize    int           `yaml:"fetch_size"`
	QueryTimeout time.Duration `yaml:"query_timeout" default:"30s"`
	Workers      int           `yaml:"workers" default:"1"`
	// BatchSize is the number of items written between two checkpoints.
	BatchSize int  `yaml:"batch_size" default:"1000"`
	SaveState bool `yaml:"save_state" default:"true"`
}

type CheckpointConfig struct {
	// Store is one of memory, leveldb, redis.
	Store       string        `yaml:"store" default:"memory"`
	Path        string        `yaml:"path" default:"./checkpoints"`
	RedisAddr   string        `yaml:"redis_addr" default:"localhost:6379"`
	RedisPrefix string        `yaml:"redis_prefix"`
	RedisTTL    time.Duration `yaml:"redis_ttl"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return parseConfig(data)
}

func parseConfig(data []byte) (*Config, error) {
	cfg := new(Config)
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("set config defaults: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Job == "":
		return fmt.Errorf("job name is required")
	case c.Database.DSN == "":
		return fmt.Errorf("database dsn is required")
	case c.Query.From == "":
		return fmt.Errorf("query from is required")
	case len(c.Query.Sort) == 0:
		return fmt.Errorf("query sort is required")
	case c.Reader.Workers <= 0:
		return fmt.Errorf("reader workers must be positive")
	case c.Reader.BatchSize <= 0:
		return fmt.Errorf("reader batch size must be positive")
	}

	if _, err := pagereader.ParseSortKeys(c.Query.Sort, nil); err != nil {
		return err
	}

	switch c.Database.Driver {
	case driverMySQL, driverPostgres, driverSQLite:
	default:
		return fmt.Errorf("unknown database driver '%s'", c.Database.Driver)
	}

	switch c.Checkpoint.Store {
	case storeMemory, storeLevelDB, storeRedis:
	default:
		return fmt.Errorf("unknown checkpoint store '%s'", c.Checkpoint.Store)
	}

	return nil
}
