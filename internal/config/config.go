package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type APIConfig struct {
	Port int    `yaml:"port"`
	Key  string `yaml:"key"` // bearer key for the submission API
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type QueueConfig struct {
	Stream            string        `yaml:"stream"`
	Group             string        `yaml:"group"`
	Consumer          string        `yaml:"consumer"`
	BatchSize         int64         `yaml:"batch_size"`         // max messages per delivery
	Block             time.Duration `yaml:"block"`              // receive block duration
	VisibilityTimeout time.Duration `yaml:"visibility_timeout"` // unacked redelivery lease
}

type PrepareConfig struct {
	ChunkSize           int `yaml:"chunk_size"`
	ValidateConcurrency int `yaml:"validate_concurrency"`
}

type WorkerConfig struct {
	PoolWorkers    int `yaml:"pool_workers"`    // concurrent messages
	DocConcurrency int `yaml:"doc_concurrency"` // concurrent documents per message
	MetricsPort    int `yaml:"metrics_port"`
}

type AIConfig struct {
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	DefaultModel    string        `yaml:"default_model"`
	Timeout         time.Duration `yaml:"timeout"`          // per analyze call
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent engine calls
}

type ContentConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint64        `yaml:"max_retries"`
}

type AlertsConfig struct {
	TelegramToken string `yaml:"telegram_token"`
	ChatID        int64  `yaml:"chat_id"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Queue    QueueConfig    `yaml:"queue"`
	Prepare  PrepareConfig  `yaml:"prepare"`
	Worker   WorkerConfig   `yaml:"worker"`
	AI       AIConfig       `yaml:"ai"`
	Content  ContentConfig  `yaml:"content"`
	Alerts   AlertsConfig   `yaml:"alerts"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Queue.Stream == "" {
		cfg.Queue.Stream = "analysis:chunks"
	}
	if cfg.Queue.Group == "" {
		cfg.Queue.Group = "analysis-workers"
	}
	if cfg.Queue.Consumer == "" {
		host, _ := os.Hostname()
		if host == "" {
			host = "worker"
		}
		cfg.Queue.Consumer = host
	}
	if cfg.Queue.BatchSize <= 0 {
		cfg.Queue.BatchSize = 5
	}
	if cfg.Queue.Block <= 0 {
		cfg.Queue.Block = 5 * time.Second
	}
	if cfg.Queue.VisibilityTimeout <= 0 {
		cfg.Queue.VisibilityTimeout = 5 * time.Minute
	}
	if cfg.Prepare.ChunkSize <= 0 {
		cfg.Prepare.ChunkSize = 10
	}
	if cfg.Prepare.ValidateConcurrency <= 0 {
		cfg.Prepare.ValidateConcurrency = 8
	}
	if cfg.Worker.PoolWorkers <= 0 {
		cfg.Worker.PoolWorkers = 4
	}
	if cfg.Worker.DocConcurrency <= 0 {
		cfg.Worker.DocConcurrency = 5
	}
	if cfg.Worker.MetricsPort == 0 {
		cfg.Worker.MetricsPort = 9090
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60 * time.Second
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.Content.Timeout <= 0 {
		cfg.Content.Timeout = 15 * time.Second
	}
	if cfg.Content.MaxRetries == 0 {
		cfg.Content.MaxRetries = 3
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Content.BaseURL == "" {
		return nil, errors.New("content.base_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
