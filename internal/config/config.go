package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql atau postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	AI struct {
		OpenAIKey       string `yaml:"openaiKey"`
		GeminiKey       string `yaml:"geminiKey"`
		DefaultProvider string `yaml:"defaultProvider"`
		DefaultModel    string `yaml:"defaultModel"`
	} `yaml:"ai"`

	Auth struct {
		// api key per actor id
		Keys           map[string]string `yaml:"keys"`
		OverrideActors []string          `yaml:"overrideActors"`
	} `yaml:"auth"`

	Reviews struct {
		DefaultMode      string `yaml:"defaultMode"` // sync atau deferred
		QueuePollSeconds int    `yaml:"queuePollSeconds"`
		QueueBatch       int    `yaml:"queueBatch"`
		PolicyFile       string `yaml:"policyFile"`
	} `yaml:"reviews"`

	Workflows map[string]WorkflowConfig `yaml:"workflows"`
}

// WorkflowConfig petakan transisi state ke transition id
type WorkflowConfig struct {
	Transitions map[string]string `yaml:"transitions"` // "draft->published": "publish"
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Reviews.DefaultMode == "" {
		c.Reviews.DefaultMode = "sync"
	}
	if c.Reviews.QueuePollSeconds == 0 {
		c.Reviews.QueuePollSeconds = 5
	}
	if c.Reviews.QueueBatch == 0 {
		c.Reviews.QueueBatch = 10
	}
	if c.AI.DefaultProvider == "" {
		c.AI.DefaultProvider = "openai"
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Reviews.DefaultMode {
	case "sync", "deferred":
	default:
		return fmt.Errorf("invalid default run mode: %s", c.Reviews.DefaultMode)
	}
	if c.AI.OpenAIKey == "" && c.AI.GeminiKey == "" {
		return fmt.Errorf("at least one AI provider key must be configured")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		sslMode,
	)
}
