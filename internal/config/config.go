package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adityarama/tutorlens/internal/domain/jobs"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | inmem
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Webhook struct {
		BaseURL        string            `yaml:"baseURL"`
		URLs           map[string]string `yaml:"urls"` // per job type, overrides baseURL
		TimeoutSeconds int               `yaml:"timeoutSeconds"`
	} `yaml:"webhook"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	// Credits overrides the default per-job-type cost schedule.
	Credits map[string]int `yaml:"credits"`

	// APIKeys maps api key -> operator id.
	APIKeys map[string]string `yaml:"apiKeys"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`
}

// Load reads the config.yaml file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "", "mysql", "postgres", "inmem":
	default:
		return fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}
	// outbound URLs come from config, not request input; validate them here
	if c.Webhook.BaseURL != "" {
		if err := checkURL(c.Webhook.BaseURL); err != nil {
			return fmt.Errorf("webhook.baseURL: %w", err)
		}
	}
	for t, u := range c.Webhook.URLs {
		if !jobs.Type(t).Valid() {
			return fmt.Errorf("webhook.urls: unknown job type %q", t)
		}
		if err := checkURL(u); err != nil {
			return fmt.Errorf("webhook.urls[%s]: %w", t, err)
		}
	}
	for t := range c.Credits {
		if !jobs.Type(t).Valid() {
			return fmt.Errorf("credits: unknown job type %q", t)
		}
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
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
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}

// CreditCosts merges config overrides over the default schedule.
func (c *Config) CreditCosts() map[jobs.Type]int {
	costs := make(map[jobs.Type]int, len(jobs.DefaultCosts))
	for t, n := range jobs.DefaultCosts {
		costs[t] = n
	}
	for t, n := range c.Credits {
		costs[jobs.Type(t)] = n
	}
	return costs
}

// WebhookURL resolves the outbound URL for a job type.
func (c *Config) WebhookURL(t jobs.Type) string {
	if u, ok := c.Webhook.URLs[string(t)]; ok {
		return u
	}
	return c.Webhook.BaseURL
}

// WebhookTimeout with a default suited to a long-running AI upstream.
func (c *Config) WebhookTimeout() time.Duration {
	if c.Webhook.TimeoutSeconds > 0 {
		return time.Duration(c.Webhook.TimeoutSeconds) * time.Second
	}
	return 60 * time.Second
}
