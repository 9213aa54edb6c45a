package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adityarama/tutorlens/internal/domain/jobs"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  driver: mysql
  host: localhost
  port: 3306
  user: tutorlens
  password: secret
  name: tutorlens
webhook:
  baseURL: https://ai.example.com/generate
  urls:
    parent_report: https://ai.example.com/parent
  timeoutSeconds: 90
credits:
  report: 20
apiKeys:
  key-abc: op-1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if got := cfg.MySQLDSN(); got != "tutorlens:secret@tcp(localhost:3306)/tutorlens?parseTime=true&charset=utf8mb4&loc=UTC" {
		t.Errorf("mysql dsn = %s", got)
	}
	if cfg.APIKeys["key-abc"] != "op-1" {
		t.Errorf("api keys = %v", cfg.APIKeys)
	}
}

func TestWebhookURLPerTypeOverride(t *testing.T) {
	path := writeConfig(t, `
webhook:
  baseURL: https://ai.example.com/generate
  urls:
    parent_report: https://ai.example.com/parent
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.WebhookURL(jobs.TypeReport); got != "https://ai.example.com/generate" {
		t.Errorf("report url = %s, want baseURL", got)
	}
	if got := cfg.WebhookURL(jobs.TypeParentReport); got != "https://ai.example.com/parent" {
		t.Errorf("parent_report url = %s, want override", got)
	}
}

func TestWebhookTimeoutDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.WebhookTimeout(); got != 60*time.Second {
		t.Errorf("timeout = %v, want 60s default", got)
	}
	cfg.Webhook.TimeoutSeconds = 10
	if got := cfg.WebhookTimeout(); got != 10*time.Second {
		t.Errorf("timeout = %v, want configured 10s", got)
	}
}

func TestCreditCostsMerge(t *testing.T) {
	cfg := &Config{Credits: map[string]int{"report": 20}}
	costs := cfg.CreditCosts()
	if costs[jobs.TypeReport] != 20 {
		t.Errorf("report cost = %d, want override 20", costs[jobs.TypeReport])
	}
	if costs[jobs.TypeParentReport] != jobs.DefaultCosts[jobs.TypeParentReport] {
		t.Errorf("parent_report cost = %d, want default", costs[jobs.TypeParentReport])
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "database:\n  driver: sqlite\n"},
		{"bad webhook scheme", "webhook:\n  baseURL: ftp://x.example.com/y\n"},
		{"webhook url without host", "webhook:\n  baseURL: https:///path\n"},
		{"unknown job type in urls", "webhook:\n  urls:\n    scan: https://x.example.com/y\n"},
		{"unknown job type in credits", "credits:\n  scan: 5\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Error("Load accepted invalid config")
			}
		})
	}
}

func TestPostgresDSNDefaultsSSLMode(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "db"
	cfg.Database.Port = 5432
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Name = "tutorlens"
	want := "host=db port=5432 user=u password=p dbname=tutorlens sslmode=disable"
	if got := cfg.PostgresDSN(); got != want {
		t.Errorf("dsn = %s, want %s", got, want)
	}
}
