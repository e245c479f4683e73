package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const yamlConfig = `
server:
  addr: ":9090"
logging:
  level: debug
  console: true
storage:
  path: ./arogya.db
  busy_timeout: 2s
providers:
  twilio:
    account_sid: AC123
    auth_token: tok
    sms_from: "+15550001111"
dispatch:
  rate_per_sec: 10
`

func TestParseYAML(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "config.yaml", yamlConfig))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr() != ":9090" {
		t.Fatalf("addr = %q", cfg.Server.ListenAddr())
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	if cfg.Providers.Twilio.AccountSID != "AC123" {
		t.Fatalf("twilio sid = %q", cfg.Providers.Twilio.AccountSID)
	}
	if cfg.Dispatch.RatePerSec != 10 {
		t.Fatalf("rate = %d", cfg.Dispatch.RatePerSec)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get should return the committed config")
	}
}

func TestParseJSON(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "config.json",
		`{"logging":{"console":true},"storage":{"path":"x.db"},"providers":{}}`))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Path != "x.db" {
		t.Fatalf("storage path = %q", cfg.Storage.Path)
	}
	if cfg.Server.ListenAddr() != ":8080" {
		t.Fatalf("default addr = %q", cfg.Server.ListenAddr())
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "config.json",
		`{"storage":{"path":"x.db"},"no_such_section":{}}`))
	if _, err := m.Load(); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing storage path should fail validation")
	}

	cfg.Storage.Path = "x.db"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cfg.Telegram.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("telegram without token should fail")
	}
	cfg.Telegram.Token = "t"

	cfg.Digest.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("digest without recipient should fail")
	}
	cfg.Digest.Recipient = "9876543210"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationField("storage.busy_timeout", "1500ms")
	if err != nil || d != 1500*time.Millisecond {
		t.Fatalf("got %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "banana"); err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
	d, err = ParseDurationOrDefault("x", "", 4*time.Second)
	if err != nil || d != 4*time.Second {
		t.Fatalf("default not applied: %v, %v", d, err)
	}
}
