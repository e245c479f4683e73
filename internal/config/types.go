package config

import (
	"errors"
	"strings"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Providers ProvidersConfig `json:"providers"`
	Dispatch  DispatchConfig  `json:"dispatch,omitempty"`
	Telegram  TelegramConfig  `json:"telegram,omitempty"`
	Digest    DigestConfig    `json:"digest,omitempty"`
}

type ServerConfig struct {
	// Addr is the HTTP listen address for webhooks and the admin API.
	Addr string `json:"addr,omitempty"` // default ":8080"
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"`
	Console bool       `json:"console"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

type StorageConfig struct {
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

// ProvidersConfig holds every transport credential explicitly. Adapters are
// constructed from these at startup; nothing reads ambient process state.
type ProvidersConfig struct {
	Twilio  TwilioConfig  `json:"twilio,omitempty"`
	MSG91   MSG91Config   `json:"msg91,omitempty"`
	Gupshup GupshupConfig `json:"gupshup,omitempty"`
}

type TwilioConfig struct {
	AccountSID   string `json:"account_sid,omitempty"`
	AuthToken    string `json:"auth_token,omitempty"`
	SMSFrom      string `json:"sms_from,omitempty"`
	WhatsAppFrom string `json:"whatsapp_from,omitempty"`
	Timeout      string `json:"timeout,omitempty"` // Go duration string
}

type MSG91Config struct {
	AuthKey  string `json:"auth_key,omitempty"`
	SenderID string `json:"sender_id,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

type GupshupConfig struct {
	APIKey  string `json:"api_key,omitempty"`
	AppName string `json:"app_name,omitempty"`
	Source  string `json:"source,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

type DispatchConfig struct {
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// TelegramConfig enables the optional chat-bot front-end.
type TelegramConfig struct {
	Enabled     bool   `json:"enabled"`
	Token       string `json:"token,omitempty"`
	PollTimeout string `json:"poll_timeout,omitempty"` // Go duration string
}

// DigestConfig schedules the periodic outbreak summary for operators.
type DigestConfig struct {
	Enabled bool `json:"enabled"`

	// Cron is a standard 5-field cron spec. Default: "0 8 * * *".
	Cron string `json:"cron,omitempty"`

	// Recipient receives the digest via the chat channel.
	Recipient string `json:"recipient,omitempty"`

	Language string `json:"language,omitempty"`
}

// Validate rejects configs the app cannot start with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("storage.path is required")
	}
	if c.Telegram.Enabled && strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.enabled requires telegram.token")
	}
	if c.Digest.Enabled && strings.TrimSpace(c.Digest.Recipient) == "" {
		return errors.New("digest.enabled requires digest.recipient")
	}
	return nil
}

// Addr returns the HTTP listen address with its default applied.
func (s ServerConfig) ListenAddr() string {
	if strings.TrimSpace(s.Addr) == "" {
		return ":8080"
	}
	return s.Addr
}
