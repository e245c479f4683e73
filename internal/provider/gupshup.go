package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"arogyabot/pkg/logx"
)

type GupshupConfig struct {
	APIKey string

	// AppName identifies the registered WhatsApp business app.
	AppName string

	// Source is the registered sending number (country code, no plus).
	Source string

	// BaseURL overrides the API endpoint (tests). Empty means production.
	BaseURL string

	Timeout time.Duration
}

// Gupshup is the fallback WhatsApp-style chat carrier.
type Gupshup struct {
	cfg  GupshupConfig
	http *http.Client
	log  logx.Logger
}

func NewGupshup(cfg GupshupConfig, log logx.Logger) *Gupshup {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Gupshup{cfg: cfg, http: &http.Client{Timeout: timeout}, log: log}
}

func (g *Gupshup) Name() string { return "gupshup" }

func (g *Gupshup) Send(ctx context.Context, recipient, text string) Result {
	if g.cfg.APIKey == "" {
		return failure("gupshup: not configured")
	}
	normalized, ok := normalizeChatRecipient(recipient)
	if !ok {
		return failure("gupshup: invalid recipient %q", recipient)
	}

	base := g.cfg.BaseURL
	if base == "" {
		base = "https://api.gupshup.io"
	}
	endpoint := strings.TrimRight(base, "/") + "/wa/api/v1/msg"

	msg, err := json.Marshal(map[string]string{"type": "text", "text": text})
	if err != nil {
		return failure("gupshup: %v", err)
	}

	form := url.Values{}
	form.Set("channel", "whatsapp")
	form.Set("source", g.cfg.Source)
	form.Set("destination", strings.TrimPrefix(normalized, "+"))
	form.Set("src.name", g.cfg.AppName)
	form.Set("message", string(msg))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return failure("gupshup: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", g.cfg.APIKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return failure("gupshup: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return failure("gupshup: http %d", resp.StatusCode)
	}

	var body struct {
		Status    string `json:"status"`
		MessageID string `json:"messageId"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Status != "" && !strings.EqualFold(body.Status, "submitted") {
		return failure("gupshup: status %s", body.Status)
	}

	g.log.Debug("message accepted", logx.String("provider", "gupshup"), logx.String("id", body.MessageID))
	return Result{OK: true, ID: body.MessageID}
}
