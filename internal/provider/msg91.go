package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"arogyabot/pkg/logx"
)

type MSG91Config struct {
	AuthKey  string
	SenderID string

	// BaseURL overrides the API endpoint (tests). Empty means production.
	BaseURL string

	Timeout time.Duration
}

// MSG91 is the fallback SMS carrier.
type MSG91 struct {
	cfg  MSG91Config
	http *http.Client
	log  logx.Logger
}

func NewMSG91(cfg MSG91Config, log logx.Logger) *MSG91 {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &MSG91{cfg: cfg, http: &http.Client{Timeout: timeout}, log: log}
}

func (m *MSG91) Name() string { return "msg91" }

func (m *MSG91) Send(ctx context.Context, recipient, text string) Result {
	if m.cfg.AuthKey == "" {
		return failure("msg91: not configured")
	}
	normalized, ok := normalizeIndianMobile(recipient)
	if !ok {
		return failure("msg91: invalid recipient %q", recipient)
	}

	base := m.cfg.BaseURL
	if base == "" {
		base = "https://control.msg91.com"
	}
	endpoint := strings.TrimRight(base, "/") + "/api/v5/flow/"

	payload := map[string]any{
		"sender":           m.cfg.SenderID,
		"mobiles":          strings.TrimPrefix(normalized, "+"),
		"message":          text,
		"route":            "4",
		"country":          "91",
		"short_url":        "0",
		"realTimeResponse": "1",
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return failure("msg91: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return failure("msg91: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authkey", m.cfg.AuthKey)

	resp, err := m.http.Do(req)
	if err != nil {
		return failure("msg91: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return failure("msg91: http %d", resp.StatusCode)
	}

	var body struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Type != "" && !strings.EqualFold(body.Type, "success") {
		return failure("msg91: %s", body.Message)
	}

	m.log.Debug("message accepted", logx.String("provider", "msg91"), logx.String("id", body.Message))
	return Result{OK: true, ID: body.Message}
}
