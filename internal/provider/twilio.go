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

// TwilioConfig carries everything the adapter needs; nothing is read from
// ambient process state.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string

	// From is the sending number for SMS, or the WhatsApp-enabled number
	// when the adapter runs in chat mode.
	From string

	// BaseURL overrides the API endpoint (tests). Empty means production.
	BaseURL string

	Timeout time.Duration
}

// Twilio sends SMS (or WhatsApp messages, with whatsapp=true) through the
// Twilio Messages API.
type Twilio struct {
	cfg      TwilioConfig
	whatsapp bool
	http     *http.Client
	log      logx.Logger
}

func NewTwilioSMS(cfg TwilioConfig, log logx.Logger) *Twilio {
	return newTwilio(cfg, false, log)
}

func NewTwilioWhatsApp(cfg TwilioConfig, log logx.Logger) *Twilio {
	return newTwilio(cfg, true, log)
}

func newTwilio(cfg TwilioConfig, whatsapp bool, log logx.Logger) *Twilio {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Twilio{cfg: cfg, whatsapp: whatsapp, http: &http.Client{Timeout: timeout}, log: log}
}

func (t *Twilio) Name() string {
	if t.whatsapp {
		return "twilio-whatsapp"
	}
	return "twilio"
}

func (t *Twilio) Send(ctx context.Context, recipient, text string) Result {
	if t.cfg.AccountSID == "" || t.cfg.AuthToken == "" {
		return failure("%s: not configured", t.Name())
	}

	var to string
	if t.whatsapp {
		normalized, ok := normalizeChatRecipient(recipient)
		if !ok {
			return failure("%s: invalid recipient %q", t.Name(), recipient)
		}
		to = "whatsapp:" + normalized
	} else {
		normalized, ok := normalizeIndianMobile(recipient)
		if !ok {
			return failure("%s: invalid recipient %q", t.Name(), recipient)
		}
		to = normalized
	}

	from := t.cfg.From
	if t.whatsapp && !strings.HasPrefix(from, "whatsapp:") {
		from = "whatsapp:" + from
	}

	base := t.cfg.BaseURL
	if base == "" {
		base = "https://api.twilio.com"
	}
	endpoint := strings.TrimRight(base, "/") + "/2010-04-01/Accounts/" + t.cfg.AccountSID + "/Messages.json"

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return failure("%s: %v", t.Name(), err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)

	resp, err := t.http.Do(req)
	if err != nil {
		return failure("%s: %v", t.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return failure("%s: http %d", t.Name(), resp.StatusCode)
	}

	var body struct {
		SID string `json:"sid"`
	}
	// A missing sid is not a failure; the request was accepted.
	_ = json.NewDecoder(resp.Body).Decode(&body)

	t.log.Debug("message accepted", logx.String("provider", t.Name()), logx.String("sid", body.SID))
	return Result{OK: true, ID: body.SID}
}
