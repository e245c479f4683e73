// Package format renders outbreak alerts into channel-appropriate text.
//
// Three full localizations ship embedded (en, hi, or); any other language
// code silently falls back to English. Rendering never fails: unknown
// severities map to the low marker and unknown diseases get a per-language
// generic advisory.
package format

import (
	"embed"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"arogyabot/internal/alert"
)

//go:embed locales/*.json
var localeFS embed.FS

// Channel is a transport family with its own rendering constraints.
type Channel string

const (
	ChannelSMS  Channel = "sms"
	ChannelChat Channel = "chat"
	ChannelBot  Channel = "bot"
)

// SMSBudget is the single-segment SMS length constraint in runes.
const SMSBudget = 160

// Budget returns the channel's rendering budget in runes, 0 for unbudgeted.
func (c Channel) Budget() int {
	if c == ChannelSMS {
		return SMSBudget
	}
	return 0
}

// continuationHint closes a truncated compact rendering so the recipient
// still has a path to help.
const continuationHint = "… Call 108"

var severityMarkers = map[alert.Severity]string{
	alert.SeverityLow:      "🟡",
	alert.SeverityMedium:   "🟠",
	alert.SeverityHigh:     "🔴",
	alert.SeverityCritical: "🆘",
}

// SeverityMarker maps a severity to its visual marker. Unknown severities get
// the low marker, never an error.
func SeverityMarker(sev alert.Severity) string {
	if m, ok := severityMarkers[sev]; ok {
		return m
	}
	return severityMarkers[alert.SeverityLow]
}

type Formatter struct {
	bundle *i18n.Bundle
}

// New loads the embedded message catalogs. English is the fallback language
// for every unsupported or malformed language code.
func New() (*Formatter, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, name := range []string{"locales/en.json", "locales/hi.json", "locales/or.json"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, name); err != nil {
			return nil, err
		}
	}
	return &Formatter{bundle: bundle}, nil
}

// Render produces the full alert text for chat-style channels.
//
// The output always carries: severity marker, upper-cased disease, location
// as supplied, upper-cased severity label, body text, and the emergency
// footer.
func (f *Formatter) Render(ev alert.Event, lang string) string {
	loc := i18n.NewLocalizer(f.bundle, lang)

	title := f.localize(loc, "alert.title", map[string]any{
		"Disease": strings.ToUpper(ev.Disease),
	})
	location := f.localize(loc, "alert.location", map[string]any{
		"Location": ev.Location,
	})
	severity := f.localize(loc, "alert.severity", map[string]any{
		"Severity": strings.ToUpper(string(ev.Severity)),
	})

	var b strings.Builder
	b.WriteString(SeverityMarker(ev.Severity))
	b.WriteString(" *")
	b.WriteString(title)
	b.WriteString("*\n")
	b.WriteString("📍 ")
	b.WriteString(location)
	b.WriteString("\n⚠️ ")
	b.WriteString(severity)
	b.WriteString("\n\n")
	b.WriteString(f.body(loc, ev))
	b.WriteString("\n\n")
	b.WriteString(f.localize(loc, "alert.footer", nil))
	return b.String()
}

// RenderCompact produces the budgeted rendering for strict-length channels:
// emphasis markup and decorative separators stripped, whitespace collapsed,
// then rune-safe truncation with a fixed continuation hint.
//
// The result never exceeds budget runes. A budget <= 0 means unbudgeted and
// only the compaction applies.
func (f *Formatter) RenderCompact(ev alert.Event, lang string, budget int) string {
	s := compact(f.Render(ev, lang))
	if budget <= 0 || utf8.RuneCountInString(s) <= budget {
		return s
	}
	keep := budget - utf8.RuneCountInString(continuationHint)
	if keep <= 0 {
		// Budget too small for any content; the hint itself gets clamped.
		return truncRunes(continuationHint, budget)
	}
	return truncRunes(s, keep) + continuationHint
}

// RenderFor picks the rendering mode for a channel.
func (f *Formatter) RenderFor(ev alert.Event, lang string, ch Channel) string {
	if budget := ch.Budget(); budget > 0 {
		return f.RenderCompact(ev, lang, budget)
	}
	return f.Render(ev, lang)
}

// DigestItem is one outbreak line of the operator digest.
type DigestItem struct {
	Disease  string
	Location string
	Cases    int
	Severity string
}

// Digest renders the periodic outbreak summary for operators. Disease names
// are upper-cased; locations, counts and severity labels stay as stored.
func (f *Formatter) Digest(lang string, date time.Time, items []DigestItem) string {
	loc := i18n.NewLocalizer(f.bundle, lang)

	var b strings.Builder
	b.WriteString(f.localize(loc, "digest.title", map[string]any{
		"Date": date.Format("02 Jan 2006"),
	}))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString(f.localize(loc, "digest.empty", nil))
		return b.String()
	}
	for _, it := range items {
		b.WriteString(f.localize(loc, "digest.line", map[string]any{
			"Disease":  strings.ToUpper(it.Disease),
			"Location": it.Location,
			"Cases":    it.Cases,
			"Severity": it.Severity,
		}))
		b.WriteString("\n")
	}
	b.WriteString(f.localize(loc, "alert.footer", nil))
	return b.String()
}

func (f *Formatter) body(loc *i18n.Localizer, ev alert.Event) string {
	if strings.TrimSpace(ev.CustomMessage) != "" {
		return strings.TrimSpace(ev.CustomMessage)
	}
	key := "disease." + strings.ToLower(strings.TrimSpace(ev.Disease))
	if msg, err := loc.Localize(&i18n.LocalizeConfig{MessageID: key}); err == nil {
		return msg
	}
	return f.localize(loc, "disease.default", nil)
}

func (f *Formatter) localize(loc *i18n.Localizer, id string, data map[string]any) string {
	msg, err := loc.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		return id
	}
	return msg
}

// compact strips emphasis characters and collapses all whitespace runs to
// single spaces.
func compact(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '*', '_', '`', '~':
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// truncRunes returns s truncated to at most n runes.
func truncRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
