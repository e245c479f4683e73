package format

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"arogyabot/internal/alert"
)

func newFormatter(t *testing.T) *Formatter {
	t.Helper()
	f, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestRenderContainsRequiredParts(t *testing.T) {
	t.Parallel()
	f := newFormatter(t)
	ev := alert.NewEvent("dengue", "Cuttack", alert.SeverityHigh, "")

	out := f.Render(ev, "en")
	for _, want := range []string{"🔴", "DENGUE", "Cuttack", "HIGH", "Call 108"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Render missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderLanguageFallback(t *testing.T) {
	t.Parallel()
	f := newFormatter(t)
	ev := alert.NewEvent("cholera", "Puri", alert.SeverityMedium, "")

	for _, lang := range []string{"fr", "xx", "", "zz-ZZ", "en-US"} {
		out := f.Render(ev, lang)
		if out == "" {
			t.Fatalf("Render(%q) returned empty", lang)
		}
		if !strings.Contains(out, "CHOLERA") || !strings.Contains(out, "Puri") {
			t.Fatalf("Render(%q) missing disease/location:\n%s", lang, out)
		}
		if !strings.Contains(out, "Call 108") {
			t.Fatalf("Render(%q) missing emergency footer", lang)
		}
	}
}

func TestRenderLocalized(t *testing.T) {
	t.Parallel()
	f := newFormatter(t)
	ev := alert.NewEvent("malaria", "Koraput", alert.SeverityCritical, "")

	hi := f.Render(ev, "hi")
	if !strings.Contains(hi, "प्रकोप चेतावनी") || !strings.Contains(hi, "108") {
		t.Fatalf("hindi rendering missing localized parts:\n%s", hi)
	}
	or := f.Render(ev, "or")
	if !strings.Contains(or, "ପ୍ରକୋପ ସତର୍କତା") {
		t.Fatalf("odia rendering missing localized title:\n%s", or)
	}
}

func TestRenderCustomMessageWins(t *testing.T) {
	t.Parallel()
	f := newFormatter(t)
	ev := alert.NewEvent("dengue", "Cuttack", alert.SeverityMedium, "Boil water before drinking.")

	out := f.Render(ev, "en")
	if !strings.Contains(out, "Boil water before drinking.") {
		t.Fatalf("custom message not used:\n%s", out)
	}
}

func TestRenderUnknownDiseaseUsesDefaultBody(t *testing.T) {
	t.Parallel()
	f := newFormatter(t)
	ev := alert.NewEvent("nipah", "Balasore", alert.SeverityHigh, "")

	out := f.Render(ev, "en")
	if !strings.Contains(out, "nearest health centre") {
		t.Fatalf("default body missing:\n%s", out)
	}
}

func TestSeverityMarkerUnknownDefaultsLow(t *testing.T) {
	t.Parallel()
	if got := SeverityMarker(alert.Severity("weird")); got != SeverityMarker(alert.SeverityLow) {
		t.Fatalf("unknown severity marker = %q", got)
	}
}

func TestRenderCompactBudget(t *testing.T) {
	t.Parallel()
	f := newFormatter(t)

	long := strings.Repeat("stay indoors and drink boiled water ", 20)
	tests := []struct {
		name string
		ev   alert.Event
	}{
		{name: "default body", ev: alert.NewEvent("dengue", "Cuttack", alert.SeverityMedium, "")},
		{name: "long custom", ev: alert.NewEvent("cholera", "Bhubaneswar", alert.SeverityCritical, long)},
		{name: "long location", ev: alert.NewEvent("malaria", strings.Repeat("Very Long Place ", 30), alert.SeverityLow, "")},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			out := f.RenderCompact(tt.ev, "en", SMSBudget)
			if n := utf8.RuneCountInString(out); n > SMSBudget {
				t.Fatalf("compact rendering %d runes, budget %d:\n%s", n, SMSBudget, out)
			}
			if strings.ContainsAny(out, "*_") {
				t.Fatalf("emphasis markup not stripped:\n%s", out)
			}
			if strings.Contains(out, "\n") {
				t.Fatalf("whitespace not collapsed:\n%q", out)
			}
		})
	}
}

func TestRenderCompactTinyBudget(t *testing.T) {
	t.Parallel()
	f := newFormatter(t)
	ev := alert.NewEvent("dengue", "Cuttack", alert.SeverityMedium, "")

	for _, budget := range []int{1, 4, 9, 10, 11} {
		out := f.RenderCompact(ev, "en", budget)
		if n := utf8.RuneCountInString(out); n > budget {
			t.Fatalf("budget %d produced %d runes: %q", budget, n, out)
		}
	}
}

func TestRenderCompactTruncationMarker(t *testing.T) {
	t.Parallel()
	f := newFormatter(t)
	ev := alert.NewEvent("cholera", "Bhubaneswar", alert.SeverityHigh, strings.Repeat("x", 500))

	out := f.RenderCompact(ev, "en", SMSBudget)
	if !strings.HasSuffix(out, "… Call 108") {
		t.Fatalf("truncated rendering should end with continuation hint, got:\n%q", out)
	}
}

func TestDigest(t *testing.T) {
	t.Parallel()
	f := newFormatter(t)
	date := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	items := []DigestItem{
		{Disease: "dengue", Location: "Bhubaneswar", Cases: 42, Severity: "high"},
		{Disease: "cholera", Location: "Cuttack", Cases: 17, Severity: "medium"},
	}

	en := f.Digest("en", date, items)
	for _, want := range []string{
		"OUTBREAK DIGEST 31 Aug 2026",
		"DENGUE, Bhubaneswar: 42 cases (high)",
		"CHOLERA, Cuttack: 17 cases (medium)",
		"Call 108",
	} {
		if !strings.Contains(en, want) {
			t.Fatalf("digest missing %q:\n%s", want, en)
		}
	}

	hi := f.Digest("hi", date, items)
	if !strings.Contains(hi, "प्रकोप सारांश") || !strings.Contains(hi, "42 मामले") {
		t.Fatalf("hindi digest not localized:\n%s", hi)
	}

	// Unsupported language falls back to English, like alert rendering.
	fr := f.Digest("fr", date, items)
	if !strings.Contains(fr, "OUTBREAK DIGEST") {
		t.Fatalf("fallback digest:\n%s", fr)
	}
}

func TestDigestEmpty(t *testing.T) {
	t.Parallel()
	f := newFormatter(t)
	got := f.Digest("en", time.Now(), nil)
	if !strings.Contains(got, "No outbreaks on record.") {
		t.Fatalf("empty digest = %q", got)
	}
}

func TestRenderForChannels(t *testing.T) {
	t.Parallel()
	f := newFormatter(t)
	ev := alert.NewEvent("dengue", "Cuttack", alert.SeverityMedium, "")

	sms := f.RenderFor(ev, "en", ChannelSMS)
	if utf8.RuneCountInString(sms) > SMSBudget {
		t.Fatalf("sms rendering over budget")
	}
	chat := f.RenderFor(ev, "en", ChannelChat)
	if chat != f.Render(ev, "en") {
		t.Fatalf("chat rendering should be the full rendering")
	}
}
