package bot

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"arogyabot/internal/dispatch"
	"arogyabot/internal/format"
	"arogyabot/internal/provider"
	"arogyabot/internal/storage"
	"arogyabot/pkg/logx"
)

type fakeProvider struct {
	name  string
	res   provider.Result
	calls int
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Send(ctx context.Context, recipient, text string) provider.Result {
	f.calls++
	return f.res
}

type fixture struct {
	svc   *Service
	store storage.Store
	sms   *fakeProvider
	sms2  *fakeProvider
	chat  *fakeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "bot.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	f, err := format.New()
	if err != nil {
		t.Fatalf("format.New: %v", err)
	}

	fx := &fixture{
		store: st,
		sms:   &fakeProvider{name: "twilio", res: provider.Result{OK: true, ID: "SM1"}},
		sms2:  &fakeProvider{name: "msg91", res: provider.Result{OK: true, ID: "m1"}},
		chat:  &fakeProvider{name: "gupshup", res: provider.Result{OK: true, ID: "g1"}},
	}
	smsChain := provider.Chain{Channel: "sms", Providers: []provider.Adapter{fx.sms, fx.sms2}, Log: logx.Nop()}
	chatChain := provider.Chain{Channel: "chat", Providers: []provider.Adapter{fx.chat}, Log: logx.Nop()}
	b := dispatch.New(dispatch.Config{RatePerSec: 100}, st, f, smsChain, chatChain, logx.Nop())
	fx.svc = New(st, b, logx.Nop())
	return fx
}

func TestHelpReply(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	out := fx.svc.HandleInbound(context.Background(), "u1", "help")
	for _, want := range []string{"HELP", "FIRSTAID", "PREVENT", "ALERT", "STATS", "108"} {
		if !strings.Contains(out, want) {
			t.Fatalf("help reply missing %q:\n%s", want, out)
		}
	}
}

func TestFirstAidHitAndMiss(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	hit := fx.svc.HandleInbound(context.Background(), "u1", "FIRSTAID snakebite")
	if !strings.Contains(hit, "SNAKEBITE") || !strings.Contains(hit, "anti-venom") {
		t.Fatalf("first-aid hit reply:\n%s", hit)
	}

	miss := fx.svc.HandleInbound(context.Background(), "u1", "FIRSTAID dragonbite")
	if !strings.Contains(miss, "No first-aid entry") || !strings.Contains(miss, "108") {
		t.Fatalf("first-aid miss reply:\n%s", miss)
	}
}

func TestPreventHitAndMiss(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	hit := fx.svc.HandleInbound(context.Background(), "u1", "prevent dengue")
	if !strings.Contains(hit, "DENGUE PREVENTION") {
		t.Fatalf("prevention reply:\n%s", hit)
	}

	miss := fx.svc.HandleInbound(context.Background(), "u1", "prevent something")
	if !strings.Contains(miss, "No prevention tips") {
		t.Fatalf("prevention miss reply:\n%s", miss)
	}
}

func TestStatsListsSeededOutbreaks(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	out := fx.svc.HandleInbound(context.Background(), "u1", "STATS")
	if !strings.Contains(out, "RECENT OUTBREAKS") || !strings.Contains(out, "DENGUE") {
		t.Fatalf("stats reply:\n%s", out)
	}
}

func TestUnknownCommandReply(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	out := fx.svc.HandleInbound(context.Background(), "u1", "weather today")
	if !strings.Contains(out, "HELP") || !strings.Contains(out, "108") {
		t.Fatalf("unknown reply must point at HELP and 108:\n%s", out)
	}
}

func TestAlertFormatError(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	out := fx.svc.HandleInbound(context.Background(), "u1", "ALERT")
	if !strings.Contains(out, "ALERT <disease> <location>") {
		t.Fatalf("format-error reply:\n%s", out)
	}
	if strings.Contains(out, "did not understand") {
		t.Fatalf("validation failure rendered as unknown command:\n%s", out)
	}
}

func TestAlertEndToEndSMS(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := context.Background()
	err := fx.store.UpsertPreference(ctx, storage.Preference{
		Region: "Cuttack", Language: "en", Contact: "9876543210",
		Enabled: true, Method: storage.MethodSMS,
	})
	if err != nil {
		t.Fatalf("UpsertPreference: %v", err)
	}

	out := fx.svc.HandleInbound(ctx, "u1", "ALERT dengue Cuttack")
	if !strings.Contains(out, "ALERT LOGGED") {
		t.Fatalf("reply:\n%s", out)
	}
	if !strings.Contains(out, "DENGUE") || !strings.Contains(out, "Cuttack") {
		t.Fatalf("reply missing disease/location:\n%s", out)
	}
	if fx.sms.calls != 1 {
		t.Fatalf("sms provider called %d times, want 1", fx.sms.calls)
	}
	if fx.sms2.calls != 0 || fx.chat.calls != 0 {
		t.Fatalf("unexpected provider calls: sms2=%d chat=%d", fx.sms2.calls, fx.chat.calls)
	}
}

func TestAlertEndToEndFallback(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := context.Background()
	fx.sms.res = provider.Result{Err: "timeout"}
	_ = fx.store.UpsertPreference(ctx, storage.Preference{
		Region: "Cuttack", Language: "en", Contact: "9876543210",
		Enabled: true, Method: storage.MethodSMS,
	})

	out := fx.svc.HandleInbound(ctx, "u1", "ALERT dengue Cuttack")
	if !strings.Contains(out, "ALERT LOGGED") {
		t.Fatalf("reply:\n%s", out)
	}
	if fx.sms.calls != 1 || fx.sms2.calls != 1 {
		t.Fatalf("fallback not exercised: primary=%d fallback=%d", fx.sms.calls, fx.sms2.calls)
	}
}

func TestAlertUnknownRegionStillLogged(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := context.Background()

	out := fx.svc.HandleInbound(ctx, "u1", "ALERT dengue Unknown Town")
	if !strings.Contains(out, "ALERT LOGGED") {
		t.Fatalf("reply:\n%s", out)
	}
	if fx.sms.calls != 0 && fx.chat.calls != 0 {
		t.Fatalf("no provider should be invoked for an unsubscribed region")
	}
}

func TestRepliesNeverEmpty(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	for _, raw := range []string{"", "help", "HELP", "firstaid", "prevent", "stats", "ALERT", "ALERT x y", "gibberish", "   "} {
		if out := fx.svc.HandleInbound(context.Background(), "u1", raw); strings.TrimSpace(out) == "" {
			t.Fatalf("empty reply for input %q", raw)
		}
	}
}
