package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"arogyabot/internal/alert"
	"arogyabot/pkg/logx"
)

func openTest(t *testing.T) Store {
	t.Helper()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestPreferenceRoundTrip(t *testing.T) {
	t.Parallel()
	st := openTest(t)
	ctx := context.Background()

	if _, ok, err := st.GetPreference(ctx, "Cuttack"); err != nil || ok {
		t.Fatalf("expected absent preference, got ok=%v err=%v", ok, err)
	}

	p := Preference{Region: "Cuttack", Language: "or", Contact: "9876543210", Enabled: true, Method: MethodBoth}
	if err := st.UpsertPreference(ctx, p); err != nil {
		t.Fatalf("UpsertPreference: %v", err)
	}

	// Region keys are case-insensitive.
	got, ok, err := st.GetPreference(ctx, "  CUTTACK ")
	if err != nil || !ok {
		t.Fatalf("GetPreference: ok=%v err=%v", ok, err)
	}
	if got.Language != "or" || got.Contact != "9876543210" || !got.Enabled || got.Method != MethodBoth {
		t.Fatalf("got %+v", got)
	}

	// Upsert overwrites.
	p.Enabled = false
	p.Method = MethodSMS
	if err := st.UpsertPreference(ctx, p); err != nil {
		t.Fatalf("UpsertPreference update: %v", err)
	}
	got, _, _ = st.GetPreference(ctx, "cuttack")
	if got.Enabled || got.Method != MethodSMS {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestAlertLogAppendOnly(t *testing.T) {
	t.Parallel()
	st := openTest(t)
	ctx := context.Background()

	ev := alert.NewEvent("dengue", "Cuttack", alert.SeverityHigh, "")
	if err := st.AppendAlert(ctx, ev); err != nil {
		t.Fatalf("AppendAlert: %v", err)
	}

	entries, err := st.AlertsSince(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("AlertsSince: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Disease != "dengue" || entries[0].Location != "Cuttack" {
		t.Fatalf("entry = %+v", entries[0])
	}

	// Duplicate IDs are rejected: the log is at-most-once per event.
	if err := st.AppendAlert(ctx, ev); err == nil {
		t.Fatal("duplicate append should fail")
	}
}

func TestContentSeeds(t *testing.T) {
	t.Parallel()
	st := openTest(t)
	ctx := context.Background()

	text, ok, err := st.FirstAid(ctx, "SnakeBite")
	if err != nil || !ok {
		t.Fatalf("FirstAid: ok=%v err=%v", ok, err)
	}
	if text == "" {
		t.Fatal("empty first-aid text")
	}

	if _, ok, _ := st.FirstAid(ctx, "nosuchthing"); ok {
		t.Fatal("unknown key should be absent, not an error")
	}

	if _, ok, err := st.Prevention(ctx, "dengue"); err != nil || !ok {
		t.Fatalf("Prevention: ok=%v err=%v", ok, err)
	}

	help, err := st.Helplines(ctx)
	if err != nil || help == "" {
		t.Fatalf("Helplines: %q err=%v", help, err)
	}
}

func TestOutbreaksRecordAndQuery(t *testing.T) {
	t.Parallel()
	st := openTest(t)
	ctx := context.Background()

	before, err := st.RecentOutbreaks(ctx, 10)
	if err != nil {
		t.Fatalf("RecentOutbreaks: %v", err)
	}
	if len(before) == 0 {
		t.Fatal("expected seeded outbreaks")
	}

	ev := alert.NewEvent("Dengue", "Cuttack", alert.SeverityCritical, "")
	if err := st.RecordOutbreak(ctx, ev); err != nil {
		t.Fatalf("RecordOutbreak: %v", err)
	}
	if err := st.RecordOutbreak(ctx, ev); err != nil {
		t.Fatalf("RecordOutbreak again: %v", err)
	}

	after, err := st.RecentOutbreaks(ctx, 10)
	if err != nil {
		t.Fatalf("RecentOutbreaks: %v", err)
	}
	var found *Outbreak
	for i := range after {
		if after[i].Disease == "dengue" && after[i].Location == "Cuttack" {
			found = &after[i]
		}
	}
	if found == nil {
		t.Fatal("recorded outbreak not returned")
	}
	if found.Cases != 2 {
		t.Fatalf("cases = %d, want 2", found.Cases)
	}
	if found.Severity != string(alert.SeverityCritical) {
		t.Fatalf("severity = %q", found.Severity)
	}
}
