// Package storage persists regional delivery preferences, the append-only
// alert log, and the static advisory content the command paths serve.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"arogyabot/internal/alert"
	"arogyabot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Store is the persistence API the dispatcher and command paths consume.
type Store interface {
	GetPreference(ctx context.Context, region string) (Preference, bool, error)
	UpsertPreference(ctx context.Context, p Preference) error

	AppendAlert(ctx context.Context, ev alert.Event) error
	AlertsSince(ctx context.Context, since time.Time) ([]AlertEntry, error)

	FirstAid(ctx context.Context, key string) (string, bool, error)
	Prevention(ctx context.Context, key string) (string, bool, error)
	Helplines(ctx context.Context) (string, error)
	RecentOutbreaks(ctx context.Context, limit int) ([]Outbreak, error)
	RecordOutbreak(ctx context.Context, ev alert.Event) error

	Ping(ctx context.Context) error
	Close() error
}

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open initializes the sqlite store and runs migrations (which also seed the
// static advisory content).
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	return s.db.PingContext(ctx)
}

// regionKey owns the preference-key normalization: free-form location names
// match case-insensitively.
func regionKey(region string) string {
	return strings.ToLower(strings.TrimSpace(region))
}

func (s *sqliteStore) GetPreference(ctx context.Context, region string) (Preference, bool, error) {
	var (
		p       Preference
		enabled int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT region, language, contact, enabled, method FROM preferences WHERE region = ?`,
		regionKey(region),
	).Scan(&p.Region, &p.Language, &p.Contact, &enabled, (*string)(&p.Method))
	if errors.Is(err, sql.ErrNoRows) {
		return Preference{}, false, nil
	}
	if err != nil {
		return Preference{}, false, err
	}
	p.Enabled = enabled != 0
	return p, true, nil
}

func (s *sqliteStore) UpsertPreference(ctx context.Context, p Preference) error {
	if strings.TrimSpace(p.Region) == "" {
		return errors.New("preference region is required")
	}
	lang := p.Language
	if lang == "" {
		lang = "en"
	}
	method := p.Method
	if method == "" {
		method = MethodSMS
	}
	enabled := 0
	if p.Enabled {
		enabled = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences(region, language, contact, enabled, method) VALUES(?,?,?,?,?)
		 ON CONFLICT(region) DO UPDATE SET
		   language=excluded.language, contact=excluded.contact,
		   enabled=excluded.enabled, method=excluded.method`,
		regionKey(p.Region), lang, p.Contact, enabled, string(method),
	)
	return err
}

func (s *sqliteStore) AppendAlert(ctx context.Context, ev alert.Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alert_log(id, disease, location, severity, at) VALUES(?,?,?,?,?)`,
		ev.ID, ev.Disease, ev.Location, string(ev.Severity), at.Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) AlertsSince(ctx context.Context, since time.Time) ([]AlertEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, disease, location, severity, at FROM alert_log WHERE at >= ? ORDER BY at DESC`,
		since.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AlertEntry
	for rows.Next() {
		var (
			e  AlertEntry
			at string
		)
		if err := rows.Scan(&e.ID, &e.Disease, &e.Location, &e.Severity, &at); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) FirstAid(ctx context.Context, key string) (string, bool, error) {
	return s.contentLookup(ctx, "first_aid", key)
}

func (s *sqliteStore) Prevention(ctx context.Context, key string) (string, bool, error) {
	return s.contentLookup(ctx, "prevention", key)
}

func (s *sqliteStore) contentLookup(ctx context.Context, table, key string) (string, bool, error) {
	var text string
	// table is one of two fixed names, never user input.
	err := s.db.QueryRowContext(ctx,
		`SELECT text FROM `+table+` WHERE key = ?`,
		strings.ToLower(strings.TrimSpace(key)),
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (s *sqliteStore) Helplines(ctx context.Context) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `SELECT text FROM helplines ORDER BY id LIMIT 1`).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return text, err
}

func (s *sqliteStore) RecentOutbreaks(ctx context.Context, limit int) ([]Outbreak, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT disease, location, cases, date, severity FROM outbreaks ORDER BY date DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Outbreak
	for rows.Next() {
		var (
			o    Outbreak
			date string
		)
		if err := rows.Scan(&o.Disease, &o.Location, &o.Cases, &date, &o.Severity); err != nil {
			return nil, err
		}
		o.Date, _ = time.Parse(time.RFC3339, date)
		out = append(out, o)
	}
	return out, rows.Err()
}

// RecordOutbreak bumps the case count for a reported disease/location pair so
// STATS reflects field reports.
func (s *sqliteStore) RecordOutbreak(ctx context.Context, ev alert.Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbreaks(disease, location, cases, date, severity) VALUES(?,?,1,?,?)
		 ON CONFLICT(disease, location) DO UPDATE SET
		   cases = cases + 1, date = excluded.date, severity = excluded.severity`,
		strings.ToLower(ev.Disease), ev.Location, at.Format(time.RFC3339), string(ev.Severity),
	)
	return err
}
