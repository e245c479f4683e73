package alert

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity grades an outbreak report. Unknown inputs parse to SeverityMedium,
// the reporting default.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func ParseSeverity(raw string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(raw))) {
	case SeverityLow:
		return SeverityLow
	case SeverityHigh:
		return SeverityHigh
	case SeverityCritical:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// Event is a single outbreak report. It is appended to the alert log before
// any dispatch is attempted and never mutated afterwards.
type Event struct {
	ID            string
	Disease       string
	Location      string
	Severity      Severity
	CustomMessage string
	At            time.Time
}

// NewEvent builds an Event with a fresh ID and timestamp.
func NewEvent(disease, location string, sev Severity, custom string) Event {
	if sev == "" {
		sev = SeverityMedium
	}
	return Event{
		ID:            uuid.NewString(),
		Disease:       disease,
		Location:      location,
		Severity:      sev,
		CustomMessage: custom,
		At:            time.Now().UTC(),
	}
}

// Outcome is the combined result of one broadcast. It is computed fresh per
// call and never persisted.
type Outcome struct {
	Success  bool     `json:"success"`
	Sent     int      `json:"sent"`
	Errors   []string `json:"errors"`
	Provider string   `json:"provider,omitempty"`

	// Skipped marks the no-preference / notifications-disabled case, which is
	// a success with zero sends rather than a failure.
	Skipped bool `json:"skipped,omitempty"`
}
