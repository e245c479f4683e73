package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the sqlite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// ContactMethod selects which transport paths a regional broadcast uses.
type ContactMethod string

const (
	MethodSMS  ContactMethod = "sms"
	MethodChat ContactMethod = "chat"
	MethodBoth ContactMethod = "both"
)

// Preference is the delivery preference for one region. A single record per
// region stands in for a subscriber list; Contact is the delivery target.
type Preference struct {
	Region   string
	Language string
	Contact  string
	Enabled  bool
	Method   ContactMethod
}

// AlertEntry is one row of the append-only alert log.
type AlertEntry struct {
	ID       string
	Disease  string
	Location string
	Severity string
	At       time.Time
}

// Outbreak is one row of the outbreak statistics the STATS command reads.
type Outbreak struct {
	Disease  string
	Location string
	Cases    int
	Date     time.Time
	Severity string
}
