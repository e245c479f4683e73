package command

import (
	"errors"
	"strings"
)

// Kind is the closed set of actions the router can produce. Consumers switch
// exhaustively on it instead of comparing raw keyword strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindHelp
	KindFirstAid
	KindPrevent
	KindAlert
	KindStats
)

func (k Kind) String() string {
	switch k {
	case KindHelp:
		return "help"
	case KindFirstAid:
		return "firstaid"
	case KindPrevent:
		return "prevent"
	case KindAlert:
		return "alert"
	case KindStats:
		return "stats"
	default:
		return "unknown"
	}
}

// ErrBadAlertFormat marks an ALERT command that is missing its disease or
// location. It is a validation failure, distinct from an unknown command:
// the caller renders a format hint, never the unrecognized-command text.
var ErrBadAlertFormat = errors.New("alert command requires disease and location")

// Command is one parsed inbound message.
type Command struct {
	Kind Kind

	// Arg is the remainder after the keyword, original casing preserved.
	Arg string

	// Disease and Location are populated for KindAlert only.
	Disease  string
	Location string

	// Raw is the untouched input, kept for the unknown-command reply.
	Raw string
}

// Route parses free text into a Command. It performs no I/O and is total:
// every input yields either a Command or ErrBadAlertFormat.
//
// Parsing rule: split on the first whitespace run, match the first token
// case-insensitively against the known keywords, keep the remainder as the
// argument with its original casing.
func Route(raw string) (Command, error) {
	trimmed := strings.TrimSpace(raw)
	keyword, arg := splitFirst(trimmed)

	cmd := Command{Arg: arg, Raw: raw}
	switch strings.ToUpper(keyword) {
	case "HELP":
		cmd.Kind = KindHelp
	case "FIRSTAID":
		cmd.Kind = KindFirstAid
	case "PREVENT":
		cmd.Kind = KindPrevent
	case "STATS":
		cmd.Kind = KindStats
	case "ALERT":
		cmd.Kind = KindAlert
		disease, location := splitFirst(arg)
		if disease == "" || location == "" {
			return Command{}, ErrBadAlertFormat
		}
		cmd.Disease = disease
		cmd.Location = strings.Join(strings.Fields(location), " ")
	default:
		cmd.Kind = KindUnknown
	}
	return cmd, nil
}

// splitFirst splits s at the first whitespace run.
func splitFirst(s string) (head, rest string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	i := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
