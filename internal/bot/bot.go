// Package bot is the channel-agnostic inbound surface: every front-end
// (SMS webhook, WhatsApp webhook, chat adapter) funnels user text through
// HandleInbound so command routing and reply rendering exist exactly once.
package bot

import (
	"context"
	"fmt"
	"strings"

	"arogyabot/internal/alert"
	"arogyabot/internal/command"
	"arogyabot/internal/dispatch"
	"arogyabot/internal/storage"
	"arogyabot/pkg/logx"
)

const emergencyNumber = "108"

type Service struct {
	store       storage.Store
	broadcaster *dispatch.Broadcaster
	log         logx.Logger
}

func New(store storage.Store, b *dispatch.Broadcaster, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{store: store, broadcaster: b, log: log}
}

// HandleInbound turns one inbound message into one reply. The reply is
// always non-empty plain text, and always points at the emergency number
// when the system cannot fully help.
func (s *Service) HandleInbound(ctx context.Context, senderID, raw string) string {
	cmd, err := command.Route(raw)
	if err != nil {
		// The only routing error is a malformed ALERT: render a format hint,
		// never the unrecognized-command text.
		return "Alert format: ALERT <disease> <location>\n" +
			"Example: ALERT dengue Cuttack"
	}

	s.log.Debug("inbound command",
		logx.String("sender", senderID),
		logx.String("kind", cmd.Kind.String()),
	)

	switch cmd.Kind {
	case command.KindHelp:
		return s.helpReply(ctx)
	case command.KindFirstAid:
		return s.firstAidReply(ctx, cmd.Arg)
	case command.KindPrevent:
		return s.preventReply(ctx, cmd.Arg)
	case command.KindStats:
		return s.statsReply(ctx)
	case command.KindAlert:
		return s.alertReply(ctx, senderID, cmd)
	default:
		return s.unknownReply()
	}
}

func (s *Service) helpReply(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("AROGYA health assistant. Commands:\n")
	b.WriteString("HELP - this menu\n")
	b.WriteString("FIRSTAID <condition> - first-aid steps (e.g. FIRSTAID snakebite)\n")
	b.WriteString("PREVENT <disease> - prevention tips (e.g. PREVENT dengue)\n")
	b.WriteString("ALERT <disease> <location> - report an outbreak\n")
	b.WriteString("STATS - recent outbreaks\n\n")

	if help, err := s.store.Helplines(ctx); err == nil && help != "" {
		b.WriteString(help)
	} else {
		b.WriteString("Emergency ambulance: " + emergencyNumber)
	}
	return b.String()
}

func (s *Service) firstAidReply(ctx context.Context, arg string) string {
	key := strings.ToLower(strings.TrimSpace(arg))
	if key == "" {
		return "Usage: FIRSTAID <condition>\nTry: snakebite, burns, fracture, drowning, heatstroke, bleeding"
	}
	text, ok, err := s.store.FirstAid(ctx, key)
	if err != nil {
		s.log.Error("first-aid lookup failed", logx.String("key", key), logx.Err(err))
		return serviceUnavailable()
	}
	if !ok {
		return fmt.Sprintf("No first-aid entry for %q.\nTry: snakebite, burns, fracture, drowning, heatstroke, bleeding.\nEmergency? Call %s.", key, emergencyNumber)
	}
	return strings.ToUpper(key) + " FIRST AID:\n" + text
}

func (s *Service) preventReply(ctx context.Context, arg string) string {
	key := strings.ToLower(strings.TrimSpace(arg))
	if key == "" {
		return "Usage: PREVENT <disease>\nTry: dengue, malaria, cholera, typhoid, covid, diarrhoea"
	}
	text, ok, err := s.store.Prevention(ctx, key)
	if err != nil {
		s.log.Error("prevention lookup failed", logx.String("key", key), logx.Err(err))
		return serviceUnavailable()
	}
	if !ok {
		return fmt.Sprintf("No prevention tips for %q.\nTry: dengue, malaria, cholera, typhoid, covid, diarrhoea.\nEmergency? Call %s.", key, emergencyNumber)
	}
	return strings.ToUpper(key) + " PREVENTION:\n" + text
}

func (s *Service) statsReply(ctx context.Context) string {
	outbreaks, err := s.store.RecentOutbreaks(ctx, 10)
	if err != nil {
		s.log.Error("outbreak stats lookup failed", logx.Err(err))
		return serviceUnavailable()
	}
	if len(outbreaks) == 0 {
		return "No outbreaks on record. Stay safe!\nEmergency? Call " + emergencyNumber + "."
	}
	var b strings.Builder
	b.WriteString("RECENT OUTBREAKS:\n")
	for _, o := range outbreaks {
		fmt.Fprintf(&b, "- %s in %s: %d cases (%s, %s)\n",
			strings.ToUpper(o.Disease), o.Location, o.Cases, o.Severity, o.Date.Format("02 Jan"))
	}
	b.WriteString("Report one: ALERT <disease> <location>")
	return b.String()
}

func (s *Service) alertReply(ctx context.Context, senderID string, cmd command.Command) string {
	ev := alert.NewEvent(cmd.Disease, cmd.Location, alert.SeverityMedium, "")

	out, err := s.broadcaster.Broadcast(ctx, ev)
	if err != nil {
		// The audit record was not written; do not claim the alert was logged.
		s.log.Error("alert broadcast fatal", logx.String("sender", senderID), logx.Err(err))
		return serviceUnavailable()
	}
	if len(out.Errors) > 0 {
		// Transport failures concern operators, not the reporter; the alert
		// itself is safely on record.
		s.log.Warn("alert dispatched with transport failures",
			logx.String("alert_id", ev.ID),
			logx.Int("sent", out.Sent),
			logx.Any("errors", out.Errors),
		)
	}

	return fmt.Sprintf("ALERT LOGGED\nDisease: %s\nLocation: %s\nHealth teams for the region have been notified where subscribed.\nEmergency? Call %s.",
		strings.ToUpper(cmd.Disease), cmd.Location, emergencyNumber)
}

func (s *Service) unknownReply() string {
	return "Sorry, I did not understand that.\nSend HELP for the list of commands.\nEmergency? Call " + emergencyNumber + "."
}

func serviceUnavailable() string {
	return "Service temporarily unavailable. For emergencies call " + emergencyNumber + "."
}
