// Package dispatch drives regional alert broadcasts: log the event, resolve
// the region's delivery preference, format the localized message, and fan it
// out across the configured provider chains.
package dispatch

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"arogyabot/internal/alert"
	"arogyabot/internal/format"
	"arogyabot/internal/provider"
	"arogyabot/internal/storage"
	"arogyabot/pkg/logx"
)

type Config struct {
	// RatePerSec caps outbound provider sends. 0 means a small default.
	RatePerSec int
}

type Broadcaster struct {
	store     storage.Store
	formatter *format.Formatter
	sms       provider.Chain
	chat      provider.Chain
	limiter   *rate.Limiter
	log       logx.Logger
}

func New(cfg Config, store storage.Store, f *format.Formatter, sms, chat provider.Chain, log logx.Logger) *Broadcaster {
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 5
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Broadcaster{
		store:     store,
		formatter: f,
		sms:       sms,
		chat:      chat,
		// Token bucket: burst = rate per sec, so short spikes don't block too hard.
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log,
	}
}

// Broadcast delivers one outbreak alert to the region named by the event.
//
// The only returned error is an alert-log append failure: losing the audit
// record is fatal to the operation, and no provider is contacted after it.
// Every transport failure lands inside the Outcome instead.
func (b *Broadcaster) Broadcast(ctx context.Context, ev alert.Event) (alert.Outcome, error) {
	if err := b.store.AppendAlert(ctx, ev); err != nil {
		return alert.Outcome{}, fmt.Errorf("append alert log: %w", err)
	}
	if err := b.store.RecordOutbreak(ctx, ev); err != nil {
		// Stats are best-effort; the audit record is what matters.
		b.log.Warn("outbreak stats update failed", logx.Err(err))
	}

	pref, found, err := b.store.GetPreference(ctx, ev.Location)
	if err != nil {
		// A store read failure is not a skip: delivery was never evaluated.
		// The alert itself is safely on record, so this stays in the Outcome
		// rather than propagating.
		b.log.Error("preference lookup failed", logx.String("region", ev.Location), logx.Err(err))
		return alert.Outcome{Errors: []string{"preference lookup: " + err.Error()}}, nil
	}
	if !found || !pref.Enabled {
		b.log.Info("broadcast skipped",
			logx.String("region", ev.Location),
			logx.Bool("preference_found", found),
		)
		return alert.Outcome{Success: true, Skipped: true}, nil
	}

	switch pref.Method {
	case storage.MethodSMS:
		return b.sendVia(ctx, b.sms, format.ChannelSMS, pref, ev), nil
	case storage.MethodChat:
		return b.sendVia(ctx, b.chat, format.ChannelChat, pref, ev), nil
	case storage.MethodBoth:
		// Sequential on purpose: error ordering stays SMS-then-chat and the
		// worst-case latency stays bounded.
		smsOut := b.sendVia(ctx, b.sms, format.ChannelSMS, pref, ev)
		chatOut := b.sendVia(ctx, b.chat, format.ChannelChat, pref, ev)
		return combine(smsOut, chatOut), nil
	default:
		// A configuration gap, not a transport failure: surface it so an
		// operator fixes the record instead of anyone retrying.
		b.log.Warn("unknown contact method",
			logx.String("region", pref.Region),
			logx.String("method", string(pref.Method)),
		)
		return alert.Outcome{Success: false, Sent: 0}, nil
	}
}

func (b *Broadcaster) sendVia(ctx context.Context, chain provider.Chain, ch format.Channel, pref storage.Preference, ev alert.Event) alert.Outcome {
	text := b.formatter.RenderFor(ev, pref.Language, ch)

	if err := b.limiter.Wait(ctx); err != nil {
		return alert.Outcome{Errors: []string{string(ch) + ": " + err.Error()}}
	}

	res, served := chain.Send(ctx, pref.Contact, text)
	if !res.OK {
		return alert.Outcome{Errors: []string{res.Err}}
	}
	return alert.Outcome{Success: true, Sent: 1, Provider: served}
}

// combine merges the two sub-path outcomes of a "both" dispatch: success is
// the logical OR, sent counts add, SMS errors come before chat errors.
func combine(sms, chat alert.Outcome) alert.Outcome {
	out := alert.Outcome{
		Success: sms.Success || chat.Success,
		Sent:    sms.Sent + chat.Sent,
		Errors:  append(append([]string(nil), sms.Errors...), chat.Errors...),
	}
	switch {
	case sms.Provider != "" && chat.Provider != "":
		out.Provider = sms.Provider + "+" + chat.Provider
	case sms.Provider != "":
		out.Provider = sms.Provider
	default:
		out.Provider = chat.Provider
	}
	return out
}
