// Package provider holds the transport adapters that actually deliver
// messages. Every adapter reports through the same Result shape and never
// returns a Go error from Send: a failed delivery is data for the dispatcher
// to act on, not a fault to propagate.
package provider

import (
	"context"
	"fmt"
	"strings"

	"arogyabot/pkg/logx"
)

// Result is the unified outcome of one provider send.
type Result struct {
	OK bool

	// ID is the provider-assigned message id, when the provider returns one.
	ID string

	// Err describes the failure when OK is false.
	Err string
}

func failure(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...)}
}

// Adapter is one concrete messaging backend.
//
// Send must not panic and must not block past the adapter's own HTTP
// timeout. Malformed recipients fail fast without a network call.
type Adapter interface {
	Name() string
	Send(ctx context.Context, recipient, text string) Result
}

// Chain is an ordered list of providers serving one channel. The first
// provider is primary; the rest are fallbacks tried in order.
type Chain struct {
	Channel   string
	Providers []Adapter
	Log       logx.Logger
}

// Send tries each provider in order and returns the first success, naming
// the provider that served the message. When every provider fails the
// combined Result carries one error string covering the whole chain.
func (c Chain) Send(ctx context.Context, recipient, text string) (Result, string) {
	if len(c.Providers) == 0 {
		return failure("%s: no providers configured", c.Channel), ""
	}

	var fails []string
	for _, p := range c.Providers {
		res := p.Send(ctx, recipient, text)
		if res.OK {
			return res, p.Name()
		}
		c.Log.Warn("provider send failed",
			logx.String("channel", c.Channel),
			logx.String("provider", p.Name()),
			logx.String("err", res.Err),
		)
		fails = append(fails, p.Name()+": "+res.Err)
	}
	return failure("%s: %s", c.Channel, strings.Join(fails, "; ")), ""
}
