// Package telegram is the chat-bot front-end. It only translates Telegram
// updates into (sender, text) for the shared bot entry point and sends the
// reply back; all command handling lives behind bot.Service.
package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"arogyabot/internal/bot"
	"arogyabot/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

type Adapter struct {
	cfg Config
	log logx.Logger
	svc *bot.Service

	tb *tele.Bot

	runMu   sync.Mutex
	running bool
}

func New(cfg Config, svc *bot.Service, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}

	a := &Adapter{cfg: cfg, log: log, svc: svc, tb: tb}
	a.registerHandlers()
	return a, nil
}

func (a *Adapter) registerHandlers() {
	a.tb.Handle(tele.OnText, func(c tele.Context) error {
		m := c.Message()
		if m == nil || m.Sender == nil {
			return nil
		}
		sender := strconv.FormatInt(m.Sender.ID, 10)

		reply := a.svc.HandleInbound(context.Background(), sender, m.Text)
		if err := c.Send(reply); err != nil {
			a.log.Warn("telegram reply failed",
				logx.String("sender", sender),
				logx.Err(err),
			)
		}
		return nil
	})
}

// Start begins long polling. It blocks until Stop is called.
func (a *Adapter) Start() {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return
	}
	a.running = true
	a.runMu.Unlock()

	a.log.Info("telegram front-end started")
	a.tb.Start()
}

func (a *Adapter) Stop() {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if !a.running {
		return
	}
	a.running = false
	a.tb.Stop()
	a.log.Info("telegram front-end stopped")
}
