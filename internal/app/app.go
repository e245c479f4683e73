package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"arogyabot/internal/config"
	"arogyabot/internal/format"
	"arogyabot/internal/server"
	"arogyabot/internal/transport/telegram"
	"arogyabot/pkg/logx"
)

// App owns the long-running service: config watching, the HTTP server, the
// optional Telegram front-end and the cron digest.
type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	core *Core
	srv  *server.Server
	tg   *telegram.Adapter
	cron *cron.Cron

	cancel context.CancelFunc
	wg     sync.WaitGroup

	errCh chan error
}

// New loads the config at path and builds the full service. Nothing is
// listening yet; call Run.
func New(path string) (*App, error) {
	cfgm := config.NewManager(path)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(func(_ context.Context, c *config.Config) error {
		return c.Validate()
	})

	core, err := BuildCore(cfg, log)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	a := &App{
		cfgm:  cfgm,
		logs:  logs,
		log:   log.With(logx.String("comp", "app")),
		core:  core,
		errCh: make(chan error, 2),
	}

	a.srv = server.New(
		server.Config{Addr: cfg.Server.ListenAddr()},
		core.Bot, core.Broadcaster, core.Store,
		log.With(logx.String("comp", "server")),
	)

	if cfg.Telegram.Enabled {
		poll, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout)
		if err != nil {
			a.closeOnError()
			return nil, err
		}
		tg, err := telegram.New(telegram.Config{
			Token:       cfg.Telegram.Token,
			PollTimeout: poll,
		}, core.Bot, log.With(logx.String("comp", "telegram")))
		if err != nil {
			a.closeOnError()
			return nil, fmt.Errorf("telegram: %w", err)
		}
		a.tg = tg
	}

	if cfg.Digest.Enabled {
		if err := a.scheduleDigest(cfg.Digest); err != nil {
			a.closeOnError()
			return nil, err
		}
	}

	return a, nil
}

func (a *App) closeOnError() {
	_ = a.core.Store.Close()
	_ = a.logs.Close()
}

// Run starts every component and blocks until ctx is cancelled or a
// component fails fatally, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	defer a.cancel()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(ctx); err != nil && ctx.Err() == nil {
			a.log.Error("config watcher stopped", logx.Err(err))
		}
	}()

	// Logging follows config edits; nothing else hot-reloads.
	updates := a.cfgm.Subscribe(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(updates)
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-updates:
				if !ok {
					return
				}
				a.logs.Apply(logx.Config{
					Level:   cfg.Logging.Level,
					Console: cfg.Logging.Console,
					File: logx.FileConfig{
						Enabled: cfg.Logging.File.Enabled,
						Path:    cfg.Logging.File.Path,
					},
				})
				a.log.Info("logging config reloaded", logx.String("level", cfg.Logging.Level))
			}
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.srv.Start(); err != nil {
			a.errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.tg != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.tg.Start()
		}()
	}
	if a.cron != nil {
		a.cron.Start()
	}

	a.log.Info("arogyabot started")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-a.errCh:
		a.log.Error("component failed", logx.Err(runErr))
	}

	a.shutdown()
	a.wg.Wait()
	_ = a.core.Store.Close()
	_ = a.logs.Close()
	return runErr
}

func (a *App) shutdown() {
	a.cancel()
	if a.cron != nil {
		cronCtx := a.cron.Stop()
		select {
		case <-cronCtx.Done():
		case <-time.After(10 * time.Second):
			a.log.Warn("digest job did not finish before shutdown")
		}
	}
	if a.tg != nil {
		a.tg.Stop()
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Stop(stopCtx); err != nil {
		a.log.Warn("http shutdown", logx.Err(err))
	}
}

func (a *App) scheduleDigest(d config.DigestConfig) error {
	spec := strings.TrimSpace(d.Cron)
	if spec == "" {
		spec = "0 8 * * *"
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		a.sendDigest(ctx, d)
	})
	if err != nil {
		return fmt.Errorf("digest.cron: invalid spec %q: %w", d.Cron, err)
	}
	a.cron = c
	return nil
}

// sendDigest delivers the outbreak summary to the operator recipient over
// the chat chain, rendered in the configured digest language. Failures are
// logged, never retried; the next tick will carry the same data anyway.
func (a *App) sendDigest(ctx context.Context, d config.DigestConfig) {
	rows, err := a.core.Store.RecentOutbreaks(ctx, 10)
	if err != nil {
		a.log.Error("digest: load outbreaks", logx.Err(err))
		return
	}
	items := make([]format.DigestItem, 0, len(rows))
	for _, o := range rows {
		items = append(items, format.DigestItem{
			Disease:  o.Disease,
			Location: o.Location,
			Cases:    o.Cases,
			Severity: o.Severity,
		})
	}
	text := a.core.Formatter.Digest(d.Language, time.Now(), items)
	res, prov := a.core.ChatChain.Send(ctx, d.Recipient, text)
	if !res.OK {
		a.log.Error("digest: send failed", logx.String("err", res.Err))
		return
	}
	a.log.Info("digest sent",
		logx.String("provider", prov),
		logx.Int("outbreaks", len(rows)))
}
