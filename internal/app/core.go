package app

import (
	"fmt"
	"time"

	"arogyabot/internal/bot"
	"arogyabot/internal/config"
	"arogyabot/internal/dispatch"
	"arogyabot/internal/format"
	"arogyabot/internal/provider"
	"arogyabot/internal/storage"
	"arogyabot/pkg/logx"
)

// Core bundles the domain components shared by the long-running service and
// the one-shot CLI commands.
type Core struct {
	Store       storage.Store
	Formatter   *format.Formatter
	Broadcaster *dispatch.Broadcaster
	Bot         *bot.Service
	SMSChain    provider.Chain
	ChatChain   provider.Chain
}

// BuildCore constructs storage, formatter, provider chains and the
// dispatcher from config. The caller owns Core.Store and must Close it.
func BuildCore(cfg *config.Config, log logx.Logger) (*Core, error) {
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Config{Path: cfg.Storage.Path, BusyTimeout: busy}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	formatter, err := format.New()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load message catalogs: %w", err)
	}

	smsChain, chatChain, err := buildChains(cfg.Providers, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	broadcaster := dispatch.New(
		dispatch.Config{RatePerSec: cfg.Dispatch.RatePerSec},
		store, formatter, smsChain, chatChain,
		log.With(logx.String("comp", "dispatch")),
	)
	botSvc := bot.New(store, broadcaster, log.With(logx.String("comp", "bot")))

	return &Core{
		Store:       store,
		Formatter:   formatter,
		Broadcaster: broadcaster,
		Bot:         botSvc,
		SMSChain:    smsChain,
		ChatChain:   chatChain,
	}, nil
}

// buildChains wires the configured providers into per-channel fallback
// chains: Twilio before MSG91 for SMS, Twilio-WhatsApp before Gupshup for
// chat. Unconfigured providers are simply left out of the chain.
func buildChains(p config.ProvidersConfig, log logx.Logger) (sms, chat provider.Chain, err error) {
	plog := log.With(logx.String("comp", "provider"))

	const defaultTimeout = 10 * time.Second
	twTimeout, err := config.ParseDurationOrDefault("providers.twilio.timeout", p.Twilio.Timeout, defaultTimeout)
	if err != nil {
		return sms, chat, err
	}
	m91Timeout, err := config.ParseDurationOrDefault("providers.msg91.timeout", p.MSG91.Timeout, defaultTimeout)
	if err != nil {
		return sms, chat, err
	}
	gsTimeout, err := config.ParseDurationOrDefault("providers.gupshup.timeout", p.Gupshup.Timeout, defaultTimeout)
	if err != nil {
		return sms, chat, err
	}

	var smsProviders []provider.Adapter
	if p.Twilio.AccountSID != "" {
		smsProviders = append(smsProviders, provider.NewTwilioSMS(provider.TwilioConfig{
			AccountSID: p.Twilio.AccountSID,
			AuthToken:  p.Twilio.AuthToken,
			From:       p.Twilio.SMSFrom,
			Timeout:    twTimeout,
		}, plog))
	}
	if p.MSG91.AuthKey != "" {
		smsProviders = append(smsProviders, provider.NewMSG91(provider.MSG91Config{
			AuthKey:  p.MSG91.AuthKey,
			SenderID: p.MSG91.SenderID,
			Timeout:  m91Timeout,
		}, plog))
	}

	var chatProviders []provider.Adapter
	if p.Twilio.AccountSID != "" && p.Twilio.WhatsAppFrom != "" {
		chatProviders = append(chatProviders, provider.NewTwilioWhatsApp(provider.TwilioConfig{
			AccountSID: p.Twilio.AccountSID,
			AuthToken:  p.Twilio.AuthToken,
			From:       p.Twilio.WhatsAppFrom,
			Timeout:    twTimeout,
		}, plog))
	}
	if p.Gupshup.APIKey != "" {
		chatProviders = append(chatProviders, provider.NewGupshup(provider.GupshupConfig{
			APIKey:  p.Gupshup.APIKey,
			AppName: p.Gupshup.AppName,
			Source:  p.Gupshup.Source,
			Timeout: gsTimeout,
		}, plog))
	}

	sms = provider.Chain{Channel: "sms", Providers: smsProviders, Log: plog}
	chat = provider.Chain{Channel: "chat", Providers: chatProviders, Log: plog}
	return sms, chat, nil
}
