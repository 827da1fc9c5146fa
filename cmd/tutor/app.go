package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ai9campus/smarttutor/internal/completion"
	"github.com/ai9campus/smarttutor/internal/config"
	"github.com/ai9campus/smarttutor/internal/curriculum"
	"github.com/ai9campus/smarttutor/internal/events"
	"github.com/ai9campus/smarttutor/internal/journal"
	"github.com/ai9campus/smarttutor/internal/slack"
	"github.com/ai9campus/smarttutor/internal/store"
	"github.com/ai9campus/smarttutor/internal/tutor"
)

// app is everything both front ends share.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	index    *curriculum.Index
	template tutor.Config
	journal  *journal.Journal
	archive  *store.Store
	bus      *events.Client
	closers  []func()
}

// newApp validates configuration and wires the tutor. The credential check
// comes first so a missing key never leads to a completion client being
// built.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	index := curriculum.Default()
	if cfg.CurriculumFile != "" {
		var err error
		if index, err = curriculum.LoadFile(cfg.CurriculumFile); err != nil {
			return nil, err
		}
	}
	a.index = index
	logger.Info("curriculum loaded", "chapters", index.Len())

	instructions, err := tutor.LoadInstructions(cfg.InstructionsFile)
	if err != nil {
		return nil, err
	}

	opts := completion.Options{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("completion options: %w", err)
	}

	client, err := completion.NewClient(completion.ProviderConfig{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Timeout:  cfg.RequestTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("completion client ready", "provider", cfg.Provider, "model", cfg.Model)

	if err := a.openJournal(ctx); err != nil {
		a.close()
		return nil, err
	}

	a.template = tutor.Config{
		Instructions: instructions,
		Client:       client,
		Options:      opts,
		Observer:     a.journal,
		Logger:       logger,
	}
	return a, nil
}

// openJournal connects whichever optional sinks are configured. Nil
// interfaces are passed for the rest.
func (a *app) openJournal(ctx context.Context) error {
	var (
		archive journal.Archive
		bus     events.Publisher
		poster  journal.FeedbackPoster
	)

	if a.cfg.DatabaseURL != "" {
		db, err := store.New(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		a.archive = db
		archive = db
		a.logger.Info("database connected")
	} else {
		a.logger.Info("DATABASE_URL not set, transcripts will not be archived")
	}

	if a.cfg.NatsURL != "" {
		nc, err := events.NewClient(a.cfg.NatsURL, a.cfg.NatsToken, a.logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, nc.Close)
		a.bus = nc
		bus = nc
		a.logger.Info("NATS connected", "url", a.cfg.NatsURL)
	}

	if a.cfg.SlackBotToken != "" && a.cfg.SlackChannel != "" {
		poster = slack.NewPoster(a.cfg.SlackBotToken, a.cfg.SlackChannel, a.logger)
		a.logger.Info("slack feedback poster ready", "channel", a.cfg.SlackChannel)
	}

	a.journal = journal.New(archive, bus, poster, a.logger)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
