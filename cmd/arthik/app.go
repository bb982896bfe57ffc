package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adda-Baaj/arthik-khobor/internal/config"
	"github.com/Adda-Baaj/arthik-khobor/internal/crawler"
	"github.com/Adda-Baaj/arthik-khobor/internal/logger"
	"github.com/Adda-Baaj/arthik-khobor/internal/service"
	"github.com/Adda-Baaj/arthik-khobor/internal/store"
	"github.com/Adda-Baaj/arthik-khobor/pkg/httpclient"
	"github.com/Adda-Baaj/arthik-khobor/pkg/providers"
	"github.com/Adda-Baaj/arthik-khobor/pkg/publishers"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg        *config.Config
	log        logger.Logger
	store      *store.Store
	dispatcher *publishers.Dispatcher
	svc        *service.Service
}

func newApp(ctx context.Context, configFile string) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, store: st}

	if cfg.PublishersFile != "" {
		reg, err := publishers.LoadRegistry(cfg.PublishersFile)
		if err != nil {
			_ = a.close()
			return nil, err
		}
		a.dispatcher, err = publishers.NewDispatcher(ctx, publishers.DefaultRegistry(), reg.All(), log)
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("build publishers: %w", err)
		}
		log.InfoObj("publishers ready", "publishers_loaded", map[string]any{
			"count": a.dispatcher.Len(),
			"file":  cfg.PublishersFile,
		})
	}

	client := httpclient.NewRestyClient(cfg.HTTPTimeout)
	fetchers := providers.DefaultFetcherRegistry(client, providers.WithLogger(log))

	opts := []service.Option{
		service.WithLogger(log),
		service.WithEnricher(crawler.NewScraper(client, log, cfg.EnrichDelay)),
	}
	if a.dispatcher != nil {
		opts = append(opts, service.WithDispatcher(a.dispatcher))
	}
	a.svc = service.New(cfg, fetchers, st, opts...)
	return a, nil
}

func (a *app) close() error {
	var errs []error
	if a.dispatcher != nil {
		errs = append(errs, a.dispatcher.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	_ = a.log.Sync()
	return errors.Join(errs...)
}
