package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/theopenlane/eushield/config"
	"github.com/theopenlane/eushield/internal/cache"
	"github.com/theopenlane/eushield/internal/compliance"
	"github.com/theopenlane/eushield/internal/scoring"
	"github.com/theopenlane/eushield/internal/slack"
)

// loadConfig reads the config file named by the --config flag and applies the logging flags
func loadConfig() (*config.Config, error) {
	cfgPath := k.String("config")

	cfg, err := config.Load(&cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg.Server.Debug = k.Bool("debug")
	cfg.Server.Pretty = k.Bool("pretty")

	return cfg, nil
}

// setupFetcher builds the http client used for probing from the configured engine
func setupFetcher(cfg config.Prober) (compliance.Fetcher, error) {
	switch cfg.Engine {
	case config.EngineHTTPX:
		fetcher, err := compliance.NewHTTPXFetcher(cfg.Timeout, cfg.MaxBodySize)
		if err != nil {
			return nil, fmt.Errorf("initializing httpx fetcher: %w", err)
		}

		return fetcher, nil
	default:
		return compliance.NewHTTPFetcher(nil, cfg.MaxBodySize), nil
	}
}

// setupDetector wires the fetcher, prober and scoring engine into a detector
func setupDetector(cfg config.Prober) (*compliance.Detector, error) {
	fetcher, err := setupFetcher(cfg)
	if err != nil {
		return nil, err
	}

	prober, err := compliance.NewProber(fetcher,
		compliance.WithProbeTimeout(cfg.Timeout),
		compliance.WithProbeThreads(cfg.Threads),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing prober: %w", err)
	}

	log.Info().Str("engine", cfg.Engine).Dur("timeout", cfg.Timeout).Int("threads", cfg.Threads).Msg("prober configured")

	return compliance.NewDetector(prober, scoring.Default()), nil
}

// setupCache opens the configured result cache
func setupCache(ctx context.Context, cfg config.Cache) (cache.Store, error) {
	store, err := cache.Open(ctx, cache.Settings{
		Backend:       cfg.Backend,
		TTL:           cfg.TTL,
		SQLitePath:    cfg.SQLitePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s cache: %w", cfg.Backend, err)
	}

	log.Info().Str("backend", cfg.Backend).Dur("ttl", cfg.TTL).Msg("result cache configured")

	return store, nil
}

// setupSlack initializes the Slack webhook client from config, returning nil when unconfigured
func setupSlack(cfg config.Slack) *slack.Client {
	if cfg.WebhookURL == "" {
		log.Info().Msg("slack notifications not configured, skipping")
		return nil
	}

	client, err := slack.New(
		cfg.WebhookURL,
		slack.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		slack.WithUsername(cfg.Username),
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize slack client")
		return nil
	}

	log.Info().Msg("slack notifications configured")

	return client
}
