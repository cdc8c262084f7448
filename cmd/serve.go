package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theopenlane/eushield/internal/api"
	"github.com/theopenlane/eushield/internal/cache"
	"github.com/theopenlane/eushield/internal/scoring"
)

// serveCmd is the cobra command that starts the eushield API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the eushield api server",
	Run: func(cmd *cobra.Command, _ []string) {
		err := serve(cmd.Context())
		cobra.CheckErr(err)
	},
}

// init registers the serve command on the root command
func init() {
	rootCmd.AddCommand(serveCmd)
}

// serve initializes dependencies and starts the eushield API server
func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	detector, err := setupDetector(cfg.Prober)
	if err != nil {
		return err
	}

	store, err := setupCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}

	defer func() { _ = store.Close() }()

	if purger, ok := store.(cache.Purger); ok {
		scheduler, err := cache.NewPurgeScheduler(purger, cfg.Cache.PurgeSchedule)
		if err != nil {
			return err
		}

		scheduler.Start()
		defer scheduler.Stop()
	}

	routerCfg := api.RouterConfig{
		Analyzer:             detector,
		Store:                store,
		TotalPossibleSignals: scoring.Default().TotalPossibleSignals(),
		MaxBodySize:          cfg.Server.MaxBodySize,
		AnalyzeTimeout:       cfg.Server.AnalyzeTimeout,
	}

	if slackClient := setupSlack(cfg.Slack); slackClient != nil {
		routerCfg.Notifier = slackClient
	}

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      api.NewRouter(routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGracePeriod)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Str("listen", cfg.Server.Listen).Msg("starting eushield service")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}
