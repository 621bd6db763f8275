package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/hurricane-triage/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hurricane-triage/internal/adapter/kafka"
	"github.com/couchcryptid/hurricane-triage/internal/cards"
	"github.com/couchcryptid/hurricane-triage/internal/config"
	"github.com/couchcryptid/hurricane-triage/internal/domain"
	"github.com/couchcryptid/hurricane-triage/internal/ingest"
	"github.com/couchcryptid/hurricane-triage/internal/observability"
	"github.com/couchcryptid/hurricane-triage/internal/pipeline"
	"github.com/couchcryptid/hurricane-triage/internal/rules"
	"github.com/couchcryptid/hurricane-triage/internal/store"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "triage",
		Short:         "Hurricane bulletin triage pipeline and card API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newStageCmd("ingest", "Fetch bulletins from all sources", (*pipeline.Pipeline).Ingest),
		newStageCmd("clean", "Normalize pending raw bulletins", (*pipeline.Pipeline).Clean),
		newStageCmd("extract", "Synthesize cards from pending clean updates", (*pipeline.Pipeline).Extract),
		newStageCmd("dedup", "Cluster ungrouped cards into duplicate groups", (*pipeline.Pipeline).Dedup),
		newStageCmd("run", "Run the full pipeline once", (*pipeline.Pipeline).Run),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// app bundles the wired components a command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	store    *store.Store
	pipeline *pipeline.Pipeline
	closers  []func() error
}

func (a *app) close() {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			a.logger.Error("close failed", "error", err)
		}
	}
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, metrics: metrics, store: s}
	a.closers = append(a.closers, s.Close)

	table, err := loadRules(cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	synthesizer := cards.NewSynthesizer(table, domain.CategoryUtilities)

	// Card publishing is feature-flagged via KAFKA_ENABLED.
	var publisher pipeline.CardPublisher
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		a.closers = append(a.closers, writer.Close)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	a.pipeline = pipeline.New(s, buildSources(cfg, logger), synthesizer,
		cfg.DedupWindow, publisher, logger, metrics)
	return a, nil
}

func loadRules(cfg *config.Config, logger *slog.Logger) (*rules.Table, error) {
	if cfg.RulesPath == "" {
		return rules.Default()
	}
	logger.Info("loading rules override", "path", cfg.RulesPath)
	return rules.LoadFile(cfg.RulesPath)
}

func buildSources(cfg *config.Config, logger *slog.Logger) []ingest.Source {
	sources := []ingest.Source{
		ingest.BrowardEM(),
		ingest.MiamiDadeEM(),
		ingest.FLDEM(),
	}
	if cfg.NWSEnabled {
		sources = append(sources, ingest.NewNWSClient(
			cfg.NWSBaseURL, cfg.NWSUserAgent,
			cfg.IngestStart, cfg.IngestEnd,
			cfg.FetchTimeout, logger))
	}
	for _, feed := range cfg.Feeds {
		sources = append(sources, ingest.NewFeedSource(feed.Name, feed.URL,
			cfg.IngestStart, cfg.IngestEnd, cfg.FetchTimeout, logger))
	}
	return sources
}

func newStageCmd(name, short string, fn func(*pipeline.Pipeline, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp()
			if err != nil {
				slog.Error("startup failed", "error", err)
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := fn(a.pipeline, ctx); err != nil {
				a.logger.Error("stage failed", "stage", name, "error", err)
				return err
			}
			a.logger.Info("stage complete", "stage", name)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline once, then serve the card API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp()
			if err != nil {
				slog.Error("startup failed", "error", err)
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.store, storeReadiness{a.store}, a.logger)

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("http server error", "error", err)
				}
			}()

			go func() {
				if err := a.pipeline.Run(ctx); err != nil && ctx.Err() == nil {
					a.logger.Error("pipeline error", "error", err)
				}
			}()

			<-ctx.Done()
			a.logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("http server shutdown error", "error", err)
			}

			a.logger.Info("shutdown complete")
			return nil
		},
	}
}

// storeReadiness gates /readyz on database reachability, so the API serves
// previously ingested cards even while the first pipeline run is in flight.
type storeReadiness struct {
	store *store.Store
}

func (r storeReadiness) CheckReadiness(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
