package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tropicaldog17/vngold/internal/cache"
	"github.com/tropicaldog17/vngold/internal/config"
	"github.com/tropicaldog17/vngold/internal/handlers"
	"github.com/tropicaldog17/vngold/internal/logger"
	"github.com/tropicaldog17/vngold/internal/providers"
	"github.com/tropicaldog17/vngold/internal/services"
	"github.com/tropicaldog17/vngold/internal/store"
)

type app struct {
	config   *config.Config
	logger   *zap.Logger
	store    store.HistoryStore
	closer   io.Closer
	pipeline services.PipelineService
}

func newApp(configPaths []string) (*app, error) {
	log, err := logger.New()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := config.Load(configPaths...)
	if err != nil {
		return nil, err
	}

	st, closer, err := store.Open(cfg.Storage.Driver, cfg.Storage.HistoryFile, &cfg.Storage.Database, log)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	client := providers.NewClient(cfg.RequestTimeout(), cfg.HTTP.UserAgent, cfg.HTTP.Headers)
	sources := providers.NewSources(client, cfg, log)
	fileCache := cache.NewFileCache(cfg.Cache.Dir, cfg.CacheTTL(), log)

	market := services.NewMarketService(sources, fileCache, st, log)
	history := services.NewHistoryService(st, sources, cfg.History, log, time.Now)

	return &app{
		config:   cfg,
		logger:   log,
		store:    st,
		closer:   closer,
		pipeline: services.NewPipelineService(market, history, cfg, log, time.Now),
	}, nil
}

func (a *app) Close() {
	if err := a.closer.Close(); err != nil {
		a.logger.Warn("Failed to close history store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func main() {
	var configPaths []string

	rootCmd := &cobra.Command{
		Use:          "vngold",
		Short:        "Vietnam market dashboard aggregator",
		Long:         `vngold collects gold, USD/VND, bitcoin, VN30 and land prices and publishes them as one dashboard payload.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringSliceVarP(&configPaths, "config", "c", nil, "TOML config file(s), later files win")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one refresh and write the payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPaths)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.pipeline.Run(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("Payload written",
				zap.String("path", a.config.Storage.PayloadFile),
				zap.String("status", p.Health.Status))
			return nil
		},
	}

	var port int
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API and refresh on an interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPaths)
			if err != nil {
				return err
			}
			defer a.Close()
			if port > 0 {
				a.config.Server.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides config)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func (a *app) serve(ctx context.Context) error {
	handler := handlers.NewDashboardHandler(a.pipeline, a.store, a.logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:           handlers.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go a.refreshLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Server starting", zap.Int("port", a.config.Server.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// refreshLoop runs the pipeline once at startup and then on every tick.
func (a *app) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(a.config.RefreshInterval())
	defer ticker.Stop()

	for {
		if _, err := a.pipeline.Run(ctx); err != nil {
			a.logger.Error("Scheduled refresh failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
