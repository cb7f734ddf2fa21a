package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"react-analytics/internal/analytics"
	"react-analytics/internal/api"
	"react-analytics/internal/command"
	"react-analytics/internal/ingest"
	"react-analytics/internal/metrics"
	"react-analytics/internal/slackclient"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Receive Slack events and serve queries",
	Long: `Start the HTTP server. Slack delivers events to /slack/events and slash
commands to /slack/commands; analytics are also served as JSON under
/v1/analytics and streamed on /v1/subscribe.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("http-addr", ":8080", "Address to listen on")
	flags.Int("workers", 8, "Number of ingestion workers")
	flags.Int("queue-size", 1024, "Events buffered per worker before new ones are rejected")
	flags.Duration("directory-ttl", 10*time.Minute, "How long user and channel names are cached")
	flags.String("bot-name", "reactanalyticsbot", "Name shown on direct messages")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slackAPI, err := slackclient.New(cfg.SlackBotToken)
	if err != nil {
		return err
	}

	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	engine := analytics.NewEngine(s, logger, m)
	directory := slackclient.NewDirectory(slackAPI, cfg.DirectoryTTL, logger)

	pool := ingest.NewPool(ingest.NewIngestor(s, logger, m), ingest.PoolConfig{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
	}, logger, m)

	handler := api.NewHandler(api.Options{
		Engine:            engine,
		Repo:              s,
		Pool:              pool,
		Commands:          command.NewRunner(engine, s, directory),
		Notifier:          slackclient.NewNotifier(slackAPI, cfg.BotName),
		Directory:         directory,
		SigningSecret:     cfg.SlackSigningSecret,
		VerificationToken: cfg.SlackVerificationToken,
		Gatherer:          registry,
		Logger:            logger,
	})
	pool.Subscribe(handler.Notify)
	pool.Start(context.WithoutCancel(ctx))

	if cfg.SlackSigningSecret == "" && cfg.SlackVerificationToken == "" {
		logger.Warn("no slack signing secret or verification token set, requests are not authenticated")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		pool.Close()
		handler.Close()
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down server", "error", err)
	}
	// Drain queued events before answering the last commands.
	pool.Close()
	handler.Wait()
	handler.Close()

	logger.Info("server stopped")
	return nil
}
