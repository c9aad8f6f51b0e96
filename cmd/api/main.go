package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dvloznov/family-finance/internal/api"
	"github.com/dvloznov/family-finance/internal/api/handlers"
	"github.com/dvloznov/family-finance/internal/assistant"
	"github.com/dvloznov/family-finance/internal/auth"
	"github.com/dvloznov/family-finance/internal/bootstrap"
	"github.com/dvloznov/family-finance/internal/config"
	"github.com/dvloznov/family-finance/internal/export"
	"github.com/dvloznov/family-finance/internal/family"
	"github.com/dvloznov/family-finance/internal/jobs/inmemory"
	"github.com/dvloznov/family-finance/internal/llm"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/metrics"
	"github.com/dvloznov/family-finance/internal/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	_ assistant.Alerter        = (*notify.Dispatcher)(nil)
	_ assistant.MetricsTracker = (*metrics.Tracker)(nil)
	_ family.Notifier          = (*notify.Dispatcher)(nil)
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("FINANCE_CONFIG"), "Path to YAML config file (or set FINANCE_CONFIG)")
		port       = flag.Int("port", 0, "HTTP server port (overrides server.port)")
	)
	flag.Parse()

	bootLog := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	log, err := logger.NewWithConfig(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to configure logger")
	}

	ctx := logger.WithContext(context.Background(), log)

	st, err := bootstrap.OpenStore(ctx, cfg.Store, cfg.Email.AdminEmail)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open store")
	}
	defer st.Close()

	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.LLM.Provider).Msg("Failed to create LLM client")
	}

	transport, err := bootstrap.NewTransport(cfg.Email)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create email transport")
	}
	mailer := notify.NewService(transport, cfg.Email.AppURL)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Jobs.Buffer, jobStore,
		inmemory.WithWorkers(cfg.Jobs.Workers),
		inmemory.WithMaxRetries(cfg.Jobs.MaxRetries),
	)
	dispatcher := notify.NewDispatcher(st, jobQueue, mailer)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	if err := jobQueue.Start(workerCtx, dispatcher.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start email workers")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	tracker := metrics.NewTracker(st, reg)

	executors, err := assistant.NewExecutors(st, dispatcher, assistant.WithDedupWindow(cfg.Assistant.DedupWindow))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build tool executors")
	}
	orchestrator := assistant.NewOrchestrator(st, client, executors, tracker, assistant.Options{
		Temperature:  cfg.LLM.Temperature,
		MaxTokens:    cfg.LLM.MaxTokens,
		HistoryLimit: cfg.Assistant.HistoryLimit,
		LLMTimeout:   cfg.LLM.Timeout,
	})

	invitations := family.NewService(st, dispatcher, cfg.Email.AppURL)

	var exporter handlers.Exporter
	if cfg.Export.Bucket == "" {
		log.Warn().Msg("No export bucket configured - CSV export will be disabled")
	} else {
		gcs, err := export.NewGCSStorage(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS client")
		}
		defer gcs.Close()
		exporter = export.NewExporter(st, gcs, cfg.Export.Bucket, export.WithLinkTTL(cfg.Export.URLExpiry))
	}

	handler := api.NewRouter(api.Deps{
		Store:       st,
		Turns:       orchestrator,
		Invitations: invitations,
		Exporter:    exporter,
		Jobs:        jobStore,
		Auth:        auth.NewHeaderProvider(st),
		Log:         log,
		Registry:    reg,
		CORSOrigin:  cfg.Server.AllowedOrigin,
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Str("store", cfg.Store.Driver).
			Str("llm", cfg.LLM.Provider).
			Str("email", cfg.Email.Driver).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop waits for emails being sent right now; queued ones are dropped.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()
	orchestrator.Wait()

	log.Info().Msg("Server exited")
}
