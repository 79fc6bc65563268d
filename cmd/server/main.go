package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"blogforge/app/internal/config"
	apphttp "blogforge/app/internal/http"
	"blogforge/app/internal/llm"
	applog "blogforge/app/internal/log"
	"blogforge/app/internal/search"
	"blogforge/app/internal/trends"
	"blogforge/app/internal/webfetch"
	"blogforge/app/internal/writer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	fetcher := webfetch.NewFetcher(webfetch.FetcherOptions{Logger: logger})

	searchProvider := search.NewProvider(search.ProviderOptions{
		Fetcher: fetcher,
		Logger:  logger,
	})

	trendsProvider := trends.NewProvider(trends.ProviderOptions{
		Logger: logger,
		UseCSV: cfg.UseCSVTrends,
	})

	client := llm.NewClient(llm.ClientOptions{
		Model:  cfg.ClaudeModel,
		Logger: logger,
	})

	writerService, err := writer.NewService(writer.ServiceOptions{
		Generator:     client,
		Search:        searchProvider,
		Fetcher:       fetcher,
		DefaultAPIKey: cfg.AnthropicAPIKey,
		Logger:        logger,
	})
	if err != nil {
		return eris.Wrap(err, "creating writer service")
	}

	transport, err := apphttp.NewServer(apphttp.Options{
		Writer:    writerService,
		Trends:    trendsProvider,
		Logger:    logger,
		SentryHub: sentryHub,
	})
	if err != nil {
		return eris.Wrap(err, "initialising http transport")
	}

	httpServer := &stdhttp.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort),
		Handler: transport.Handler(),
	}

	logger.WithFields(logrus.Fields{
		"addr":  httpServer.Addr,
		"model": client.Model(),
	}).Info("starting http server")

	serverErrCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}

	logger.Info("http server shut down cleanly")
	return nil
}
