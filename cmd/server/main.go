package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"photobooth/internal/api"
	"photobooth/internal/config"
	"photobooth/internal/frames"
	"photobooth/internal/logging"
	"photobooth/internal/mail"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("PHOTOBOOTH_CONFIG"))
	if err != nil {
		return err
	}
	log, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return err
	}
	defer log.Sync()

	mailer, err := mail.NewSMTP(cfg.Mail)
	if err != nil {
		return err
	}

	catalog, err := frames.Load(cfg.Server.FramesDir)
	if err != nil {
		return fmt.Errorf("load frame catalog: %w", err)
	}
	watcher, err := frames.NewWatcher(catalog, log)
	if err != nil {
		return fmt.Errorf("frame watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("frame watcher: %w", err)
	}
	defer watcher.Stop()

	handlers := &api.Handlers{
		Mailer:    mailer,
		Catalog:   catalog,
		UploadDir: cfg.Server.UploadDir,
		Log:       log,
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server running",
			zap.Int("port", cfg.Server.Port),
			zap.Int("frames", len(catalog.List())))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
