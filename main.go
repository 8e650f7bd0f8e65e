package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	store, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := routes.Wire(ctx, app.New(cfg, store))

	err = runServer(ctx, cfg, handler)
	if err != nil {
		log.Error("main.server:", err)
	}
	log.Info("Server stopped")
}

func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", cfg.Url())
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return err
	}
	if err = <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
