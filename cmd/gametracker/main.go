package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gametracker/internal/cache"
	"gametracker/internal/clients/catalog"
	"gametracker/internal/clients/storefront"
	"gametracker/internal/config"
	"gametracker/internal/proxy"
	"gametracker/internal/routes"
	"gametracker/internal/services"
	"gametracker/internal/storage/backups"
	"gametracker/internal/storage/mariadb"
)

const (
	envLocal = "local"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting server", slog.String("env", cfg.Env))

	storage, err := mariadb.New(cfg.Database)
	if err != nil {
		log.Error("failed to create database", slog.String("error", err.Error()))
		panic("db-err")
	}

	defer func() {
		if err := storage.Close(); err != nil {
			log.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	if err := storage.Migrate(); err != nil {
		log.Error("migration", slog.String("error", err.Error()))
		panic("table-err")
	}

	log.Info("database init")

	backupsStorage, err := backups.NewBackups(cfg.BackupsPath)
	if err != nil {
		log.Error("failed to create backups storage", slog.String("error", err.Error()))
		panic("backups-err")
	}

	responseCache := cache.New()
	relay := proxy.New(nil, proxy.DefaultTargets(), log)

	storefrontClient := storefront.New(cfg.Storefront, relay, responseCache, log)
	catalogClient := catalog.New(cfg.Catalog, nil, responseCache, storefrontClient, log)

	libraryService := services.NewLibraryService(storage, log)
	updateService := services.NewUpdateService(storefrontClient, catalogClient, libraryService, responseCache, log)

	log.Info("clients init")

	r := routes.SetupRouter(log, routes.Deps{
		Catalog: catalogClient,
		News:    storefrontClient,
		Library: libraryService,
		Updates: updateService,
		Backups: backupsStorage,
	}, cfg.Cors)

	log.Info("routes init")

	checkerCtx, stopChecker := context.WithCancel(context.Background())
	defer stopChecker()

	go updateService.StartChecker(checkerCtx, cfg.UpdateCheck.Interval)

	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      r,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("starting server", slog.String("address", cfg.Address))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutting down", slog.String("signal", sig.String()))
		stopChecker()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown error", slog.String("error", err.Error()))
			if err := server.Close(); err != nil {
				log.Error("force shutdown error", slog.String("error", err.Error()))
			}
		}
	}
	log.Info("server stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	}
	return log
}
