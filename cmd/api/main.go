package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/tillkit/till/internal/cancel"
	"github.com/tillkit/till/internal/catalog"
	catalogStore "github.com/tillkit/till/internal/catalog/store"
	"github.com/tillkit/till/internal/checkout"
	checkoutStore "github.com/tillkit/till/internal/checkout/store"
	"github.com/tillkit/till/internal/config"
	"github.com/tillkit/till/internal/database"
	tillHttp "github.com/tillkit/till/internal/http"
	catalogHandler "github.com/tillkit/till/internal/http/catalog"
	checkoutHandler "github.com/tillkit/till/internal/http/checkout"
	"github.com/tillkit/till/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	sink := notify.NewLogSink(slog.Default())

	var (
		txStore        = checkoutStore.New(db)
		window         = cancel.NewWindow(txStore, sink, cfg.Checkout.CancelWindow)
		checkoutSvc    = checkout.NewService(txStore, window)
		catalogService = catalog.NewService(catalogStore.New(db))
	)

	var (
		checkoutH = checkoutHandler.NewHandler(checkoutSvc, window)
		catalogH  = catalogHandler.NewHandler(catalogService)
	)

	router := tillHttp.New(checkoutH, catalogH, tillHttp.Options{
		MetricsEnabled: cfg.Metrics.Enabled,
	})

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port, "cancel_window", cfg.Checkout.CancelWindow)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
