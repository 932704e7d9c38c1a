package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"proptoken/internal/config"
	"proptoken/internal/db"
	"proptoken/internal/handlers"
	"proptoken/internal/ledger"
	"proptoken/internal/services"
	"proptoken/internal/store"
	"proptoken/internal/websocket"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if cfg.AppEnv == "development" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	users := store.NewUserStore(database)
	properties := store.NewPropertyStore(database)
	holdings := store.NewHoldingStore(database)
	transactions := store.NewTransactionStore(database)
	distributions := store.NewDistributionStore(database)
	orders := store.NewOrderStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	var tokenLedger ledger.Ledger
	switch cfg.LedgerBackend {
	case "xrpl":
		client := ledger.NewXRPLClient(cfg.XRPLEndpoint, cfg.XRPLIssuerAddress, cfg.XRPLIssuerSeed, log)
		defer client.Close()
		tokenLedger = client
		log.WithField("endpoint", cfg.XRPLEndpoint).Info("using XRPL ledger backend")
	default:
		tokenLedger = ledger.NewFake()
		log.Info("using in-memory ledger backend")
	}

	tokenization := services.NewTokenizationService(txRunner, properties, holdings, transactions, distributions, users, audit, tokenLedger, hub, log, cfg.LedgerTimeout)
	market := services.NewMarketService(txRunner, orders, properties, holdings, audit, log)

	handler := handlers.New(txRunner, cfg, users, properties, holdings, transactions, distributions, audit, tokenization, market, hub, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("proptoken API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("shutdown error")
	}
}
