package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/kivo-app/kivo/internal/api"
	"github.com/kivo-app/kivo/internal/balance"
	"github.com/kivo-app/kivo/internal/broker/kafka"
	"github.com/kivo-app/kivo/internal/config"
	"github.com/kivo-app/kivo/internal/exchange"
	"github.com/kivo-app/kivo/internal/logger"
	"github.com/kivo-app/kivo/internal/service"
	"github.com/kivo-app/kivo/internal/settlement"
	"github.com/kivo-app/kivo/internal/settlement/memqueue"
	"github.com/kivo-app/kivo/internal/store/memory"
	"github.com/kivo-app/kivo/internal/warehouse"
)

func main() {
	log := logger.New()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	txStore := memory.NewTransactionStore()
	accountStore := memory.NewAccountStore()

	rates := exchange.NewClient(cfg.ExchangeBaseURL)
	balances := balance.NewClient(cfg.BalanceBaseURL)

	var archiver settlement.Archiver
	if cfg.BigQueryProject != "" {
		bq, err := warehouse.NewArchiver(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.BigQueryTable, logger.Component(log, "warehouse"))
		if err != nil {
			log.Fatal().Err(err).Msg("Creating warehouse archiver failed")
		}
		defer bq.Close()
		archiver = bq
	}

	policy := settlement.RetryPolicy{
		MaxAttempts: cfg.SettlementMaxAttempts,
		Backoff:     cfg.SettlementBackoff,
	}
	processor := settlement.NewProcessor(txStore, archiver, logger.Component(log, "settlement"))
	deadLetter := settlement.NewDeadLetter(txStore, archiver, logger.Component(log, "settlement-dlq"))

	var publisher settlement.Publisher

	if len(cfg.KafkaBrokers) > 0 {
		kafkaLog := logger.Component(log, "kafka")

		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.SettlementTopic, kafkaLog)
		defer pub.Close()
		publisher = pub

		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.SettlementTopic, cfg.SettlementGroup, policy, kafkaLog)
		if err := consumer.Start(ctx, processor); err != nil {
			log.Fatal().Err(err).Msg("Starting settlement consumer failed")
		}
		defer stopWithTimeout(consumer.Stop, log, "settlement consumer")

		dlqConsumer := kafka.NewDeadLetterConsumer(cfg.KafkaBrokers, cfg.SettlementTopic, cfg.SettlementGroup, deadLetter, kafkaLog)
		if err := dlqConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Starting dead-letter consumer failed")
		}
		defer stopWithTimeout(dlqConsumer.Stop, log, "dead-letter consumer")

		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.SettlementTopic).Msg("Settlement pipeline on Kafka")
	} else {
		queue := memqueue.New(cfg.QueueBuffer, cfg.QueueWorkers, policy, deadLetter, logger.Component(log, "memqueue"))
		if err := queue.Start(ctx, processor); err != nil {
			log.Fatal().Err(err).Msg("Starting in-process settlement queue failed")
		}
		defer stopWithTimeout(queue.Stop, log, "settlement queue")
		publisher = queue

		log.Warn().Msg("KAFKA_BROKERS not set, settlement runs on the in-process queue")
	}

	transactions := service.NewTransactions(txStore, accountStore, rates, balances, publisher, logger.Component(log, "transactions"))
	accounts := service.NewAccounts(accountStore, balances, logger.Component(log, "accounts"))

	handler := api.NewHandler(transactions, accounts, logger.Component(log, "http"))
	server := &http.Server{
		Addr:              cfg.HTTPBind,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPBind).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
}

func stopWithTimeout(stop func(context.Context) error, log zerolog.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		log.Error().Err(err).Str("component", name).Msg("Stop failed")
	}
}
