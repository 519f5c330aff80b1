package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dugtrio-labs/dugtrio/internal/cache"
	"github.com/dugtrio-labs/dugtrio/internal/config"
	"github.com/dugtrio-labs/dugtrio/internal/constants"
	"github.com/dugtrio-labs/dugtrio/internal/projects"
	"github.com/dugtrio-labs/dugtrio/internal/tracker"
	"github.com/dugtrio-labs/dugtrio/internal/xapi"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the post collection service
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.XBearerToken == "" {
		logger.Fatal("X_BEARER_TOKEN is required for the collection service")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	projectStore, err := projects.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create project registry")
	}
	if err := projectStore.Seed(ctx, constants.DefaultProjects); err != nil {
		logger.WithError(err).Warn("failed to seed default projects")
	}

	store, err := cache.NewClickHouseStore(cache.ClickHouseConfig{
		Addr:     cfg.ClickHouseAddr,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUsername,
		Password: cfg.ClickHousePassword,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to ClickHouse")
	}
	defer store.Close()

	searchClient, err := xapi.NewClient(xapi.ClientConfig{
		BearerToken:  cfg.XBearerToken,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create search client")
	}

	pubsub := cache.NewPubSubManager(cfg.RedisAddr, logger)
	defer pubsub.Close()

	t := tracker.New(tracker.Config{
		Search:       searchClient,
		Store:        store,
		Cache:        cache.NewRedisCacheFromClient(rclient, logger),
		Publisher:    pubsub,
		Projects:     projectStore,
		PollInterval: cfg.PollInterval,
		Logger:       logger,
	})

	if err := t.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("collection service failed")
	}
}
