package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dugtrio-labs/dugtrio/internal/ai"
	"github.com/dugtrio-labs/dugtrio/internal/cache"
	"github.com/dugtrio-labs/dugtrio/internal/chain"
	"github.com/dugtrio-labs/dugtrio/internal/config"
	"github.com/dugtrio-labs/dugtrio/internal/constants"
	"github.com/dugtrio-labs/dugtrio/internal/projects"
	"github.com/dugtrio-labs/dugtrio/internal/server"
	"github.com/dugtrio-labs/dugtrio/internal/tracker"
	"github.com/dugtrio-labs/dugtrio/internal/wallet"
	"github.com/dugtrio-labs/dugtrio/internal/xapi"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Initialize Redis client for caching and the project registry
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0, // Use default database for main application
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	postCache := cache.NewRedisCacheFromClient(rclient, logger)

	// Initialize tracked-project registry and seed the defaults on first run
	projectStore, err := projects.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create project registry")
	}
	if err := projectStore.Seed(ctx, constants.DefaultProjects); err != nil {
		logger.WithError(err).Warn("failed to seed default projects")
	}

	// Initialize ClickHouse store for posts, cards and trending rows
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

	// Initialize AI agent for natural language queries (optional)
	var agent *ai.Agent
	aiBase := ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              cfg.SentimentModel,
		Logger:             logger,
	}

	// Only initialize AI if OpenRouter API key is provided
	if cfg.OpenRouterAPIKey != "" {
		a, err := ai.NewAgent(ctx, aiBase)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize ai agent")
		} else {
			agent = a
			defer func() {
				_ = agent.Close() // Clean up AI resources on shutdown
			}()
		}
	}

	// On-demand collection needs X API credentials (optional)
	var onDemand server.OnDemandTracker
	if cfg.XBearerToken != "" {
		searchClient, err := xapi.NewClient(xapi.ClientConfig{
			BearerToken:  cfg.XBearerToken,
			Timeout:      cfg.HTTPTimeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       logger,
		})
		if err != nil {
			logger.WithError(err).Warn("failed to create search client")
		} else {
			pubsub := cache.NewPubSubManager(cfg.RedisAddr, logger)
			defer pubsub.Close()

			onDemand = tracker.New(tracker.Config{
				Search:    searchClient,
				Store:     store,
				Cache:     postCache,
				Publisher: pubsub,
				Projects:  projectStore,
				Logger:    logger,
			})
		}
	}

	// On-chain registration needs a funded wallet (optional)
	var registrar *chain.Registrar
	if cfg.WalletPrivateKey != "" {
		w, err := wallet.NewWallet(wallet.WalletConfig{
			RPCURL:       cfg.SolanaRPCURL,
			Timeout:      cfg.HTTPTimeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			PrivateKey:   cfg.WalletPrivateKey,
			Logger:       logger,
		})
		if err != nil {
			logger.WithError(err).Warn("failed to load wallet, on-chain registration disabled")
		} else {
			registrar, err = chain.NewRegistrar(chain.RegistrarConfig{
				Wallet: w,
				Logger: logger,
			})
			if err != nil {
				logger.WithError(err).Warn("failed to create registrar")
			} else {
				logger.WithField("address", w.Address()).Info("on-chain registration enabled")
			}
		}
	}

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Cache:        postCache,
		Store:        store,
		PNL:          store,
		Trends:       store,
		Projects:     projectStore,
		Tracker:      onDemand,
		Registrar:    registrar,
		AI:           agent,
		AIBaseConfig: aiBase,
		DevMode:      cfg.DevMode,
		Logger:       logger,
	}

	// Create HTTP server with configuration and handlers
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	// Start the HTTP server
	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
