// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quoteforge/quote-mint/internal/chain"
	"github.com/quoteforge/quote-mint/internal/config"
	"github.com/quoteforge/quote-mint/internal/events"
	"github.com/quoteforge/quote-mint/internal/handler"
	"github.com/quoteforge/quote-mint/internal/llm"
	"github.com/quoteforge/quote-mint/internal/middleware"
	"github.com/quoteforge/quote-mint/internal/mint"
	"github.com/quoteforge/quote-mint/internal/pin"
	"github.com/quoteforge/quote-mint/internal/quote"
	"github.com/quoteforge/quote-mint/internal/ratelimit"
	"github.com/quoteforge/quote-mint/internal/render"
	"github.com/quoteforge/quote-mint/pkg/logger"
	"github.com/quoteforge/quote-mint/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "quote-mint", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Event publisher: NATS when configured, otherwise a no-op.
	var publisher events.Publisher = events.Noop{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.Connect(ctx, events.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	// Initialize LLM client
	var llmClient llm.Client
	if cfg.AnthropicAPIKey != "" {
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
		if err != nil {
			log.Warn("failed to create Anthropic client, quote generation disabled", zap.Error(err))
		}
	} else if cfg.OpenAIAPIKey != "" {
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		if err != nil {
			log.Warn("failed to create OpenAI client, quote generation disabled", zap.Error(err))
		}
	}

	generator := quote.NewGenerator(llmClient, cfg.QuoteModel, cfg.ChatTimeout, log)

	// Mint pipeline collaborators
	renderer, err := render.New()
	if err != nil {
		log.Error("failed to initialize image renderer", zap.Error(err))
		os.Exit(1)
	}

	pinClient := pin.NewClient(cfg.PinataJWT, cfg.StageTimeout, log)

	minter, err := chain.NewMinter(chain.MinterConfig{
		RPCURL:          cfg.EthRPCURL,
		ContractAddress: cfg.QuoteNFTContract,
		PrivateKeyHex:   cfg.MinterPrivateKey,
		ChainID:         cfg.ChainID,
		GasLimit:        cfg.MintGasLimit,
	}, log)
	if err != nil {
		log.Error("failed to initialize minter", zap.Error(err))
		os.Exit(1)
	}

	indexer := chain.NewIndexer(cfg.NFTAPIURL, cfg.QuoteNFTContract, cfg.StageTimeout, log)

	orchestrator := mint.NewOrchestrator(renderer, pinClient, minter, publisher, log,
		mint.WithStageTimeout(cfg.StageTimeout),
		mint.WithPublishRetries(uint64(cfg.PublishRetries)),
	)

	// Per-identifier quote generation limiter
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), cfg.RateLimitRequests, cfg.RateLimitWindow)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(publisher)
	chatHandler := handler.NewChatHandler(generator, limiter, log)
	assetHandler := handler.NewAssetHandler(renderer, pinClient, log)
	mintHandler := handler.NewMintHandler(orchestrator, log)
	nftHandler := handler.NewNFTHandler(indexer, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.GlobalRateLimit(cfg.GlobalRateLimit, time.Minute))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Post("/chat", chatHandler.Chat)
	r.Post("/generate-image", assetHandler.GenerateImage)
	r.Post("/upload", assetHandler.Upload)
	r.Get("/nfts", nftHandler.List)

	r.Group(func(r chi.Router) {
		r.Use(middleware.WalletAuth(cfg.JWTSecret))
		r.Post("/mint", mintHandler.Mint)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
