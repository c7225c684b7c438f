package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/agendia/booking-ai-platform/cmd/mainconfig"
	"github.com/agendia/booking-ai-platform/internal/api/router"
	"github.com/agendia/booking-ai-platform/internal/assistant"
	"github.com/agendia/booking-ai-platform/internal/booking"
	appconfig "github.com/agendia/booking-ai-platform/internal/config"
	"github.com/agendia/booking-ai-platform/internal/notify"
	"github.com/agendia/booking-ai-platform/internal/observability/metrics"
	"github.com/agendia/booking-ai-platform/internal/tenancy"
	"github.com/agendia/booking-ai-platform/pkg/logging"
)

func main() {
	// A missing .env file is fine; the environment is the source of truth.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Completion providers
	openaiClient, err := assistant.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.AITimeout)
	if err != nil {
		logger.Error("failed to create OpenAI client", "error", err)
		os.Exit(1)
	}

	var geminiClient *assistant.GeminiClient
	if cfg.GeminiAPIKey != "" {
		geminiClient, err = assistant.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create Gemini client", "error", err)
			os.Exit(1)
		}
		defer geminiClient.Close()
	}

	var client assistant.CompletionClient = openaiClient
	if cfg.FallbackToGemini && geminiClient != nil {
		client = assistant.NewFailoverClient(openaiClient, geminiClient, logger)
	}

	// Session memory
	var sessions assistant.SessionStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		sessions = assistant.NewRedisSessionStore(redisClient, cfg.MemoryTTL, otel.Tracer("booking-ai-platform/sessions"))
		logger.Info("session memory: redis", "addr", cfg.RedisAddr)
	} else {
		sessions = assistant.NewMemorySessionStore(cfg.MemoryTTL)
		logger.Info("session memory: in-process")
	}
	defer sessions.Close()

	// Tenant configuration source
	var tenants assistant.TenantSource
	if cfg.SupabaseURL != "" {
		tenants, err = tenancy.NewSupabaseSource(cfg.SupabaseURL, cfg.SupabaseAPIKey, 0)
		if err != nil {
			logger.Error("failed to create supabase tenant source", "error", err)
			os.Exit(1)
		}
	}

	// Outcome log
	var outcomes assistant.OutcomeRecorder
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create postgres pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		outcomes = assistant.NewPGOutcomeStore(pool)
	}

	// Media analysis rides on Gemini's multimodal input.
	var media *assistant.MediaProcessor
	if cfg.EnableMedia && geminiClient != nil {
		media = assistant.NewMediaProcessor(geminiClient, logger)
	}

	assistantMetrics := metrics.NewAssistantMetrics(prometheus.DefaultRegisterer)

	agents := assistant.NewAgentRegistry(booking.NewInMemoryBackend(), assistant.AgentParams{
		Model:       cfg.OpenAIModel,
		Temperature: cfg.AITemperature,
		MaxTokens:   cfg.AIMaxTokens,
	})

	service := assistant.NewAIService(assistant.Config{
		Model:           cfg.OpenAIModel,
		IntentModel:     cfg.IntentModel,
		Temperature:     cfg.AITemperature,
		MaxTokens:       cfg.AIMaxTokens,
		EnableFunctions: cfg.EnableFuncs,
		EnableMedia:     cfg.EnableMedia,
	}, assistant.Deps{
		Client:   client,
		Sessions: sessions,
		Agents:   agents,
		Media:    media,
		Tenants:  tenants,
		Outcomes: outcomes,
		Metrics:  assistantMetrics,
		Logger:   logger,
	})

	// Turn queue: in-memory for development, SQS elsewhere.
	var dispatcher *assistant.Dispatcher
	if cfg.UseMemoryQueue {
		dispatcher = assistant.NewDispatcher(service, assistant.NewMemoryQueue(64), logger.Component("dispatcher"),
			assistant.WithWorkerCount(cfg.WorkerCount))
		logger.Info("turn queue: in-memory")
	} else {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		queue := assistant.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.ConversationQueueURL)
		dispatcher = assistant.NewDispatcher(service, queue, logger.Component("dispatcher"),
			assistant.WithWorkerCount(cfg.WorkerCount))
		logger.Info("turn queue: sqs", "queue_url", cfg.ConversationQueueURL)
	}

	// Escalation emails to tenant staff.
	var processor assistant.TurnProcessor = dispatcher
	if cfg.SendGridAPIKey != "" && tenants != nil {
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		notifier := notify.NewService(sender, tenants, logger.Component("notify"))
		processor = notify.NewTurnNotifier(dispatcher, notifier, logger.Component("notify"))
	}

	handler := assistant.NewHandler(processor, service, sessions, logger)

	r := router.New(&router.Config{
		Logger:           logger,
		AssistantHandler: handler,
		MetricsHandler:   promhttp.Handler(),
		AdminAuthSecret:  cfg.AdminJWTSecret,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Error("dispatcher forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
