package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/illegalcall/inkgen/internal/api"
	"github.com/illegalcall/inkgen/internal/config"
	"github.com/illegalcall/inkgen/internal/events"
	"github.com/illegalcall/inkgen/internal/generation"
	"github.com/illegalcall/inkgen/internal/ledger"
	"github.com/illegalcall/inkgen/internal/library"
	"github.com/illegalcall/inkgen/internal/models"
	"github.com/illegalcall/inkgen/internal/pkg/supabase"
	"github.com/illegalcall/inkgen/internal/provider"
	"github.com/illegalcall/inkgen/internal/showcase"
	"github.com/illegalcall/inkgen/pkg/database"
	"github.com/illegalcall/inkgen/pkg/kafka"
	"github.com/illegalcall/inkgen/pkg/logging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateAuth(); err != nil {
		slog.Error("Invalid auth configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}))

	// Initialize database clients
	db, err := database.NewClients(cfg.Database.URL, database.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		slog.Error("Failed to initialize database clients", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("✅ Connected to databases")

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("Failed to apply database schema", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.Broker, cfg.Kafka.RetryMax, cfg.Kafka.RetryBackoff)
		if err != nil {
			slog.Error("Failed to create Kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		slog.Info("✅ Connected to Kafka")
	} else {
		slog.Warn("Kafka disabled, generation events will not be published")
	}

	// Identity
	var authClient *supabase.Client
	if cfg.Supabase.URL != "" && cfg.Supabase.ServiceKey != "" {
		authClient, err = supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		if err != nil {
			slog.Error("Failed to create Supabase client", "error", err)
			os.Exit(1)
		}
	}
	resolver, err := newResolver(cfg, authClient)
	if err != nil {
		slog.Error("Failed to configure identity", "error", err)
		os.Exit(1)
	}

	// Provider and workflow
	replicate := provider.NewReplicateClient(cfg.Replicate.BaseURL, cfg.Replicate.APIToken,
		cfg.Replicate.Timeout, cfg.Replicate.PollInterval)
	credits := ledger.NewPostgresLedger(db.DB)
	workflow := generation.NewWorkflow(credits, publisher,
		generation.Operation{
			Name:    models.OperationFlash,
			Cost:    cfg.Generation.FlashCost,
			Invoker: provider.NewTextToImage(replicate, provider.FlashPreset),
		},
		generation.Operation{
			Name:    models.OperationRealistic,
			Cost:    cfg.Generation.RealisticCost,
			Invoker: provider.NewTextToImage(replicate, provider.RealisticPreset),
		},
		generation.Operation{
			Name:    models.OperationTryOn,
			Cost:    cfg.Generation.TryOnCost,
			Invoker: provider.NewCompositor(replicate),
		},
	)

	deps := api.Deps{
		Identity: resolver,
		Ledger:   credits,
		Workflow: workflow,
		Chat:     provider.NewChatExpert(replicate),
		Library:  library.NewPostgresStore(db.DB),
		Showcase: showcase.NewService(db.DB, db.Redis, cfg.Generation.ShowcaseCacheTTL),
	}
	if authClient != nil {
		deps.Auth = authClient
	} else {
		deps.Auth = disabledLogin{}
	}

	// Create and start server
	server := api.NewServer(cfg, deps)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	}()

	slog.Info("🚀 Server starting", "port", cfg.Server.Port, "auth_mode", cfg.Auth.Mode)
	if err := server.Start(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
