package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type Clients struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func NewClients(dbURL string, redisOpts RedisOptions) (*Clients, error) {
	// Connect to PostgreSQL
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Clients{
		DB:    db,
		Redis: redisClient,
	}, nil
}

func (c *Clients) Close() {
	if c.Redis != nil {
		c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

// schema is applied in order on every boot. Each statement must stay idempotent.
// profiles is normally owned by Supabase; the statement only creates it for
// local development databases.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		full_name TEXT,
		avatar_url TEXT,
		credits INTEGER NOT NULL DEFAULT 3 CHECK (credits >= 0),
		plan_type TEXT NOT NULL DEFAULT 'free',
		quiz_completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS credit_transactions (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL,
		amount INTEGER NOT NULL,
		operation TEXT NOT NULL,
		request_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS credit_transactions_user_idx ON credit_transactions (user_id);`,
	`CREATE TABLE IF NOT EXISTS tattoos (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL,
		prompt TEXT NOT NULL,
		image_url TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS tattoos_user_created_idx ON tattoos (user_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS generation_usage (
		request_id TEXT PRIMARY KEY,
		user_id UUID NOT NULL,
		operation TEXT NOT NULL,
		cost INTEGER NOT NULL,
		remaining_credits INTEGER NOT NULL,
		image_count INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS landing_examples (
		id BIGSERIAL PRIMARY KEY,
		image_url TEXT NOT NULL,
		prompt TEXT,
		type TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS landing_tryon (
		id BIGSERIAL PRIMARY KEY,
		image_url TEXT NOT NULL,
		prompt TEXT,
		type TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS landing_hero_images (
		id BIGSERIAL PRIMARY KEY,
		image_url TEXT NOT NULL,
		prompt TEXT,
		type TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
}

// Migrate creates the tables this service reads and writes.
func (c *Clients) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	slog.Info("✅ Database schema is ready!")
	return nil
}
