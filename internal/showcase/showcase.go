// Package showcase serves the curated landing page images.
package showcase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/illegalcall/inkgen/internal/models"
)

const (
	CacheKey      = "showcase:v1"
	examplesLimit = 8
	tryOnLimit    = 4
)

type Service struct {
	db    *sqlx.DB
	redis *redis.Client
	ttl   time.Duration
}

// NewService returns a showcase reader. A nil redis client disables caching.
func NewService(db *sqlx.DB, redisClient *redis.Client, ttl time.Duration) *Service {
	return &Service{db: db, redis: redisClient, ttl: ttl}
}

// Get returns the landing collections, from Redis when a fresh copy exists.
// Cache errors are logged and fall back to the database.
func (s *Service) Get(ctx context.Context) (models.Showcase, error) {
	if showcase, ok := s.cached(ctx); ok {
		return showcase, nil
	}

	showcase, err := s.load(ctx)
	if err != nil {
		return models.Showcase{}, err
	}

	if s.redis != nil && s.ttl > 0 {
		payload, _ := json.Marshal(showcase)
		if err := s.redis.Set(ctx, CacheKey, payload, s.ttl).Err(); err != nil {
			slog.Warn("Failed to cache showcase", "error", err)
		}
	}
	return showcase, nil
}

func (s *Service) cached(ctx context.Context) (models.Showcase, bool) {
	if s.redis == nil {
		return models.Showcase{}, false
	}
	payload, err := s.redis.Get(ctx, CacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Failed to read showcase cache", "error", err)
		}
		return models.Showcase{}, false
	}
	var showcase models.Showcase
	if err := json.Unmarshal(payload, &showcase); err != nil {
		slog.Warn("Discarding corrupt showcase cache entry", "error", err)
		return models.Showcase{}, false
	}
	return showcase, true
}

func (s *Service) load(ctx context.Context) (models.Showcase, error) {
	showcase := models.Showcase{
		Examples: []models.ShowcaseImage{},
		TryOn:    []models.ShowcaseImage{},
	}

	err := s.db.SelectContext(ctx, &showcase.Examples,
		"SELECT id, image_url, prompt, type FROM landing_examples ORDER BY created_at DESC LIMIT $1", examplesLimit)
	if err != nil {
		return models.Showcase{}, fmt.Errorf("load landing examples: %w", err)
	}

	err = s.db.SelectContext(ctx, &showcase.TryOn,
		"SELECT id, image_url, prompt, type FROM landing_tryon ORDER BY created_at DESC LIMIT $1", tryOnLimit)
	if err != nil {
		return models.Showcase{}, fmt.Errorf("load try-on showcase: %w", err)
	}

	var hero []models.ShowcaseImage
	err = s.db.SelectContext(ctx, &hero,
		"SELECT id, image_url, prompt, type FROM landing_hero_images ORDER BY created_at DESC")
	if err != nil {
		return models.Showcase{}, fmt.Errorf("load hero images: %w", err)
	}
	for _, img := range hero {
		if img.Type == nil {
			continue
		}
		url := img.ImageURL
		switch *img.Type {
		case models.OperationFlash:
			if showcase.Hero.Flash == nil {
				showcase.Hero.Flash = &url
			}
		case models.OperationRealistic:
			if showcase.Hero.Realistic == nil {
				showcase.Hero.Realistic = &url
			}
		}
	}

	return showcase, nil
}
