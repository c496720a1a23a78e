// Package library keeps the tattoos a user chose to save.
package library

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/inkgen/internal/apperror"
	"github.com/illegalcall/inkgen/internal/models"
)

type Store interface {
	Save(ctx context.Context, userID, prompt, imageURL string) (models.Tattoo, error)
	List(ctx context.Context, userID string) ([]models.Tattoo, error)
	Delete(ctx context.Context, userID string, id int64) error
}

type PostgresStore struct {
	db *sqlx.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, userID, prompt, imageURL string) (models.Tattoo, error) {
	var tattoo models.Tattoo
	err := s.db.GetContext(ctx, &tattoo,
		`INSERT INTO tattoos (user_id, prompt, image_url) VALUES ($1, $2, $3)
		 RETURNING id, user_id, prompt, image_url, created_at`,
		userID, prompt, imageURL,
	)
	if err != nil {
		return models.Tattoo{}, fmt.Errorf("save tattoo: %w", err)
	}
	return tattoo, nil
}

// List returns the user's tattoos, newest first.
func (s *PostgresStore) List(ctx context.Context, userID string) ([]models.Tattoo, error) {
	tattoos := []models.Tattoo{}
	err := s.db.SelectContext(ctx, &tattoos,
		`SELECT id, user_id, prompt, image_url, created_at FROM tattoos
		 WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tattoos: %w", err)
	}
	return tattoos, nil
}

// Delete removes a tattoo owned by userID. Another user's id looks exactly
// like a missing one.
func (s *PostgresStore) Delete(ctx context.Context, userID string, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tattoos WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete tattoo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tattoo: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("tattoo", fmt.Sprint(id))
	}
	return nil
}
