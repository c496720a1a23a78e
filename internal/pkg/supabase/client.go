package supabase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/supabase-community/gotrue-go"

	"github.com/illegalcall/inkgen/internal/models"
)

// Client wraps the GoTrue auth API of a Supabase project.
type Client struct {
	auth gotrue.Client
}

// extractProjectRef extracts just the project reference ID from a Supabase URL
// From: akrqbuajqkirdekonpzy.supabase.co
// To: akrqbuajqkirdekonpzy
func extractProjectRef(url string) string {
	// Remove any protocol prefix
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	// Split by the first dot to get just the project reference
	parts := strings.Split(url, ".")
	return parts[0]
}

// NewClient builds a GoTrue client. Hosted projects are addressed by their
// project reference; any other URL (self-hosted, local CLI stack) is used as
// the GoTrue base URL directly.
func NewClient(supabaseURL, serviceKey string) (*Client, error) {
	if supabaseURL == "" || serviceKey == "" {
		return nil, errors.New("supabase url and service key are required")
	}

	projectRef := extractProjectRef(supabaseURL)
	client := gotrue.New(projectRef, serviceKey)
	if !strings.Contains(supabaseURL, ".supabase.co") {
		client = client.WithCustomGoTrueURL(strings.TrimSuffix(supabaseURL, "/") + "/auth/v1")
	}

	slog.Info("Supabase auth client configured", "project_ref", projectRef)
	return &Client{auth: client}, nil
}

// GetUser resolves an access token to the user it was issued for.
func (c *Client) GetUser(token string) (models.User, error) {
	res, err := c.auth.WithToken(token).GetUser()
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	if res == nil {
		return models.User{}, errors.New("get user: empty response")
	}

	return models.User{
		ID:    res.ID.String(),
		Email: res.Email,
	}, nil
}

// SignIn exchanges email and password for an access token.
func (c *Client) SignIn(email, password string) (string, error) {
	res, err := c.auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	if res == nil || res.AccessToken == "" {
		return "", errors.New("authentication failed: no access token issued")
	}
	return res.AccessToken, nil
}
