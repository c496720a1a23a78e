package main

import (
	"errors"
	"fmt"

	"github.com/illegalcall/inkgen/internal/config"
	"github.com/illegalcall/inkgen/internal/identity"
	"github.com/illegalcall/inkgen/internal/pkg/supabase"
)

func newResolver(cfg *config.Config, authClient *supabase.Client) (identity.Resolver, error) {
	var resolver identity.Resolver
	switch cfg.Auth.Mode {
	case "remote":
		if authClient == nil {
			return nil, errors.New("remote auth mode needs a Supabase client")
		}
		resolver = identity.NewRemoteResolver(authClient)
	case "local":
		jwtResolver, err := identity.NewJWTResolver(cfg.Auth.JWTSecret)
		if err != nil {
			return nil, err
		}
		resolver = jwtResolver
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}

	if cfg.Auth.CacheTTL > 0 {
		resolver = identity.NewCachedResolver(resolver, cfg.Auth.CacheTTL)
	}
	return resolver, nil
}

// disabledLogin rejects every sign in when no Supabase project is configured.
type disabledLogin struct{}

func (disabledLogin) SignIn(string, string) (string, error) {
	return "", errors.New("password login requires SUPABASE_URL and SUPABASE_SERVICE_KEY")
}
