// Package identity resolves bearer tokens to users.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"

	"github.com/illegalcall/inkgen/internal/apperror"
	"github.com/illegalcall/inkgen/internal/models"
)

// Resolver maps a bearer token to a known user. Any failure is reported as
// apperror.ErrUnauthenticated.
type Resolver interface {
	Resolve(ctx context.Context, token string) (models.User, error)
}

// UserGetter is the part of the Supabase auth client the remote resolver needs.
type UserGetter interface {
	GetUser(token string) (models.User, error)
}

// RemoteResolver asks the auth server who owns the token.
type RemoteResolver struct {
	users UserGetter
}

func NewRemoteResolver(users UserGetter) *RemoteResolver {
	return &RemoteResolver{users: users}
}

func (r *RemoteResolver) Resolve(_ context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, apperror.Unauthenticated("missing token")
	}
	user, err := r.users.GetUser(token)
	if err != nil {
		return models.User{}, apperror.Unauthenticated(err.Error())
	}
	if user.ID == "" {
		return models.User{}, apperror.Unauthenticated("auth server returned no user id")
	}
	return user, nil
}

// JWTResolver verifies Supabase access tokens locally with the project JWT
// secret. The user id is the "sub" claim.
type JWTResolver struct {
	secret []byte
}

type supabaseClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func NewJWTResolver(secret string) (*JWTResolver, error) {
	if secret == "" {
		return nil, errors.New("identity: jwt secret is required")
	}
	return &JWTResolver{secret: []byte(secret)}, nil
}

func (r *JWTResolver) Resolve(_ context.Context, tokenStr string) (models.User, error) {
	if tokenStr == "" {
		return models.User{}, apperror.Unauthenticated("missing token")
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&supabaseClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return r.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.User{}, apperror.Unauthenticated(err.Error())
	}

	claims, ok := token.Claims.(*supabaseClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return models.User{}, apperror.Unauthenticated("invalid token claims")
	}

	return models.User{ID: claims.Subject, Email: claims.Email}, nil
}

// CachedResolver remembers successful resolutions for a short TTL so repeated
// calls from the same client do not hit the auth server each time. Failures
// are never cached.
type CachedResolver struct {
	next  Resolver
	cache *cache.Cache
}

func NewCachedResolver(next Resolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, token string) (models.User, error) {
	key := tokenKey(token)
	if x, found := r.cache.Get(key); found {
		return x.(models.User), nil
	}

	user, err := r.next.Resolve(ctx, token)
	if err != nil {
		return models.User{}, err
	}
	r.cache.Set(key, user, cache.DefaultExpiration)
	return user, nil
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
