package auth

import (
	"context"
	"errors"
	"time"

	"github.com/maib-ecomm/maib-gateway/internal/config"
	"github.com/maib-ecomm/maib-gateway/internal/maib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	accessTokenKey  = "maib:token:access"
	refreshTokenKey = "maib:token:refresh"
)

var ErrNoToken = errors.New("auth: could not obtain access token")

// TokenGenerator is the slice of the maib client the token source needs.
type TokenGenerator interface {
	GenerateToken(ctx context.Context, req maib.TokenRequest) (*maib.TokenResult, error)
}

// TokenSource produces a valid bearer token for API calls, caching the
// access/refresh pair in redis with the TTLs the processor supplies.
// Concurrent refreshes racing to repopulate the cache are tolerated; tokens
// are idempotently re-derivable, so last writer wins.
type TokenSource struct {
	redis *redis.Client
	gen   TokenGenerator
	cfg   config.MaibConfig
	log   *zap.Logger
}

type Params struct {
	fx.In

	Redis  *redis.Client
	Client *maib.Client
	Cfg    config.Config
	Log    *zap.Logger
}

func NewTokenSource(p Params) *TokenSource {
	return &TokenSource{
		redis: p.Redis,
		gen:   p.Client,
		cfg:   p.Cfg.Maib,
		log:   p.Log.Named("auth"),
	}
}

var Module = fx.Module("auth",
	fx.Provide(NewTokenSource),
)

// Token returns a cached access token, refreshing it when expired: first via
// the cached refresh token, else from the project credentials. A failed fetch
// is a hard failure for the calling operation.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	access, err := s.redis.Get(ctx, accessTokenKey).Result()
	if err == nil && access != "" {
		return access, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		s.log.Error("token cache read failed", zap.Error(err))
	}

	req := maib.TokenRequest{ProjectID: s.cfg.ProjectID, ProjectSecret: s.cfg.ProjectSecret}
	refresh, err := s.redis.Get(ctx, refreshTokenKey).Result()
	if err == nil && refresh != "" {
		req = maib.TokenRequest{RefreshToken: refresh}
		s.log.Info("requesting access token with refresh token")
	} else {
		s.log.Info("requesting access token with project credentials")
	}

	result, err := s.gen.GenerateToken(ctx, req)
	if err != nil {
		s.log.Error("token generation failed", zap.Error(err))
		return "", ErrNoToken
	}
	if result.AccessToken == "" || result.ExpiresIn <= 0 {
		s.log.Error("token response missing access token")
		return "", ErrNoToken
	}

	s.store(ctx, result)
	return result.AccessToken, nil
}

// Invalidate drops both cached tokens. Called whenever the project
// credentials or signature key change.
func (s *TokenSource) Invalidate(ctx context.Context) error {
	return s.redis.Del(ctx, accessTokenKey, refreshTokenKey).Err()
}

func (s *TokenSource) store(ctx context.Context, result *maib.TokenResult) {
	accessTTL := time.Duration(result.ExpiresIn) * time.Second
	if err := s.redis.Set(ctx, accessTokenKey, result.AccessToken, accessTTL).Err(); err != nil {
		s.log.Error("token cache write failed", zap.Error(err))
	}
	if result.RefreshToken != "" && result.RefreshExpiresIn > 0 {
		refreshTTL := time.Duration(result.RefreshExpiresIn) * time.Second
		if err := s.redis.Set(ctx, refreshTokenKey, result.RefreshToken, refreshTTL).Err(); err != nil {
			s.log.Error("refresh token cache write failed", zap.Error(err))
		}
	}
}
