// Package security provides token authentication, request validation and rate limiting
package security

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/domain/user"
	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
	"github.com/alchemorsel/fusionchef/internal/ports/inbound"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
	apperrors "github.com/alchemorsel/fusionchef/pkg/errors"
)

const revokedPrefix = "revoked_token:"

// ErrTokenRevoked is returned for a signed-out token
var ErrTokenRevoked = errors.New("token has been revoked")

// Claims represents JWT claims structure
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies the tokens of signed-in users. The identity provider
// owns the accounts; the service only trusts what the callback hands it.
type AuthService struct {
	config    config.AuthConfig
	cache     outbound.CacheRepository
	jwtSecret []byte
	tracer    trace.Tracer
	logger    *zap.Logger

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(user.AuthChangedEvent)
}

var (
	_ inbound.AuthService   = (*AuthService)(nil)
	_ outbound.AuthProvider = (*AuthService)(nil)
)

// NewAuthService creates a new authentication service. cache keeps revoked token ids.
func NewAuthService(cfg config.AuthConfig, cache outbound.CacheRepository, logger *zap.Logger) *AuthService {
	if cfg.JWTExpiration <= 0 {
		cfg.JWTExpiration = 24 * time.Hour
	}
	return &AuthService{
		config:    cfg,
		cache:     cache,
		jwtSecret: []byte(cfg.JWTSecret),
		tracer:    otel.Tracer("fusionchef/auth"),
		logger:    logger.Named("auth"),
		listeners: make(map[int]func(user.AuthChangedEvent)),
	}
}

// SignIn returns the identity provider URL. state comes back unchanged on the callback.
func (a *AuthService) SignIn(ctx context.Context, state string) (string, error) {
	u, err := url.Parse(a.config.AuthorizeURL)
	if err != nil || a.config.AuthorizeURL == "" {
		return "", apperrors.NewAppError(apperrors.CodeServiceUnavailable, "Sign in is not configured", "")
	}
	q := u.Query()
	q.Set("state", state)
	if a.config.CallbackURL != "" {
		q.Set("redirect_uri", a.config.CallbackURL)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Complete issues a token for the identity returned by the provider
func (a *AuthService) Complete(ctx context.Context, state, subject, email string) (string, *user.User, error) {
	ctx, span := a.tracer.Start(ctx, "auth.complete")
	defer span.End()

	u, err := user.New(subject, email)
	if err != nil {
		return "", nil, apperrors.NewValidationError(err.Error())
	}

	token, claims, err := a.generateToken(u)
	if err != nil {
		span.RecordError(err)
		return "", nil, apperrors.Wrap(err, "Failed to issue token")
	}
	span.SetAttributes(attribute.String("user.id", u.ID), attribute.String("jwt.id", claims.ID))

	a.logger.Info("User signed in", zap.String("user_id", u.ID))
	a.emit(user.AuthChangedEvent{User: u, SignedIn: true, ChangedAt: time.Now()})
	return token, u, nil
}

// CurrentUser verifies a token and returns its user
func (a *AuthService) CurrentUser(ctx context.Context, token string) (*user.User, error) {
	claims, err := a.ValidateToken(ctx, token)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid or expired token").WithCause(err)
	}
	return &user.User{ID: claims.UserID, Email: claims.Email}, nil
}

// SignOut revokes the token until it would have expired
func (a *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := a.ValidateToken(ctx, token)
	if err != nil {
		return apperrors.NewUnauthorizedError("Invalid or expired token").WithCause(err)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl > 0 {
		if err := a.cache.Set(ctx, revokedPrefix+claims.ID, []byte("revoked"), ttl); err != nil {
			return apperrors.Wrap(err, "Failed to revoke token")
		}
	}

	a.logger.Info("User signed out", zap.String("user_id", claims.UserID))
	a.emit(user.AuthChangedEvent{
		User:      &user.User{ID: claims.UserID, Email: claims.Email},
		SignedIn:  false,
		ChangedAt: time.Now(),
	})
	return nil
}

// OnAuthChange registers a listener and returns its unsubscribe func
func (a *AuthService) OnAuthChange(fn func(e user.AuthChangedEvent)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

// ValidateToken validates and parses a JWT token, rejecting revoked ones
func (a *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	ctx, span := a.tracer.Start(ctx, "auth.validate_token")
	defer span.End()

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithIssuer(a.config.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	revoked, err := a.cache.Exists(ctx, revokedPrefix+claims.ID)
	if err != nil {
		// Fail open: the cache only holds revocations, the signature was verified.
		a.logger.Warn("Failed to check token revocation", zap.Error(err))
	} else if revoked {
		return nil, ErrTokenRevoked
	}

	span.SetAttributes(attribute.String("user.id", claims.UserID), attribute.String("jwt.id", claims.ID))
	return claims, nil
}

func (a *AuthService) generateToken(u *user.User) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.config.Issuer,
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.JWTExpiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, claims, nil
}

func (a *AuthService) emit(e user.AuthChangedEvent) {
	a.mu.Lock()
	fns := make([]func(user.AuthChangedEvent), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
