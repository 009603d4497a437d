package auth

import (
	"CrudAPI/internal/config"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("authentication token is required")
	ErrInvalidToken = errors.New("invalid token")
)

type contextKey string

const claimsContextKey contextKey = "jwt_claims"

// Gate decides whether a request may reach model logic.
type Gate interface {
	Verify(r *http.Request) (map[string]any, error)
}

// AllowAll is the gate used when authentication is disabled.
type AllowAll struct{}

func (AllowAll) Verify(*http.Request) (map[string]any, error) { return nil, nil }

// NewGate builds the gate described by cfg.
func NewGate(cfg config.AuthConfig) (Gate, error) {
	if !cfg.Enabled {
		return AllowAll{}, nil
	}
	return NewJWTValidator(cfg.JWT)
}

type JWTValidator struct {
	cfg       config.JWTConfig
	key       any
	expected  string
	clockFunc func() time.Time
}

func NewJWTValidator(cfg config.JWTConfig) (*JWTValidator, error) {
	alg := strings.ToUpper(strings.TrimSpace(cfg.ValidationType))
	if alg == "" {
		return nil, errors.New("jwt validation type is required")
	}

	v := &JWTValidator{
		cfg:       cfg,
		expected:  alg,
		clockFunc: time.Now,
	}

	switch alg {
	case "HS256":
		if cfg.HMACSecret == "" {
			return nil, errors.New("jwt hmac secret is required for HS256")
		}
		v.key = []byte(cfg.HMACSecret)
	case "RS256":
		keyPEM, err := loadPublicKeyPEM(cfg)
		if err != nil {
			return nil, err
		}
		key, err := jwt.ParseRSAPublicKeyFromPEM(keyPEM)
		if err != nil {
			return nil, fmt.Errorf("jwt public key is not RSA: %w", err)
		}
		v.key = key
	case "ES256":
		keyPEM, err := loadPublicKeyPEM(cfg)
		if err != nil {
			return nil, err
		}
		key, err := jwt.ParseECPublicKeyFromPEM(keyPEM)
		if err != nil {
			return nil, fmt.Errorf("jwt public key is not ECDSA: %w", err)
		}
		v.key = key
	default:
		return nil, fmt.Errorf("unsupported jwt validation type: %s", cfg.ValidationType)
	}

	return v, nil
}

// Verify reads the bearer token of r and validates it.
func (v *JWTValidator) Verify(r *http.Request) (map[string]any, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, ErrMissingToken
	}
	return v.ValidateToken(token)
}

func (v *JWTValidator) ValidateToken(token string) (map[string]any, error) {
	skew := v.cfg.ClockSkewSec
	if skew < 0 {
		skew = 0
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.expected}),
		jwt.WithLeeway(time.Duration(skew) * time.Second),
		jwt.WithTimeFunc(v.clockFunc),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return map[string]any(claims), nil
}

func WithClaims(ctx context.Context, claims map[string]any) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (map[string]any, bool) {
	claims, ok := ctx.Value(claimsContextKey).(map[string]any)
	return claims, ok
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func loadPublicKeyPEM(cfg config.JWTConfig) ([]byte, error) {
	keyPEM := strings.TrimSpace(cfg.PublicKeyPEM)
	if keyPEM == "" && strings.TrimSpace(cfg.PublicKeyPath) != "" {
		data, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read jwt public key: %w", err)
		}
		keyPEM = string(data)
	}
	if keyPEM == "" {
		return nil, errors.New("jwt public key is required")
	}
	return []byte(keyPEM), nil
}
