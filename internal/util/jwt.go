package util

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"inquirydesk/internal/config"
	"inquirydesk/internal/metrics"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoVerifier   = errors.New("no token verification method configured")
)

// Claims are the identity provider claims the API relies on.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier checks bearer tokens issued by the external identity
// provider. HMAC tokens are checked against the shared secret, asymmetric
// ones against the provider's JWKS. Verified tokens are cached until the
// cache TTL or the token expiry, whichever comes first.
type TokenVerifier struct {
	secret  []byte
	jwks    keyfunc.Keyfunc
	options []jwt.ParserOption
	cache   *expirable.LRU[string, *Claims]
	now     func() time.Time
}

// NewTokenVerifier builds a verifier from the auth configuration, starting
// a background JWKS refresh when a JWKS URL is set.
func NewTokenVerifier(cfg config.AuthConfig) (*TokenVerifier, error) {
	var kf keyfunc.Keyfunc
	if cfg.JWKSURL != "" {
		storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
			Client:                    &http.Client{Timeout: cfg.JWKSClientTimeout},
			NoErrorReturnFirstHTTPReq: true,
			RefreshInterval:           cfg.JWKSRefreshInterval,
			RefreshErrorHandler: func(_ context.Context, err error) {
				log.Printf("[AUTH] JWKS refresh failed: url=%s: %v", cfg.JWKSURL, err)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("create JWKS storage: %w", err)
		}
		kf, err = keyfunc.New(keyfunc.Options{Storage: storage})
		if err != nil {
			return nil, fmt.Errorf("create keyfunc: %w", err)
		}
	}
	return NewTokenVerifierWithKeyfunc(kf, cfg)
}

// NewTokenVerifierWithKeyfunc is NewTokenVerifier with a ready keyfunc,
// which may be nil when only the shared secret is used.
func NewTokenVerifierWithKeyfunc(kf keyfunc.Keyfunc, cfg config.AuthConfig) (*TokenVerifier, error) {
	if cfg.JWTSecret == "" && kf == nil {
		return nil, ErrNoVerifier
	}

	var methods []string
	if cfg.JWTSecret != "" {
		methods = append(methods, "HS256", "HS384", "HS512")
	}
	if kf != nil {
		methods = append(methods, "RS256", "RS384", "RS512", "ES256", "ES384", "PS256", "EdDSA")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}

	v := &TokenVerifier{
		jwks:    kf,
		options: options,
		now:     time.Now,
	}
	if cfg.JWTSecret != "" {
		v.secret = []byte(cfg.JWTSecret)
	}
	if cfg.TokenCacheSize > 0 && cfg.TokenCacheTTL > 0 {
		v.cache = expirable.NewLRU[string, *Claims](cfg.TokenCacheSize, nil, cfg.TokenCacheTTL)
	}
	return v, nil
}

// Verify validates tokenString and returns its claims.
func (v *TokenVerifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	key := cacheKey(tokenString)
	if v.cache != nil {
		if claims, ok := v.cache.Get(key); ok {
			if claims.ExpiresAt != nil && v.now().Before(claims.ExpiresAt.Time) {
				metrics.RecordTokenCache(true)
				return claims, nil
			}
			v.cache.Remove(key)
		}
		metrics.RecordTokenCache(false)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFor(ctx), v.options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	if v.cache != nil {
		v.cache.Add(key, claims)
	}
	return claims, nil
}

func (v *TokenVerifier) keyFor(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
			if v.secret == nil {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		}
		if v.jwks == nil {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.jwks.KeyfuncCtx(ctx)(token)
	}
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
