package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// VerifierConfig configures session token verification.
type VerifierConfig struct {
	// Secret verifies HS256 tokens. Empty disables symmetric tokens.
	Secret string
	// JWKSURL resolves RS256/ES256 keys by kid. Empty disables asymmetric tokens.
	JWKSURL    string
	Issuer     string
	Audience   string
	CookieName string
}

type keySet interface {
	Get(ctx context.Context) (jwk.Set, error)
}

type jwksCache struct {
	cache *jwk.Cache
	url   string
}

func (j *jwksCache) Get(ctx context.Context) (jwk.Set, error) {
	return j.cache.Get(ctx, j.url)
}

// sessionClaims is the access token payload issued by the identity provider.
type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier resolves the current caller from request credentials.
type Verifier struct {
	cfg    VerifierConfig
	keys   keySet
	parser *jwt.Parser
}

// NewVerifier creates a Verifier. When a JWKS URL is configured the key set is
// fetched and refreshed in the background for the lifetime of ctx.
func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	if cfg.Secret == "" && cfg.JWKSURL == "" {
		return nil, errors.New("either a secret or a JWKS URL is required")
	}

	v := &Verifier{cfg: cfg}

	methods := []string{}
	if cfg.Secret != "" {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if cfg.JWKSURL != "" {
		cache := jwk.NewCache(ctx)
		if err := cache.Register(cfg.JWKSURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
			return nil, fmt.Errorf("registering JWKS URL: %w", err)
		}
		v.keys = &jwksCache{cache: cache, url: cfg.JWKSURL}
		methods = append(methods, jwt.SigningMethodRS256.Alg(), jwt.SigningMethodES256.Alg())
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	v.parser = jwt.NewParser(opts...)

	return v, nil
}

// CurrentUser returns the caller identified by the request's access token,
// read from the Authorization header or, failing that, the session cookie.
func (v *Verifier) CurrentUser(ctx context.Context, r *http.Request) (*Caller, error) {
	raw := v.tokenFromRequest(r)
	if raw == "" {
		return nil, fmt.Errorf("%w: missing credentials", ErrNoSession)
	}

	claims := &sessionClaims{}
	if _, err := v.parser.ParseWithClaims(raw, claims, v.keyFunc(ctx)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a valid id", ErrNoSession)
	}

	return &Caller{ID: id, Email: claims.Email}, nil
}

func (v *Verifier) tokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			return strings.TrimSpace(header[7:])
		}
		return ""
	}

	if v.cfg.CookieName != "" {
		if c, err := r.Cookie(v.cfg.CookieName); err == nil {
			return strings.TrimSpace(c.Value)
		}
	}
	return ""
}

func (v *Verifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if v.cfg.Secret == "" {
				return nil, errors.New("symmetric tokens are not accepted")
			}
			return []byte(v.cfg.Secret), nil
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			if v.keys == nil {
				return nil, errors.New("asymmetric tokens are not accepted")
			}
			kid, _ := token.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("token has no key id")
			}
			set, err := v.keys.Get(ctx)
			if err != nil {
				return nil, fmt.Errorf("fetching signing keys: %w", err)
			}
			key, ok := set.LookupKeyID(kid)
			if !ok {
				return nil, fmt.Errorf("unknown key id %q", kid)
			}
			var raw any
			if err := key.Raw(&raw); err != nil {
				return nil, fmt.Errorf("extracting signing key: %w", err)
			}
			return raw, nil
		default:
			return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
		}
	}
}
