package websocket

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// TokenValidator resolves a bearer token to the owner it authenticates
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (ownerEmail string, err error)
}

// CustomClaims carries the email claim used to identify the owner
type CustomClaims struct {
	Email string `json:"email"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator validates Auth0 JWT tokens for WebSocket connections,
// which cannot carry an Authorization header from browsers.
type Auth0JWTValidator struct {
	validator *validator.Validator
}

// NewAuth0JWTValidator creates a new Auth0JWTValidator
func NewAuth0JWTValidator(domain, audience string) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0JWTValidator{validator: jwtValidator}, nil
}

// ValidateToken validates a JWT and returns its email claim, falling back to the subject
func (v *Auth0JWTValidator) ValidateToken(ctx context.Context, token string) (string, error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return "", ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	return ownerFromClaims(validatedClaims)
}

func ownerFromClaims(claims *validator.ValidatedClaims) (string, error) {
	if custom, ok := claims.CustomClaims.(*CustomClaims); ok && strings.TrimSpace(custom.Email) != "" {
		return strings.TrimSpace(custom.Email), nil
	}
	if claims.RegisteredClaims.Subject != "" {
		return claims.RegisteredClaims.Subject, nil
	}
	return "", ErrInvalidToken
}
