package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// Claims is the one typed view of a verified token. Everything downstream
// of the verifier consumes this struct; nothing else parses tokens.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates RS256 bearer tokens against the identity provider's
// JWKS. The key set is cached and refreshed in the background, so steady
// state verification does not hit the network.
type Verifier struct {
	jwks     *keyfunc.JWKS
	audience string
	issuer   string
}

type VerifierOptions struct {
	JWKSURL  string
	Audience string
	Issuer   string
	Refresh  time.Duration
	Logger   *zap.Logger
}

func NewVerifier(opts VerifierOptions) (*Verifier, error) {
	if opts.Refresh == 0 {
		opts.Refresh = time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	jwks, err := keyfunc.Get(opts.JWKSURL, keyfunc.Options{
		RefreshInterval:   opts.Refresh,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("jwks refresh failed", zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	return &Verifier{
		jwks:     jwks,
		audience: opts.Audience,
		issuer:   opts.Issuer,
	}, nil
}

// Close stops the background key refresh.
func (v *Verifier) Close() {
	v.jwks.EndBackground()
}

// Verify checks an Authorization header value and returns the token's
// claims. An absent header is anonymous, not an error: both return values
// are nil.
func (v *Verifier) Verify(authorization string) (*Claims, error) {
	if strings.TrimSpace(authorization) == "" {
		return nil, nil
	}

	parts := strings.Fields(authorization)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, ErrMalformedCredential
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(parts[1], claims, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		if errors.Is(err, keyfunc.ErrKIDNotFound) {
			return nil, ErrUnknownKey
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	return claims, nil
}
