package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"usage-dashboard/model"
)

// DefaultSecret is the insecure fallback used when no signing secret is
// configured. Anyone knowing it can forge session tokens.
const DefaultSecret = "This is JWT secret"

// ErrInvalidToken covers every decode failure: malformed structure, wrong
// signing method, signature mismatch, or an expired issued-at claim.
var ErrInvalidToken = errors.New("invalid session token")

// TokenManager signs a credential pair into a session token and verifies
// tokens back into credentials. The credential itself is the payload; there
// is no user record behind it.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager. An empty secret falls back to
// DefaultSecret with a warning. ttl of zero disables expiry checks.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if secret == "" {
		log.Warn().Msg("auth.jwt_secret not configured, using built-in development secret; session tokens are forgeable")
		secret = DefaultSecret
	}

	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate signs the credential pair into a session token. The issued-at
// claim is always recorded even when no TTL is enforced.
func (tm *TokenManager) Generate(cred model.Credential) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email":    cred.Email,
		"password": cred.Password,
		"iat":      time.Now().Unix(),
	})

	return token.SignedString(tm.secret)
}

// Verify checks the token signature and returns the embedded credential.
// Any failure comes back as ErrInvalidToken; Verify never panics on
// malformed input.
func (tm *TokenManager) Verify(tokenString string) (model.Credential, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return model.Credential{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Credential{}, ErrInvalidToken
	}

	email, ok := claims["email"].(string)
	if !ok {
		return model.Credential{}, ErrInvalidToken
	}
	password, ok := claims["password"].(string)
	if !ok {
		return model.Credential{}, ErrInvalidToken
	}

	if tm.ttl > 0 {
		issuedAt, ok := claims["iat"].(float64)
		if !ok {
			return model.Credential{}, ErrInvalidToken
		}
		if time.Since(time.Unix(int64(issuedAt), 0)) > tm.ttl {
			return model.Credential{}, ErrInvalidToken
		}
	}

	return model.Credential{Email: email, Password: password}, nil
}
