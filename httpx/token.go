package httpx

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/log"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is what a verified token proves about its bearer.
type Identity struct {
	ID    string
	Email string
}

// TokenService issues and verifies HS256 identity tokens.
type TokenService struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewTokenService(cfg config.Config) *TokenService {
	secret := cfg.TokenSecret
	if secret == "" {
		log.Warn("httpx.token: no token secret configured, signing with the insecure fallback secret")
		secret = config.FallbackTokenSecret
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		auth: jwtauth.New("HS256", []byte(secret), nil),
		ttl:  ttl,
	}
}

func (ts *TokenService) Issue(userID, email string) (string, error) {
	claims := map[string]any{
		"id":    userID,
		"email": email,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, time.Now().Add(ts.ttl))

	_, token, err := ts.auth.Encode(claims)
	return token, err
}

// Verify checks signature and expiry of token and extracts the identity.
// Any failure is reported as ErrInvalidToken.
func (ts *TokenService) Verify(token string) (id Identity, err error) {
	t, err := jwtauth.VerifyToken(ts.auth, token)
	if err != nil {
		log.Debugf("httpx.token.verify: %s", err)
		return id, ErrInvalidToken
	}

	claims := t.PrivateClaims()
	id.ID, _ = claims["id"].(string)
	id.Email, _ = claims["email"].(string)
	if id.ID == "" || id.Email == "" {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}
