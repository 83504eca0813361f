package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bucketdrop/internal/config"
)

// ErrNoSession is returned when the request carries no valid session cookie.
var ErrNoSession = errors.New("no valid session")

// Sessions issues and validates signed session cookies. The cookie
// value is an HS256 JWT carrying the username; it persists the login
// across requests until logout or expiry.
type Sessions struct {
	cookieName string
	signingKey []byte
	ttl        time.Duration
}

// NewSessions creates a session manager from the cookie configuration
func NewSessions(cfg config.Cookie) *Sessions {
	return &Sessions{
		cookieName: cfg.Name,
		signingKey: []byte(cfg.Key),
		ttl:        time.Duration(cfg.ExpiryDays) * 24 * time.Hour,
	}
}

// Issue sets a signed session cookie for username on the response
func (s *Sessions) Issue(w http.ResponseWriter, username string) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(s.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Username extracts the authenticated username from the request's
// session cookie. ErrNoSession covers missing, malformed and expired
// cookies alike.
func (s *Sessions) Username(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return "", ErrNoSession
	}

	token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid {
		return "", ErrNoSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrNoSession
	}

	username, _ := claims["sub"].(string)
	if username == "" {
		return "", ErrNoSession
	}
	return username, nil
}
