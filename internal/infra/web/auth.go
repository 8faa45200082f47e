package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSession = errors.New("no admin session")

// SessionConfig carries the knobs for the stateless admin session: the HMAC
// signing secret, the cookie the token rides in, and how long a login lasts.
type SessionConfig struct {
	Secret     []byte
	CookieName string
	Secure     bool
	TTL        time.Duration
}

// SessionManager mints and verifies the short-lived HS256 tokens that back
// the admin panel session. Tokens are accepted from either the session cookie
// or an Authorization bearer header, so API clients can skip cookies.
type SessionManager struct{ cfg SessionConfig }

func NewSessionManager(cfg SessionConfig) *SessionManager {
	return &SessionManager{cfg: cfg}
}

// SessionClaims records which admin login the token was issued to.
type SessionClaims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

// Issue signs a fresh token for login and sets it as an HttpOnly cookie.
// The signed token is also returned for bearer-style clients.
func (m *SessionManager) Issue(w http.ResponseWriter, login string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, m.cookie(signed, int(m.cfg.TTL.Seconds())))
	return signed, nil
}

// Revoke expires the session cookie. The token itself stays valid until its
// exp claim passes; the TTL is kept short for that reason.
func (m *SessionManager) Revoke(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1))
}

// FromRequest verifies the token on r, preferring the Authorization header
// over the cookie.
func (m *SessionManager) FromRequest(r *http.Request) (*SessionClaims, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return m.verify(strings.TrimSpace(hdr[7:]))
		}
	}
	if c, err := r.Cookie(m.cfg.CookieName); err == nil {
		return m.verify(c.Value)
	}
	return nil, ErrNoSession
}

func (m *SessionManager) verify(tok string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims,
		func(t *jwt.Token) (any, error) { return m.cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrNoSession
	}
	return claims, nil
}

func (m *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
