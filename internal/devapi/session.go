package devapi

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionIssuer = "learnup-dev-api"

// SessionClaims are carried in the session cookie.
type SessionClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies HS256-signed session cookies.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	cookie string
	now    func() time.Time
}

// NewSessions builds a session issuer. An empty secret is replaced by random
// bytes, so cookies do not survive a restart.
func NewSessions(secret string, ttl time.Duration, cookieName string) (*Sessions, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	cookieName = strings.TrimSpace(cookieName)
	if cookieName == "" {
		return nil, errors.New("session cookie name is required")
	}
	return &Sessions{secret: key, ttl: ttl, cookie: cookieName, now: time.Now}, nil
}

// CookieName returns the name of the session cookie.
func (s *Sessions) CookieName() string {
	return s.cookie
}

// Issue signs a session for u and returns it as a cookie.
func (s *Sessions) Issue(u User) (*http.Cookie, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := &SessionClaims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.Email,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &http.Cookie{
		Name:     s.cookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Parse verifies a signed session token.
func (s *Sessions) Parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// FromRequest verifies the session cookie on r.
func (s *Sessions) FromRequest(r *http.Request) (*SessionClaims, error) {
	cookie, err := r.Cookie(s.cookie)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return nil, fmt.Errorf("%w: no session cookie", ErrUnauthorized)
	}
	return s.Parse(cookie.Value)
}
