package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ericfisherdev/storeadmin/internal/domain/model"
)

const (
	sessionCookieName = "storeadmin_session"
	sessionLifetime   = 12 * time.Hour
)

// Session is the per-browser state carried in the signed session cookie.
type Session struct {
	ID    string
	Gate  model.AccessGate
	flash *model.Flash
}

// SetFlash stores a message to show on the next rendered page.
func (s *Session) SetFlash(kind model.FlashKind, message string) {
	s.flash = &model.Flash{Kind: kind, Message: message}
}

// TakeFlash returns the pending flash and clears it.
func (s *Session) TakeFlash() *model.Flash {
	f := s.flash
	s.flash = nil
	return f
}

type flashClaim struct {
	Kind    model.FlashKind `json:"k"`
	Message string          `json:"m"`
}

type sessionClaims struct {
	Verified   bool        `json:"gv,omitempty"`
	VerifiedAt int64       `json:"gat,omitempty"`
	Flash      *flashClaim `json:"fl,omitempty"`
	jwt.RegisteredClaims
}

// SessionCodec reads and writes sessions as HS256-signed JWT cookies.
type SessionCodec struct {
	key    []byte
	secure bool
	now    func() time.Time
}

// NewSessionCodec creates a SessionCodec signing with key. secure marks the
// cookie HTTPS-only.
func NewSessionCodec(key []byte, secure bool) *SessionCodec {
	return &SessionCodec{key: key, secure: secure, now: time.Now}
}

// Encode signs s into a token string.
func (c *SessionCodec) Encode(s *Session) (string, error) {
	now := c.now()
	claims := sessionClaims{
		Verified: s.Gate.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionLifetime)),
		},
	}
	if s.Gate.VerifiedAt != nil {
		claims.VerifiedAt = s.Gate.VerifiedAt.Unix()
	}
	if s.flash != nil {
		claims.Flash = &flashClaim{Kind: s.flash.Kind, Message: s.flash.Message}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies raw and returns the session it carries.
func (c *SessionCodec) Decode(raw string) (*Session, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, errors.New("invalid session")
	}

	s := &Session{ID: claims.ID}
	if claims.Verified && claims.VerifiedAt > 0 {
		at := time.Unix(claims.VerifiedAt, 0).UTC()
		s.Gate = model.AccessGate{Verified: true, VerifiedAt: &at}
	}
	if claims.Flash != nil {
		s.flash = &model.Flash{Kind: claims.Flash.Kind, Message: claims.Flash.Message}
	}
	return s, nil
}

// Load returns the request's session, or a fresh one when the cookie is
// missing, expired or forged.
func (c *SessionCodec) Load(r *http.Request) *Session {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if s, err := c.Decode(cookie.Value); err == nil {
			return s
		}
	}
	return &Session{ID: uuid.NewString()}
}

// Save writes s to the response cookie. It must run before the body is written.
func (c *SessionCodec) Save(w http.ResponseWriter, s *Session) error {
	token, err := c.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionLifetime / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	})
	return nil
}

// Middleware loads the session into the request context.
func (c *SessionCodec) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := c.Load(r)
		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), s)))
	})
}

type sessionContextKey struct{}

func withSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// SessionFrom returns the session placed in ctx by Middleware, or nil.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionContextKey{}).(*Session)
	return s
}
