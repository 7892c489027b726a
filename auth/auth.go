// Package auth handles account registration, login and bearer-token
// verification for the pipeline endpoints. The reconciliation core stays
// stateless; the authenticated username travels in the request context only.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/noine32/deadstock-search-replit/logging"
	"github.com/noine32/deadstock-search-replit/storage"
)

// ErrInvalidCredentials is returned on unknown user or wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

const tokenTTL = 24 * time.Hour

type ctxKey string

const ctxUsername ctxKey = "username"

// Service bundles the user store and signing secret.
type Service struct {
	store  *storage.Store
	secret []byte
}

// NewService constructs an auth service.
func NewService(store *storage.Store, secret string) *Service {
	return &Service{store: store, secret: []byte(secret)}
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Register creates an account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return errors.New("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.store.CreateUser(ctx, username, string(hash))
}

// Login verifies credentials and returns a signed HS256 token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.UserByName(ctx, username)
	if errors.Is(err, storage.ErrUserNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	return token.SignedString(s.secret)
}

// VerifyToken validates a token string and returns the username inside it.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}
	return c.Username, nil
}

// Middleware guards a route group with bearer-token authentication.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		username, err := s.VerifyToken(strings.TrimSpace(header[len("bearer "):]))
		if err != nil {
			logging.Debug("Rejected bearer token", "remote_addr", r.RemoteAddr)
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUsername, username)))
	})
}

// UserFromContext returns the authenticated username, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(ctxUsername).(string)
	return username, ok
}
