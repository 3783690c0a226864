// Package auth issues and verifies admin bearer tokens.
package auth

import (
	"crypto/subtle"
	"time"

	"campus-food/internal/xpkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const RoleAdmin = "admin"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotConfigured      = errors.New("admin login is not configured")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret       []byte
	ttl          time.Duration
	username     string
	passwordHash []byte
	now          func() time.Time
}

func New(cfg config.Auth) (*Authenticator, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.Errorf("auth.token_ttl must be positive: %s", cfg.TokenTTL)
	}
	return &Authenticator{
		secret:       []byte(cfg.JWTSecret),
		ttl:          cfg.TokenTTL,
		username:     cfg.AdminUsername,
		passwordHash: []byte(cfg.AdminPasswordHash),
		now:          time.Now,
	}, nil
}

// Login checks the admin credentials and returns a signed token.
func (a *Authenticator) Login(username, password string) (string, time.Time, error) {
	if a.username == "" || len(a.passwordHash) == 0 {
		return "", time.Time{}, ErrNotConfigured
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil || !userOK {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return a.Issue(username)
}

func (a *Authenticator) Issue(username string) (string, time.Time, error) {
	now := a.now()
	expires := now.Add(a.ttl)

	claims := &Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return token, expires, nil
}

// Verify parses tokenStr and returns its claims. Only admin HS256 tokens with an
// expiry are accepted.
func (a *Authenticator) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return nil, errors.Wrap(ErrInvalidToken, errString(err))
	}
	if claims.Role != RoleAdmin || claims.Subject == "" {
		return nil, errors.Wrap(ErrInvalidToken, "not an admin token")
	}
	return claims, nil
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}

func errString(err error) string {
	if err == nil {
		return "token not valid"
	}
	return err.Error()
}
