package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hr_project/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Email   string      `json:"email"`
	Role    domain.Role `json:"role"`
	IsAdmin bool        `json:"is_admin"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a uuid.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret, algorithm, issuer string, ttl time.Duration) (*TokenManager, error) {
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}
	return &TokenManager{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source used for issuing and validating tokens.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

func (m *TokenManager) Issue(user *domain.User) (string, time.Time, error) {
	issuedAt := m.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.ttl)
	claims := &Claims{
		Email:   user.Email,
		Role:    user.Role,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(m.method, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature, algorithm, subject, issuer and expiry of tokenString.
// Every failure is reported as ErrInvalidToken.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{m.method.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	now := m.now()
	if claims.ExpiresAt == nil || !claims.VerifyExpiresAt(now, true) {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyNotBefore(now, false) {
		return nil, ErrInvalidToken
	}
	if m.issuer != "" && !claims.VerifyIssuer(m.issuer, true) {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractToken takes the bearer token from the Authorization header, falling back to the
// Authorization cookie whose value may or may not carry the "Bearer " prefix.
func ExtractToken(header, cookie string) (string, bool) {
	if header != "" {
		scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}
	cookie = strings.TrimSpace(cookie)
	if len(cookie) > len("Bearer ") && strings.EqualFold(cookie[:len("Bearer ")], "Bearer ") {
		cookie = strings.TrimSpace(cookie[len("Bearer "):])
	}
	return cookie, cookie != ""
}
