package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrInvalidToken covers malformed, expired, signature-invalid and
// wrong-kind tokens.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the payload stored inside both access and refresh tokens.
// Subject carries the username; UserID the numeric account id.
type Claims struct {
	UserID    int64  `json:"user_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager mints and validates HS256 access/refresh token pairs.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Access mints a short-lived access token for the user.
func (tm *TokenManager) Access(userID int64, username string) (string, error) {
	return tm.mint(userID, username, tokenTypeAccess, tm.accessTTL)
}

// Refresh mints a long-lived refresh token for the user.
func (tm *TokenManager) Refresh(userID int64, username string) (string, error) {
	return tm.mint(userID, username, tokenTypeRefresh, tm.refreshTTL)
}

func (tm *TokenManager) mint(userID int64, username, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    userID,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "whisp",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// ParseAccess validates an access token and returns its claims.
func (tm *TokenManager) ParseAccess(token string) (*Claims, error) {
	return tm.parse(token, tokenTypeAccess)
}

// Exchange validates a refresh token and mints a fresh access token for the
// same principal.
func (tm *TokenManager) Exchange(refreshToken string) (string, error) {
	claims, err := tm.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return tm.Access(claims.UserID, claims.Subject)
}

func (tm *TokenManager) parse(tokenString, wantKind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != wantKind || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
