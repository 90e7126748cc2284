package security

import (
	"context"
	"errors"
	"time"

	"music_charts_api/internal/common"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Token type discriminators. The type claim keeps refresh tokens from being
// replayed as access tokens and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenCodec signs and verifies access/refresh tokens with an HS256 shared
// secret. Any decode failure (bad signature, malformed token, past expiry,
// wrong algorithm) is reported uniformly as ErrInvalidToken so callers never
// leak the cause to the client.
type TokenCodec struct {
	auth       *jwtauth.JWTAuth
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenCodec(secret []byte, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		auth:       jwtauth.New("HS256", secret, nil),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// JWTAuth exposes the underlying verifier for the router's jwtauth.Verifier
// middleware.
func (c *TokenCodec) JWTAuth() *jwtauth.JWTAuth {
	return c.auth
}

func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

// GenerateAccessToken embeds subject, role and numeric user id.
func (c *TokenCodec) GenerateAccessToken(username, role string, userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     username,
		"role":    role,
		"user_id": userID,
		"type":    TokenTypeAccess,
		"iat":     now.Unix(),
		"exp":     now.Add(c.accessTTL).Unix(),
	}
	_, tokenString, err := c.auth.Encode(claims)
	return tokenString, err
}

// GenerateRefreshToken embeds subject and numeric user id only.
func (c *TokenCodec) GenerateRefreshToken(username string, userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     username,
		"user_id": userID,
		"type":    TokenTypeRefresh,
		"iat":     now.Unix(),
		"exp":     now.Add(c.refreshTTL).Unix(),
	}
	_, tokenString, err := c.auth.Encode(claims)
	return tokenString, err
}

// Decode verifies the signature and standard claims and returns the claim
// set. Every failure mode collapses into ErrInvalidToken.
func (c *TokenCodec) Decode(tokenString string) (map[string]interface{}, error) {
	token, err := jwtauth.VerifyToken(c.auth, tokenString)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// TokenType returns the type discriminator, or "" when absent.
func TokenType(claims map[string]interface{}) string {
	t, _ := claims["type"].(string)
	return t
}

// UserIDFromClaims extracts the numeric user id claim.
func UserIDFromClaims(claims map[string]interface{}) (int64, error) {
	switch v := claims["user_id"].(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	}
	return 0, errors.New("user_id claim is missing or not numeric")
}

// SubjectFromClaims extracts the subject (username) claim.
func SubjectFromClaims(claims map[string]interface{}) (string, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("sub claim is missing or not a string")
	}
	return sub, nil
}

// RoleFromClaims extracts the role claim.
func RoleFromClaims(claims map[string]interface{}) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
