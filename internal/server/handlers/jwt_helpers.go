package handlers

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vodomat/fieldsync/internal/models"
)

// Token scopes. A pending token is issued after a correct password
// when 2FA is enabled; it is accepted only by the 2FA verify endpoint.
const (
	ScopeFull             = "full"
	ScopeTwoFactorPending = "2fa_pending"
)

// CustomClaims represents the JWT claims for this application
type CustomClaims struct {
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Scope    string      `json:"scope"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT signing configuration
type JWTConfig struct {
	Secret          []byte
	AccessTokenTTL  time.Duration
	PendingTokenTTL time.Duration
}

// GenerateAccessToken creates a full-scope JWT access token
func GenerateAccessToken(cfg JWTConfig, user *models.User) (string, int64, error) {
	return generateToken(cfg, user, ScopeFull, cfg.AccessTokenTTL)
}

// GeneratePendingToken creates a short-lived token accepted only by
// the 2FA verification endpoint
func GeneratePendingToken(cfg JWTConfig, user *models.User) (string, int64, error) {
	return generateToken(cfg, user, ScopeTwoFactorPending, cfg.PendingTokenTTL)
}

func generateToken(cfg JWTConfig, user *models.User, scope string, ttl time.Duration) (string, int64, error) {
	now := time.Now()

	claims := CustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "fieldsync",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, int64(ttl.Seconds()), nil
}

// ValidateAccessToken validates and parses a JWT access token
func ValidateAccessToken(cfg JWTConfig, tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.Secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
