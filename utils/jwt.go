package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cppla/socialbbs/config"
)

// ErrTokenExpired is returned by ParseToken for a well-formed token past its expiry.
var ErrTokenExpired = errors.New("token expired")

// Claims defines JWT claims used in the application.
// PasswordEpoch pins the token to the password in force when it was issued.
type Claims struct {
	UserID        uint   `json:"id"`
	PasswordEpoch string `json:"passwordChangeId"`
	jwt.RegisteredClaims
}

// GenerateToken issues a JWT for the specified user identity.
func GenerateToken(userID uint, passwordEpoch string, duration time.Duration) (string, error) {
	cfg := config.Get()
	if duration <= 0 {
		duration = time.Duration(cfg.JWTExpiresHours) * time.Hour
	}

	now := time.Now()
	claims := Claims{
		UserID:        userID,
		PasswordEpoch: passwordEpoch,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a JWT and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
