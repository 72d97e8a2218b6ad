package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken issues a signed JWT whose subject is the owner ID.
func GenerateToken(ownerID string, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub": ownerID,
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
