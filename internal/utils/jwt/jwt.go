package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CreateToken issues a signed token carrying the owner account id
func CreateToken(ownerID string, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub": ownerID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ExtractOwnerIDFromToken validates the token signature and expiry and
// returns the owner account id it carries
func ExtractOwnerIDFromToken(tokenString string, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}

	ownerID, ok := claims["sub"].(string)
	if !ok || ownerID == "" {
		return "", errors.New("token missing subject claim")
	}

	return ownerID, nil
}
