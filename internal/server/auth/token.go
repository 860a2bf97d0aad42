package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the server-side session id. The cookie holds nothing else.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// GenerateSessionToken signs a token naming sessionID, valid for the given
// duration.
func GenerateSessionToken(sessionID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		SessionID: sessionID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// SessionIDFromToken validates tokenString and returns the session id it
// names. Expired tokens yield common.ErrTokenExpired, every other failure
// common.ErrInvalidToken.
func SessionIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.SessionID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.SessionID, nil
}
