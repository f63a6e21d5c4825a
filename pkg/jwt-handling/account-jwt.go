package jwthandling

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TOKEN_KIND_ACCESS  = "access"
	TOKEN_KIND_REFRESH = "refresh"
)

// Information a token encodes
type AccountClaims struct {
	TokenKind string `json:"tokenKind,omitempty"`
	jwt.RegisteredClaims
}

func generateToken(expiresIn time.Duration, id string, kind string, secretKey string) (string, error) {
	claims := AccountClaims{
		kind,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   id,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

// GenerateNewAccessToken mints a short lived access token for the account.
func GenerateNewAccessToken(expiresIn time.Duration, id string, secretKey string) (string, error) {
	return generateToken(expiresIn, id, TOKEN_KIND_ACCESS, secretKey)
}

// GenerateNewRefreshToken mints a refresh token, signed with its own
// key. Currency of the token must additionally be checked against the
// value stored on the account.
func GenerateNewRefreshToken(expiresIn time.Duration, id string, secretKey string) (string, error) {
	return generateToken(expiresIn, id, TOKEN_KIND_REFRESH, secretKey)
}

func validateToken(tokenString string, kind string, secretKey string) (claims *AccountClaims, valid bool, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccountClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if token == nil {
		return
	}
	claims, valid = token.Claims.(*AccountClaims)
	valid = valid && token.Valid && claims.TokenKind == kind
	return
}

func ValidateAccessToken(tokenString string, secretKey string) (claims *AccountClaims, valid bool, err error) {
	return validateToken(tokenString, TOKEN_KIND_ACCESS, secretKey)
}

func ValidateRefreshToken(tokenString string, secretKey string) (claims *AccountClaims, valid bool, err error) {
	return validateToken(tokenString, TOKEN_KIND_REFRESH, secretKey)
}
