package middlewares

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clipshare/account-backend/pkg/apihelpers"
	jwthandling "github.com/clipshare/account-backend/pkg/jwt-handling"
	"github.com/clipshare/account-backend/pkg/user-management/types"
)

const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"

	// gin context keys set by the auth gate
	CtxKeyValidatedToken = "validatedToken"
	CtxKeyAccount        = "account"
)

// AccountLoader resolves a token subject to the stored account.
// Satisfied by the account-user DB service.
type AccountLoader interface {
	GetUser(userID string) (types.User, error)
}

func extractAccessToken(c *gin.Context) (string, error) {
	if cookie, err := c.Cookie(AccessTokenCookieName); err == nil && cookie != "" {
		return cookie, nil
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("no Authorization token found")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if token == "" {
		return "", errors.New("no Authorization token found")
	}
	return token, nil
}

// GetAndValidateAccountJWT is the authentication gate: it extracts the
// bearer credential from the access token cookie or the Authorization
// header, validates it as an access token and attaches the resolved
// account to the request context. Every failure mode yields the same
// unauthorized response.
func GetAndValidateAccountJWT(tokenSignKey string, accounts AccountLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractAccessToken(c)
		if err != nil {
			slog.Warn("no Authorization token found")
			apihelpers.AbortWithError(c, apihelpers.ErrUnauthorized("unauthorized"))
			return
		}

		parsedToken, ok, err := jwthandling.ValidateAccessToken(token, tokenSignKey)
		if err != nil || !ok {
			slog.Warn("token validation failed")
			apihelpers.AbortWithError(c, apihelpers.ErrUnauthorized("unauthorized"))
			return
		}

		user, err := accounts.GetUser(parsedToken.Subject)
		if err != nil {
			slog.Warn("token subject not found", slog.String("subject", parsedToken.Subject))
			apihelpers.AbortWithError(c, apihelpers.ErrUnauthorized("unauthorized"))
			return
		}

		c.Set(CtxKeyValidatedToken, parsedToken)
		c.Set(CtxKeyAccount, user)
	}
}

// GetAccountFromContext returns the account the auth gate attached.
func GetAccountFromContext(c *gin.Context) (types.User, bool) {
	val, ok := c.Get(CtxKeyAccount)
	if !ok {
		return types.User{}, false
	}
	user, ok := val.(types.User)
	return user, ok
}
