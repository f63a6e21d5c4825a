package apihandlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipshare/account-backend/pkg/user-management/types"
)

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UserStore is the credential store contract the handlers depend on,
// satisfied by the account-user DB service.
type UserStore interface {
	AddUser(user types.User) (string, error)
	GetUser(userID string) (types.User, error)
	GetUserByUsernameOrEmail(identifier string) (types.User, error)
	GetUserByEmail(email string) (types.User, error)
	UpdateRefreshToken(userID string, refreshToken string) error
	ClearRefreshToken(userID string) error
	SetResetToken(userID string, hash string, expiresAt time.Time) error
	GetUserByValidResetToken(hash string) (types.User, error)
	UpdatePasswordAndClearResetToken(userID string, newPasswordHash string) error
	DeleteUser(userID string) error
}

// AvatarStore persists staged avatar files to durable media storage.
type AvatarStore interface {
	Store(ctx context.Context, localPath string) (types.AvatarRef, error)
	Remove(ctx context.Context, key string) error
}

// ResetEmailSender delivers the password reset link.
type ResetEmailSender func(to string, displayName string, resetURL string, validMinutes int) error

type TokenTTLs struct {
	AccessToken  time.Duration
	RefreshToken time.Duration
	ResetToken   time.Duration
}

type HttpEndpoints struct {
	userDBConn          UserStore
	avatarStore         AvatarStore
	sendResetEmail      ResetEmailSender
	accessTokenSignKey  string
	refreshTokenSignKey string
	ttls                TokenTTLs
	clientBaseURL       string
	filestorePath       string
	useSecureCookies    bool
}

func NewHTTPHandler(
	accessTokenSignKey string,
	refreshTokenSignKey string,
	ttls TokenTTLs,
	userDBConn UserStore,
	avatarStore AvatarStore,
	sendResetEmail ResetEmailSender,
	clientBaseURL string,
	filestorePath string,
	useSecureCookies bool,
) *HttpEndpoints {
	return &HttpEndpoints{
		userDBConn:          userDBConn,
		avatarStore:         avatarStore,
		sendResetEmail:      sendResetEmail,
		accessTokenSignKey:  accessTokenSignKey,
		refreshTokenSignKey: refreshTokenSignKey,
		ttls:                ttls,
		clientBaseURL:       clientBaseURL,
		filestorePath:       filestorePath,
		useSecureCookies:    useSecureCookies,
	}
}
