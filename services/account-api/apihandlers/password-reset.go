package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipshare/account-backend/pkg/apihelpers"
	mw "github.com/clipshare/account-backend/pkg/apihelpers/middlewares"
	accountuser "github.com/clipshare/account-backend/pkg/db/account-user"
	"github.com/clipshare/account-backend/pkg/user-management/pwhash"
	"github.com/clipshare/account-backend/pkg/user-management/tokens"
	umUtils "github.com/clipshare/account-backend/pkg/user-management/utils"
)

func (h *HttpEndpoints) AddPasswordResetAPI(rg *gin.RouterGroup) {
	pwResetGroup := rg.Group("/accounts/password-reset")
	{
		pwResetGroup.POST("/initiate", mw.RequirePayload(), h.initiatePasswordReset)
		pwResetGroup.POST("/reset", mw.RequirePayload(), h.resetPassword)
	}
}

func (h *HttpEndpoints) initiatePasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrValidation("invalid request payload"))
		return
	}
	if req.Email == "" {
		apihelpers.SendError(c, apihelpers.ErrValidation("email is required"))
		return
	}

	req.Email = umUtils.SanitizeEmail(req.Email)

	user, err := h.userDBConn.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, accountuser.ErrAccountNotFound) {
			slog.Warn("password reset for non-existing account", slog.String("email", umUtils.BlurEmailAddress(req.Email)))
			randomWait(200, 600)
			apihelpers.SendError(c, apihelpers.ErrNotFound("account not found"))
			return
		}
		slog.Error("failed to look up account", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("internal server error"))
		return
	}

	plaintext, hash, err := tokens.GenerateResetToken()
	if err != nil {
		slog.Error("failed to generate reset token", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("token generation failed"))
		return
	}

	// overwrites any pending reset, only the newest link stays valid
	expiresAt := tokens.GetExpirationTime(h.ttls.ResetToken)
	if err := h.userDBConn.SetResetToken(user.ID.Hex(), hash, expiresAt); err != nil {
		slog.Error("failed to persist reset token", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("internal server error"))
		return
	}

	validMinutes := int(h.ttls.ResetToken.Minutes())
	if err := h.sendResetEmail(user.Email, user.DisplayName, h.resetURLForToken(plaintext), validMinutes); err != nil {
		// delivery failure is not surfaced to the caller
		slog.Error("failed to send reset email", slog.String("error", err.Error()), slog.String("email", umUtils.BlurEmailAddress(user.Email)))
	}

	slog.Info("password reset initiated", slog.String("subject", user.ID.Hex()))
	apihelpers.SendResponse(c, http.StatusOK, nil, "reset link sent")
}

func (h *HttpEndpoints) resetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrValidation("invalid request payload"))
		return
	}
	if req.Token == "" || req.Password == "" {
		apihelpers.SendError(c, apihelpers.ErrValidation("token and password are required"))
		return
	}

	// wrong and expired tokens are indistinguishable in the response
	user, err := h.userDBConn.GetUserByValidResetToken(tokens.HashToken(req.Token))
	if err != nil {
		slog.Warn("invalid or expired reset token presented")
		randomWait(200, 600)
		apihelpers.SendError(c, apihelpers.ErrValidation("invalid or expired reset token"))
		return
	}

	newPasswordHash, err := pwhash.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("internal server error"))
		return
	}

	// clears the reset token in the same update, a token never works twice
	if err := h.userDBConn.UpdatePasswordAndClearResetToken(user.ID.Hex(), newPasswordHash); err != nil {
		slog.Error("failed to update password", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("internal server error"))
		return
	}

	slog.Info("password reset successful", slog.String("subject", user.ID.Hex()))
	apihelpers.SendResponse(c, http.StatusOK, nil, "password reset successful")
}
