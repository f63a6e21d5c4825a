package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipshare/account-backend/pkg/apihelpers"
	mw "github.com/clipshare/account-backend/pkg/apihelpers/middlewares"
	accountuser "github.com/clipshare/account-backend/pkg/db/account-user"
	jwthandling "github.com/clipshare/account-backend/pkg/jwt-handling"
	"github.com/clipshare/account-backend/pkg/user-management/pwhash"
	"github.com/clipshare/account-backend/pkg/user-management/types"
	umUtils "github.com/clipshare/account-backend/pkg/user-management/utils"
	"github.com/clipshare/account-backend/pkg/utils"
)

func (h *HttpEndpoints) AddAccountAPI(rg *gin.RouterGroup) {
	accountsGroup := rg.Group("/accounts")
	{
		accountsGroup.POST("/register", h.register)
		accountsGroup.POST("/login", mw.RequirePayload(), h.login)
		accountsGroup.POST("/token/renew", h.renewAccessToken)
	}

	authedGroup := accountsGroup.Group("")
	authedGroup.Use(mw.GetAndValidateAccountJWT(h.accessTokenSignKey, h.userDBConn))
	{
		authedGroup.POST("/logout", h.logout)
		authedGroup.GET("/me", h.getProfile)
		authedGroup.DELETE("/me", h.deleteAccount)
	}
}

func (h *HttpEndpoints) register(c *gin.Context) {
	username := c.PostForm("username")
	email := c.PostForm("email")
	displayName := c.PostForm("displayName")
	password := c.PostForm("password")

	if username == "" || email == "" || displayName == "" || password == "" {
		slog.Error("missing required fields")
		apihelpers.SendError(c, apihelpers.ErrValidation("all fields (username, email, displayName, password) are required"))
		return
	}

	email = umUtils.SanitizeEmail(email)
	if !umUtils.CheckEmailFormat(email) {
		slog.Error("invalid email format", slog.String("email", umUtils.BlurEmailAddress(email)))
		apihelpers.SendError(c, apihelpers.ErrValidation("invalid email format"))
		return
	}
	if !umUtils.CheckUsernameFormat(username) {
		slog.Error("invalid username format", slog.String("username", username))
		apihelpers.SendError(c, apihelpers.ErrValidation("invalid username format"))
		return
	}

	if _, err := h.userDBConn.GetUserByUsernameOrEmail(username); err == nil {
		slog.Warn("registration with existing username", slog.String("username", username))
		apihelpers.SendError(c, apihelpers.ErrConflict("account with this email or username already exists"))
		return
	}
	if _, err := h.userDBConn.GetUserByEmail(email); err == nil {
		slog.Warn("registration with existing email", slog.String("email", umUtils.BlurEmailAddress(email)))
		apihelpers.SendError(c, apihelpers.ErrConflict("account with this email or username already exists"))
		return
	}

	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		slog.Error("avatar file missing", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrValidation("avatar file is required"))
		return
	}
	if err := utils.ValidateAvatarFile(avatarFile); err != nil {
		slog.Error("avatar file rejected", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrValidation(err.Error()))
		return
	}

	localPath, err := h.stageUploadedFile(c, avatarFile.Filename)
	if err != nil {
		slog.Error("failed to stage avatar file", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrUploadFailed("avatar upload failed"))
		return
	}

	// the account must not exist without a stored avatar
	avatarRef, err := h.avatarStore.Store(c.Request.Context(), localPath)
	if err != nil {
		slog.Error("avatar upload failed", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrUploadFailed("avatar upload failed"))
		return
	}

	passwordHash, err := pwhash.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("internal server error"))
		return
	}

	newUser := types.User{
		Username:     username,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		Avatar:       avatarRef,
	}

	id, err := h.userDBConn.AddUser(newUser)
	if err != nil {
		if errors.Is(err, accountuser.ErrAccountExists) {
			slog.Warn("registration lost uniqueness race", slog.String("username", username))
			apihelpers.SendError(c, apihelpers.ErrConflict("account with this email or username already exists"))
			return
		}
		slog.Error("failed to create account", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("internal server error"))
		return
	}

	createdUser, err := h.userDBConn.GetUser(id)
	if err != nil {
		slog.Error("failed to load created account", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("internal server error"))
		return
	}

	slog.Info("registration successful", slog.String("subject", id))
	apihelpers.SendResponse(c, http.StatusCreated, createdUser, "account registered successfully")
}

type loginReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *HttpEndpoints) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrValidation("invalid request payload"))
		return
	}

	if (req.Username == "" && req.Email == "") || req.Password == "" {
		slog.Error("missing required fields")
		apihelpers.SendError(c, apihelpers.ErrValidation("either email or username and password are required"))
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = umUtils.SanitizeEmail(req.Email)
	}

	user, err := h.userDBConn.GetUserByUsernameOrEmail(identifier)
	if err != nil {
		slog.Warn("login attempt with unknown identifier")
		randomWait(200, 600)
		apihelpers.SendError(c, apihelpers.ErrUnauthorized("invalid credentials"))
		return
	}

	match, err := pwhash.ComparePasswordWithHash(user.PasswordHash, req.Password)
	if err != nil || !match {
		slog.Warn("login attempt with wrong password", slog.String("subject", user.ID.Hex()))
		randomWait(200, 600)
		apihelpers.SendError(c, apihelpers.ErrUnauthorized("invalid credentials"))
		return
	}

	accessToken, err := jwthandling.GenerateNewAccessToken(h.ttls.AccessToken, user.ID.Hex(), h.accessTokenSignKey)
	if err != nil {
		slog.Error("failed to generate access token", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("token generation failed"))
		return
	}

	refreshToken, err := jwthandling.GenerateNewRefreshToken(h.ttls.RefreshToken, user.ID.Hex(), h.refreshTokenSignKey)
	if err != nil {
		slog.Error("failed to generate refresh token", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("token generation failed"))
		return
	}

	// overwriting the stored token supersedes any earlier session
	if err := h.userDBConn.UpdateRefreshToken(user.ID.Hex(), refreshToken); err != nil {
		slog.Error("failed to persist refresh token", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("internal server error"))
		return
	}

	h.setAuthCookies(c, accessToken, refreshToken)

	slog.Info("login successful", slog.String("subject", user.ID.Hex()))
	apihelpers.SendResponse(c, http.StatusOK, gin.H{
		"user": user,
		"token": gin.H{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
			"expiresIn":    h.ttls.AccessToken.Seconds(),
		},
	}, "login successful")
}

func (h *HttpEndpoints) logout(c *gin.Context) {
	user, ok := mw.GetAccountFromContext(c)
	if !ok {
		apihelpers.SendError(c, apihelpers.ErrUnauthorized("unauthorized"))
		return
	}

	// logging out twice is not an error
	if err := h.userDBConn.ClearRefreshToken(user.ID.Hex()); err != nil && !errors.Is(err, accountuser.ErrAccountNotFound) {
		slog.Error("failed to clear refresh token", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("internal server error"))
		return
	}

	h.clearAuthCookies(c)

	slog.Info("logout successful", slog.String("subject", user.ID.Hex()))
	apihelpers.SendResponse(c, http.StatusOK, nil, "logged out successfully")
}

type renewTokenReq struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *HttpEndpoints) renewAccessToken(c *gin.Context) {
	incomingToken, err := c.Cookie(mw.RefreshTokenCookieName)
	if err != nil || incomingToken == "" {
		var req renewTokenReq
		if err := c.ShouldBindJSON(&req); err == nil {
			incomingToken = req.RefreshToken
		}
	}
	if incomingToken == "" {
		slog.Warn("refresh token missing")
		apihelpers.SendError(c, apihelpers.ErrUnauthorized("refresh token missing"))
		return
	}

	claims, valid, err := jwthandling.ValidateRefreshToken(incomingToken, h.refreshTokenSignKey)
	if err != nil || !valid {
		slog.Warn("refresh token validation failed")
		apihelpers.SendError(c, apihelpers.ErrUnauthorized("invalid refresh token"))
		return
	}

	user, err := h.userDBConn.GetUser(claims.Subject)
	if err != nil {
		slog.Warn("refresh token subject not found", slog.String("subject", claims.Subject))
		apihelpers.SendError(c, apihelpers.ErrUnauthorized("invalid refresh token"))
		return
	}

	// a structurally valid token that was superseded or logged out is
	// rejected the same way as a forged one
	if user.RefreshToken == "" || user.RefreshToken != incomingToken {
		slog.Warn("stale refresh token presented", slog.String("subject", claims.Subject))
		apihelpers.SendError(c, apihelpers.ErrUnauthorized("invalid refresh token"))
		return
	}

	accessToken, err := jwthandling.GenerateNewAccessToken(h.ttls.AccessToken, user.ID.Hex(), h.accessTokenSignKey)
	if err != nil {
		slog.Error("failed to generate access token", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("token generation failed"))
		return
	}

	// the refresh token itself is not rotated here
	h.setAuthCookies(c, accessToken, "")

	slog.Info("access token renewed", slog.String("subject", user.ID.Hex()))
	apihelpers.SendResponse(c, http.StatusOK, gin.H{
		"accessToken": accessToken,
		"expiresIn":   h.ttls.AccessToken.Seconds(),
	}, "access token refreshed")
}

func (h *HttpEndpoints) getProfile(c *gin.Context) {
	user, ok := mw.GetAccountFromContext(c)
	if !ok {
		apihelpers.SendError(c, apihelpers.ErrUnauthorized("unauthorized"))
		return
	}
	apihelpers.SendResponse(c, http.StatusOK, user, "profile")
}

func (h *HttpEndpoints) deleteAccount(c *gin.Context) {
	user, ok := mw.GetAccountFromContext(c)
	if !ok {
		apihelpers.SendError(c, apihelpers.ErrUnauthorized("unauthorized"))
		return
	}

	if err := h.userDBConn.DeleteUser(user.ID.Hex()); err != nil {
		slog.Error("failed to delete account", slog.String("error", err.Error()))
		apihelpers.SendError(c, apihelpers.ErrInternal("internal server error"))
		return
	}

	if user.Avatar.Key != "" {
		if err := h.avatarStore.Remove(c.Request.Context(), user.Avatar.Key); err != nil {
			slog.Error("failed to remove avatar from storage", slog.String("error", err.Error()), slog.String("key", user.Avatar.Key))
		}
	}

	h.clearAuthCookies(c)

	slog.Info("account deleted", slog.String("subject", user.ID.Hex()))
	apihelpers.SendResponse(c, http.StatusOK, nil, "account deleted")
}
