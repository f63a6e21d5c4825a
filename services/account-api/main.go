package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/clipshare/account-backend/pkg/db"
	accountuser "github.com/clipshare/account-backend/pkg/db/account-user"
	emailsending "github.com/clipshare/account-backend/pkg/messaging/email-sending"
	"github.com/clipshare/account-backend/pkg/storage"
	"github.com/clipshare/account-backend/services/account-api/apihandlers"
)

var conf AccountApiConfig

func main() {
	userDBService, err := accountuser.NewAccountUserDBService(db.DBConfigFromYamlObj(conf.DBConfigs.AccountUserDB))
	if err != nil {
		slog.Error("Error connecting to Account User DB", slog.String("error", err.Error()))
		return
	}

	avatarStore, err := storage.NewAvatarStore(context.Background(), conf.AvatarStoreConfig)
	if err != nil {
		slog.Error("Error initializing avatar store", slog.String("error", err.Error()))
		return
	}

	smtpClients, err := loadSmtpClients()
	if err != nil {
		slog.Error("Error initializing SMTP clients", slog.String("error", err.Error()))
		return
	}
	emailsending.InitEmailSending(smtpClients)

	// Start webserver
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.GinConfig.AllowOrigins,
		AllowMethods:     []string{"POST", "GET", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Content-Length"},
		ExposeHeaders:    []string{"Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add handlers
	router.GET("/", apihandlers.HealthCheckHandle)
	v1Root := router.Group("/v1")

	v1APIHandlers := apihandlers.NewHTTPHandler(
		conf.UserManagementConfig.AccessTokenConfig.SignKey,
		conf.UserManagementConfig.RefreshTokenConfig.SignKey,
		apihandlers.TokenTTLs{
			AccessToken:  conf.UserManagementConfig.AccessTokenConfig.ExpiresIn,
			RefreshToken: conf.UserManagementConfig.RefreshTokenConfig.ExpiresIn,
			ResetToken:   conf.UserManagementConfig.ResetTokenTTL,
		},
		userDBService,
		avatarStore,
		emailsending.SendPasswordResetEmail,
		conf.ClientBaseURL,
		conf.FilestorePath,
		conf.UserManagementConfig.UseSecureCookies,
	)
	v1APIHandlers.AddAccountAPI(v1Root)
	v1APIHandlers.AddPasswordResetAPI(v1Root)

	// Start the server
	slog.Info("Starting Account API on port " + conf.GinConfig.Port)
	if err := router.Run(":" + conf.GinConfig.Port); err != nil {
		slog.Error("Exited Account API", slog.String("error", err.Error()))
		return
	}
}
