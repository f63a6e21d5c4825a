package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v2"

	"github.com/clipshare/account-backend/pkg/db"
	smtp_client "github.com/clipshare/account-backend/pkg/smtp-client"
	"github.com/clipshare/account-backend/pkg/storage"
	"github.com/clipshare/account-backend/pkg/user-management/pwhash"
	"github.com/clipshare/account-backend/pkg/utils"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_ACCOUNT_USER_DB_USERNAME = "ACCOUNT_USER_DB_USERNAME"
	ENV_ACCOUNT_USER_DB_PASSWORD = "ACCOUNT_USER_DB_PASSWORD"

	ENV_ACCESS_TOKEN_SIGN_KEY  = "ACCESS_TOKEN_SIGN_KEY"
	ENV_REFRESH_TOKEN_SIGN_KEY = "REFRESH_TOKEN_SIGN_KEY"

	ENV_SMTP_USERNAME = "SMTP_USERNAME"
	ENV_SMTP_PASSWORD = "SMTP_PASSWORD"

	ENV_AVATAR_STORE_ACCESS_KEY = "AVATAR_STORE_ACCESS_KEY"
	ENV_AVATAR_STORE_SECRET_KEY = "AVATAR_STORE_SECRET_KEY"
)

type AccountApiConfig struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`
	} `json:"gin_config" yaml:"gin_config"`

	// user management configs
	UserManagementConfig struct {
		PWHashing struct {
			Argon2Memory      uint32 `json:"argon2_memory" yaml:"argon2_memory"`
			Argon2Iterations  uint32 `json:"argon2_iterations" yaml:"argon2_iterations"`
			Argon2Parallelism uint8  `json:"argon2_parallelism" yaml:"argon2_parallelism"`
		} `json:"pw_hashing" yaml:"pw_hashing"`
		AccessTokenConfig struct {
			SignKey   string        `json:"sign_key" yaml:"sign_key"`
			ExpiresIn time.Duration `json:"expires_in" yaml:"expires_in"`
		} `json:"access_token_config" yaml:"access_token_config"`
		RefreshTokenConfig struct {
			SignKey   string        `json:"sign_key" yaml:"sign_key"`
			ExpiresIn time.Duration `json:"expires_in" yaml:"expires_in"`
		} `json:"refresh_token_config" yaml:"refresh_token_config"`
		ResetTokenTTL    time.Duration `json:"reset_token_ttl" yaml:"reset_token_ttl"`
		UseSecureCookies bool          `json:"use_secure_cookies" yaml:"use_secure_cookies"`
	} `json:"user_management_config" yaml:"user_management_config"`

	// DB configs
	DBConfigs struct {
		AccountUserDB db.DBConfigYaml `json:"account_user_db" yaml:"account_user_db"`
	} `json:"db_configs" yaml:"db_configs"`

	// Avatar storage (S3 compatible)
	AvatarStoreConfig storage.S3Config `json:"avatar_store_config" yaml:"avatar_store_config"`

	// Messaging configs
	MessagingConfigs struct {
		SmtpServerConfigPath string `json:"smtp_server_config_path" yaml:"smtp_server_config_path"`
	} `json:"messaging_configs" yaml:"messaging_configs"`

	// Base URL of the web client, used to build password reset links
	ClientBaseURL string `json:"client_base_url" yaml:"client_base_url"`

	FilestorePath string `json:"filestore_path" yaml:"filestore_path"`
}

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(
		conf.Logging.LogLevel,
		conf.Logging.IncludeSrc,
		conf.Logging.LogToFile,
		conf.Logging.Filename,
		conf.Logging.MaxSize,
		conf.Logging.MaxAge,
		conf.Logging.MaxBackups,
		conf.Logging.CompressOldLogs,
	)

	// Override secrets from environment variables
	secretsOverride()

	checkRequiredConfigs()

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// init argon2
	pwhash.InitArgonParams(
		conf.UserManagementConfig.PWHashing.Argon2Memory,
		conf.UserManagementConfig.PWHashing.Argon2Iterations,
		conf.UserManagementConfig.PWHashing.Argon2Parallelism,
	)

	checkFilestorePath()
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_ACCOUNT_USER_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.AccountUserDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_ACCOUNT_USER_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.AccountUserDB.Password = dbPassword
	}

	if signKey := os.Getenv(ENV_ACCESS_TOKEN_SIGN_KEY); signKey != "" {
		conf.UserManagementConfig.AccessTokenConfig.SignKey = signKey
	}

	if signKey := os.Getenv(ENV_REFRESH_TOKEN_SIGN_KEY); signKey != "" {
		conf.UserManagementConfig.RefreshTokenConfig.SignKey = signKey
	}

	if accessKey := os.Getenv(ENV_AVATAR_STORE_ACCESS_KEY); accessKey != "" {
		conf.AvatarStoreConfig.AccessKey = accessKey
	}

	if secretKey := os.Getenv(ENV_AVATAR_STORE_SECRET_KEY); secretKey != "" {
		conf.AvatarStoreConfig.SecretKey = secretKey
	}
}

func checkRequiredConfigs() {
	if conf.UserManagementConfig.AccessTokenConfig.SignKey == "" ||
		conf.UserManagementConfig.RefreshTokenConfig.SignKey == "" {
		slog.Error("Token sign keys not set")
		panic("Token sign keys not set")
	}

	if conf.UserManagementConfig.AccessTokenConfig.SignKey == conf.UserManagementConfig.RefreshTokenConfig.SignKey {
		slog.Error("Access and refresh token sign keys must differ")
		panic("Access and refresh token sign keys must differ")
	}

	if conf.ClientBaseURL == "" {
		slog.Error("Client base URL not set")
		panic("Client base URL not set")
	}
}

func checkFilestorePath() {
	// To store uploaded files before they are pushed to the media store
	fsPath := conf.FilestorePath
	if fsPath == "" {
		slog.Error("Filestore path not set")
		panic("Filestore path not set")
	}

	if _, err := os.Stat(fsPath); os.IsNotExist(err) {
		slog.Error("Filestore path does not exist", slog.String("path", fsPath))
		panic("Filestore path does not exist")
	}
}

func loadSmtpClients() (*smtp_client.SmtpClients, error) {
	var serverList smtp_client.SmtpServerList
	if err := serverList.ReadFromFile(conf.MessagingConfigs.SmtpServerConfigPath); err != nil {
		return nil, err
	}

	username := os.Getenv(ENV_SMTP_USERNAME)
	password := os.Getenv(ENV_SMTP_PASSWORD)
	if username != "" || password != "" {
		for i := range serverList.Servers {
			serverList.Servers[i].SetCredentials(username, password)
		}
	}

	return smtp_client.NewSmtpClients(serverList)
}
