package main

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/clipshare/account-backend/pkg/db"
	accountuser "github.com/clipshare/account-backend/pkg/db/account-user"
	"github.com/clipshare/account-backend/pkg/utils"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_ACCOUNT_USER_DB_USERNAME = "ACCOUNT_USER_DB_USERNAME"
	ENV_ACCOUNT_USER_DB_PASSWORD = "ACCOUNT_USER_DB_PASSWORD"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// DB configs
	DBConfigs struct {
		AccountUserDB db.DBConfigYaml `json:"account_user_db" yaml:"account_user_db"`
	} `json:"db_configs" yaml:"db_configs"`

	RunTasks struct {
		CleanupExpiredResetTokens bool `json:"cleanup_expired_reset_tokens" yaml:"cleanup_expired_reset_tokens"`
	} `json:"run_tasks" yaml:"run_tasks"`
}

var conf config

var userDBService *accountuser.AccountUserDBService

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

	// init db
	initDBs()
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_ACCOUNT_USER_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.AccountUserDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_ACCOUNT_USER_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.AccountUserDB.Password = dbPassword
	}
}

func initDBs() {
	var err error
	userDBService, err = accountuser.NewAccountUserDBService(db.DBConfigFromYamlObj(conf.DBConfigs.AccountUserDB))
	if err != nil {
		slog.Error("Error connecting to Account User DB", slog.String("error", err.Error()))
		panic(err)
	}
}
