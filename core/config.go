package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		SessionTTL      time.Duration
		CookieName      string
		DisableReqLogs  bool
	}

	APIConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}

	BadgeConfig struct {
		TokenTTL time.Duration
	}

	// DevAPIConfig configures the development backend.
	DevAPIConfig struct {
		Address  string
		Username string
		Password string
		SeedFile string
	}

	Config struct {
		Env          string
		Debug        bool
		TestMode     bool
		Build        string
		AppName      string
		SecretKey    string
		WorkDir      string
		RollbarToken string

		Server ServerConfig
		API    APIConfig
		Redis  RedisConfig
		Badge  BadgeConfig
		DevAPI DevAPIConfig
	}
)

// NewConfig reads the configuration from the environment.
// ENV selects the environment (DEV by default) and the prefix of every other variable,
// e.g. DEV_API_BASE_URL. A dotenv file at config/.env.<env> is loaded first when it exists.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Masomo Console")
	v.SetDefault("secretKey", "x4#n9$kqv(0m@c2&ur!zl8w)7e_bq=h1t5f^y6dp*3g")
	v.SetDefault("workDir", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_address", ":8000")
	v.SetDefault("server_debugHost", ":4000")
	v.SetDefault("server_shutdownTimeout", 5*time.Second)
	v.SetDefault("server_sessionTTL", 12*time.Hour)
	v.SetDefault("server_cookieName", "masomo_session")
	v.SetDefault("server_disableReqLogs", false)

	v.SetDefault("api_baseURL", "http://localhost:8080/api")
	v.SetDefault("api_timeout", 30*time.Second)

	v.SetDefault("redis_address", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("badge_tokenTTL", 365*24*time.Hour)

	v.SetDefault("devapi_address", ":8080")
	v.SetDefault("devapi_username", "admin")
	v.SetDefault("devapi_password", "admin")
	v.SetDefault("devapi_seedFile", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
		v.SetDefault("server_disableReqLogs", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := os.Getenv(env + "_WORKDIR")
	if wd == "" {
		wd, _ = os.Getwd()
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		WorkDir:      wd,
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("server_host"),
			Address:         v.GetString("server_address"),
			DebugHost:       v.GetString("server_debugHost"),
			ShutdownTimeout: v.GetDuration("server_shutdownTimeout"),
			SessionTTL:      v.GetDuration("server_sessionTTL"),
			CookieName:      v.GetString("server_cookieName"),
			DisableReqLogs:  v.GetBool("server_disableReqLogs"),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("api_baseURL"), "/"),
			Timeout: v.GetDuration("api_timeout"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis_address"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Badge: BadgeConfig{
			TokenTTL: v.GetDuration("badge_tokenTTL"),
		},
		DevAPI: DevAPIConfig{
			Address:  v.GetString("devapi_address"),
			Username: v.GetString("devapi_username"),
			Password: v.GetString("devapi_password"),
			SeedFile: v.GetString("devapi_seedFile"),
		},
	}
	return conf
}
