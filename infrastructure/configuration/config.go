package configuration

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"social-publisher/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	OAuth       OAuth       `json:"oauth"`
	Social      Social      `json:"social"`
}

type App struct {
	Port      int    `json:"port"`
	SecretKey string `json:"secretKey"`
}

type Database struct {
	Psql Db `json:"psql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// OAuth holds third-party platform OAuth client credentials.
type OAuth struct {
	Facebook  OAuthClient `json:"facebook"`
	Instagram OAuthClient `json:"instagram"`
}

type OAuthClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
}

// Social tunes the publishing engine.
type Social struct {
	// HTTPTimeoutSeconds caps every provider call; an exceeded call
	// resolves as an adapter error rather than hanging.
	HTTPTimeoutSeconds int `json:"httpTimeoutSeconds"`
	// SyncConcurrency >1 enables bounded fan-out in the analytics engine.
	// Default 1 keeps per-item processing sequential for rate-limit safety.
	SyncConcurrency int `json:"syncConcurrency"`
	// AuditFlushSeconds is the interval of the security-audit drain loop.
	AuditFlushSeconds int `json:"auditFlushSeconds"`
}

var C Config

func init() {
	LoadConfig()
	initApp(&C)
	initDatabase(&C)
	initSocial(&C)
}

func LoadConfig() {
	viper.SetConfigName(configName())
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func configName() string {
	name := "config"
	if env := os.Getenv("ENV"); env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}

	if C.RedisClient.Host == "" {
		C.RedisClient.Host = os.Getenv("REDIS_HOST")
	}
	if C.RedisClient.Port == "" {
		if v := os.Getenv("REDIS_PORT"); v != "" {
			C.RedisClient.Port = v
		} else {
			C.RedisClient.Port = "6379"
		}
	}
	if C.RedisClient.Password == "" {
		C.RedisClient.Password = os.Getenv("REDIS_PASSWORD")
	}

	if C.OAuth.Facebook.ClientID == "" {
		C.OAuth.Facebook.ClientID = os.Getenv("FACEBOOK_CLIENT_ID")
	}
	if C.OAuth.Facebook.ClientSecret == "" {
		C.OAuth.Facebook.ClientSecret = os.Getenv("FACEBOOK_CLIENT_SECRET")
	}
	if C.OAuth.Facebook.RedirectURI == "" {
		C.OAuth.Facebook.RedirectURI = os.Getenv("FACEBOOK_REDIRECT_URI")
	}
	if C.OAuth.Instagram.ClientID == "" {
		C.OAuth.Instagram.ClientID = os.Getenv("INSTAGRAM_CLIENT_ID")
	}
	if C.OAuth.Instagram.ClientSecret == "" {
		C.OAuth.Instagram.ClientSecret = os.Getenv("INSTAGRAM_CLIENT_SECRET")
	}
	if C.OAuth.Instagram.RedirectURI == "" {
		C.OAuth.Instagram.RedirectURI = os.Getenv("INSTAGRAM_REDIRECT_URI")
	}
}

func initSocial(C *Config) {
	if C.Social.HTTPTimeoutSeconds <= 0 {
		C.Social.HTTPTimeoutSeconds = 15
	}
	if C.Social.SyncConcurrency <= 0 {
		C.Social.SyncConcurrency = 1
	}
	if C.Social.AuditFlushSeconds <= 0 {
		C.Social.AuditFlushSeconds = 15
	}
}

// HTTPTimeout returns the provider-call timeout as a duration.
func (s Social) HTTPTimeout() time.Duration {
	return time.Duration(s.HTTPTimeoutSeconds) * time.Second
}
