// Package config loads service settings from .env, an optional config file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the service settings.
type Config struct {
	ServerAddr string
	LogLevel   string
	LogFormat  string
	RatesFile  string
	// CatalogFile replaces the built-in vehicle catalog when set.
	CatalogFile string
	// TrustProxy honours X-Forwarded-For and X-Real-IP as the client address.
	TrustProxy bool

	Mongo     MongoConfig
	JWT       JWTConfig
	MQTT      MQTTConfig
	RateLimit RateLimitConfig
	Bootstrap BootstrapConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// MQTTConfig is disabled when Broker is empty.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
}

// BootstrapConfig seeds the first admin account when Username is set.
type BootstrapConfig struct {
	Username string
	Email    string
	Password string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

const (
	keyServerAddr      = "SERVER_ADDR"
	keyMongoURI        = "MONGO_URI"
	keyMongoDatabase   = "MONGO_DATABASE"
	keyJWTSecret       = "JWT_SECRET"
	keyJWTExpiry       = "JWT_EXPIRY"
	keyRatesFile       = "RATES_FILE"
	keyMQTTBroker      = "MQTT_BROKER"
	keyMQTTClientID    = "MQTT_CLIENT_ID"
	keyMQTTTopic       = "MQTT_TOPIC"
	keyLogLevel        = "LOG_LEVEL"
	keyLogFormat       = "LOG_FORMAT"
	keyRateLimitReqs   = "RATE_LIMIT_REQUESTS"
	keyRateLimitWindow = "RATE_LIMIT_WINDOW_SECONDS"
	keyAdminUsername   = "BOOTSTRAP_ADMIN_USERNAME"
	keyAdminEmail      = "BOOTSTRAP_ADMIN_EMAIL"
	keyAdminPassword   = "BOOTSTRAP_ADMIN_PASSWORD"
	keyTrustProxy      = "TRUST_PROXY_HEADERS"
	keyCatalogFile     = "CATALOG_FILE"
)

var keys = []string{
	keyServerAddr, keyMongoURI, keyMongoDatabase, keyJWTSecret, keyJWTExpiry,
	keyRatesFile, keyMQTTBroker, keyMQTTClientID, keyMQTTTopic, keyLogLevel,
	keyLogFormat, keyRateLimitReqs, keyRateLimitWindow, keyAdminUsername,
	keyAdminEmail, keyAdminPassword, keyTrustProxy,
	keyCatalogFile,
}

// Load reads the configuration. configFile may be empty, in which case
// config.yaml is looked up in the working directory and ./config.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		log.WithField("file", v.ConfigFileUsed()).Debug("Config file loaded")
	}

	// Config files use the same upper-case keys as the environment.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{
		ServerAddr:  v.GetString(keyServerAddr),
		LogLevel:    v.GetString(keyLogLevel),
		LogFormat:   strings.ToLower(v.GetString(keyLogFormat)),
		RatesFile:   v.GetString(keyRatesFile),
		TrustProxy:  v.GetBool(keyTrustProxy),
		CatalogFile: v.GetString(keyCatalogFile),
		Mongo: MongoConfig{
			URI:      v.GetString(keyMongoURI),
			Database: v.GetString(keyMongoDatabase),
		},
		JWT: JWTConfig{
			Secret: v.GetString(keyJWTSecret),
			Expiry: v.GetDuration(keyJWTExpiry),
		},
		MQTT: MQTTConfig{
			Broker:   v.GetString(keyMQTTBroker),
			ClientID: v.GetString(keyMQTTClientID),
			Topic:    v.GetString(keyMQTTTopic),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt(keyRateLimitReqs),
			Window:   time.Duration(v.GetInt(keyRateLimitWindow)) * time.Second,
		},
		Bootstrap: BootstrapConfig{
			Username: v.GetString(keyAdminUsername),
			Email:    v.GetString(keyAdminEmail),
			Password: v.GetString(keyAdminPassword),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyServerAddr, ":8080")
	v.SetDefault(keyMongoURI, "mongodb://localhost:27017")
	v.SetDefault(keyMongoDatabase, "motor_insurance")
	v.SetDefault(keyJWTExpiry, "24h")
	v.SetDefault(keyMQTTClientID, "motor-insurance")
	v.SetDefault(keyMQTTTopic, "insurance")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "text")
	v.SetDefault(keyRateLimitReqs, 100)
	v.SetDefault(keyRateLimitWindow, 60)
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, fmt.Errorf("%s is required", keyJWTSecret))
	}
	if c.JWT.Expiry <= 0 {
		errs = append(errs, fmt.Errorf("%s must be a positive duration", keyJWTExpiry))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("%s and %s must be positive", keyRateLimitReqs, keyRateLimitWindow))
	}
	if c.Bootstrap.Username != "" && len(c.Bootstrap.Password) < 8 {
		errs = append(errs, fmt.Errorf("%s must be at least 8 characters", keyAdminPassword))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", keyLogLevel, err))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("%s must be text or json, got %q", keyLogFormat, c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ConfigureLogging applies the log level and format to the standard logger.
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
