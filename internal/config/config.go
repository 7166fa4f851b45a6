// Package config loads application configuration from config.yaml and the
// ENRICH_* environment, and owns global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Providers  ProvidersConfig  `yaml:"providers" mapstructure:"providers"`
	Waterfall  WaterfallConfig  `yaml:"waterfall" mapstructure:"waterfall"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ProvidersConfig holds per-provider credentials. An empty key disables that
// provider; dual-secret providers need both halves to be enabled.
type ProvidersConfig struct {
	Hunter        KeyConfig       `yaml:"hunter" mapstructure:"hunter"`
	Dropcontact   KeyConfig       `yaml:"dropcontact" mapstructure:"dropcontact"`
	Snov          OAuthConfig     `yaml:"snov" mapstructure:"snov"`
	Prospeo       KeyConfig       `yaml:"prospeo" mapstructure:"prospeo"`
	Tomba         KeySecretConfig `yaml:"tomba" mapstructure:"tomba"`
	Findymail     KeyConfig       `yaml:"findymail" mapstructure:"findymail"`
	Anymailfinder KeyConfig       `yaml:"anymailfinder" mapstructure:"anymailfinder"`
	RocketReach   KeyConfig       `yaml:"rocketreach" mapstructure:"rocketreach"`
	ZeroBounce    KeyConfig       `yaml:"zerobounce" mapstructure:"zerobounce"`
}

// KeyConfig is a single-key credential.
type KeyConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// OAuthConfig is a client id/secret credential pair.
type OAuthConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
}

// Enabled reports whether both halves of the pair are present.
func (c OAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// KeySecretConfig is a key/secret credential pair.
type KeySecretConfig struct {
	Key    string `yaml:"key" mapstructure:"key"`
	Secret string `yaml:"secret" mapstructure:"secret"`
}

// Enabled reports whether both halves of the pair are present.
func (c KeySecretConfig) Enabled() bool {
	return c.Key != "" && c.Secret != ""
}

// WaterfallConfig configures cascade behavior.
type WaterfallConfig struct {
	VerifyResults bool   `yaml:"verify_results" mapstructure:"verify_results"`
	CacheEnabled  bool   `yaml:"cache_enabled" mapstructure:"cache_enabled"`
	CacheTTLDays  int    `yaml:"cache_ttl_days" mapstructure:"cache_ttl_days"`
	CostsFile     string `yaml:"costs_file" mapstructure:"costs_file"`
}

// CacheConfig configures the lookup cache backend.
type CacheConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "memory", "sqlite", "postgres"
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// NotionConfig holds Notion API credentials and the prospects database id.
type NotionConfig struct {
	Token       string `yaml:"token" mapstructure:"token"`
	ProspectsDB string `yaml:"prospects_db" mapstructure:"prospects_db"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys default to empty so the env binding sees
	// them even without a config file.
	for _, key := range []string{
		"providers.hunter.key",
		"providers.dropcontact.key",
		"providers.snov.client_id",
		"providers.snov.client_secret",
		"providers.prospeo.key",
		"providers.tomba.key",
		"providers.tomba.secret",
		"providers.findymail.key",
		"providers.anymailfinder.key",
		"providers.rocketreach.key",
		"providers.zerobounce.key",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("waterfall.verify_results", true)
	v.SetDefault("waterfall.cache_enabled", true)
	v.SetDefault("waterfall.cache_ttl_days", 30)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
