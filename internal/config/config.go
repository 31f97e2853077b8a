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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Places    PlacesConfig    `yaml:"places" mapstructure:"places"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Postcodes PostcodesConfig `yaml:"postcodes" mapstructure:"postcodes"`
	Trades    TradesConfig    `yaml:"trades" mapstructure:"trades"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the Postgres business cache.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PlacesConfig holds the places provider credentials.
type PlacesConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// RegistryConfig holds Companies House API settings.
type RegistryConfig struct {
	Key                 string  `yaml:"key" mapstructure:"key"`
	BaseURL             string  `yaml:"base_url" mapstructure:"base_url"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	MaxCandidates       int     `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// PostcodesConfig locates the offline postcode database.
type PostcodesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// TradesConfig configures the trade category mapping.
type TradesConfig struct {
	OverridesPath string `yaml:"overrides_path" mapstructure:"overrides_path"`
}

// SearchConfig configures pipeline behavior.
type SearchConfig struct {
	Country string `yaml:"country" mapstructure:"country"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("TRADEINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("places.base_url", "https://maps.googleapis.com/maps/api")
	v.SetDefault("registry.base_url", "https://api.company-information.service.gov.uk")
	v.SetDefault("registry.similarity_threshold", 0.4)
	v.SetDefault("registry.max_candidates", 10)
	v.SetDefault("postcodes.path", "postcodes.db")
	v.SetDefault("search.country", "UK")

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

// Validate checks that the named subsystems have the credentials they need.
func (c *Config) Validate(subsystems ...string) error {
	for _, s := range subsystems {
		switch s {
		case "places":
			if c.Places.Key == "" {
				return eris.New("config: places.key is required (TRADEINTEL_PLACES_KEY)")
			}
		case "registry":
			if c.Registry.Key == "" {
				return eris.New("config: registry.key is required (TRADEINTEL_REGISTRY_KEY)")
			}
		case "store":
			if c.Store.DatabaseURL == "" {
				return eris.New("config: store.database_url is required (TRADEINTEL_STORE_DATABASE_URL)")
			}
		default:
			return eris.Errorf("config: unknown subsystem %q", s)
		}
	}
	return nil
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
