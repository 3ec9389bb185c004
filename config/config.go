package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Environment       string `mapstructure:"FAS_ENVIRONMENT"`
	ServerName        string `mapstructure:"FAS_SERVER_NAME"`
	ServerAddress     string `mapstructure:"FAS_SERVER_BIND_ADDR"`
	ServerReadTimeout int16  `mapstructure:"FAS_SERVER_READ_TIMEOUT"`
	LogFormat         string `mapstructure:"FAS_LOG_FORMAT"` // text or json
	LogLevel          string `mapstructure:"FAS_LOG_LEVEL"`  // debug, info, warn, error
	RateLimitMax      int    `mapstructure:"FAS_RATE_LIMIT_MAX"`
	RateLimitWindow   int    `mapstructure:"FAS_RATE_LIMIT_WINDOW"`

	DbHost           string `mapstructure:"FAS_DB_HOST"`
	DbPort           int16  `mapstructure:"FAS_DB_PORT"`
	DbSSLMode        string `mapstructure:"FAS_DB_SSL"`
	DbUser           string `mapstructure:"FAS_DB_USER"`
	DbPassword       string `mapstructure:"FAS_DB_PASSWORD"`
	DbDatabaseName   string `mapstructure:"FAS_DB_DATABASE"`
	DbMaxConnections int    `mapstructure:"FAS_DB_MAX_CONNECTIONS"`

	// Redis
	RedisHost string `mapstructure:"FAS_REDIS_HOST"`
	RedisPort int16  `mapstructure:"FAS_REDIS_PORT"`
	RedisDb   int    `mapstructure:"FAS_REDIS_DB"`
	RedisUser string `mapstructure:"FAS_REDIS_USER"`
	RedisPass string `mapstructure:"FAS_REDIS_PASS"`

	OtlpEndpoint   string `mapstructure:"FAS_OTLP_ENDPOINT"`
	JaegerEndpoint string `mapstructure:"FAS_JAEGER_ENDPOINT"`

	// OpenFoodFacts upstream
	OpenFoodFactsBaseURL string `mapstructure:"FAS_OPENFOODFACTS_BASE_URL"`
	OpenFoodFactsTimeout int    `mapstructure:"FAS_OPENFOODFACTS_TIMEOUT"` // seconds
	ProductCacheTTL      int    `mapstructure:"FAS_PRODUCT_CACHE_TTL"`     // seconds

	// OpenAI Configuration
	OpenAIAPIKey  string `mapstructure:"FAS_OPENAI_API_KEY"`
	OpenAIBaseURL string `mapstructure:"FAS_OPENAI_BASE_URL"`

	// Per-prompt model settings
	AnalysisModel            string  `mapstructure:"FAS_ANALYSIS_MODEL"`
	AnalysisMaxTokens        int     `mapstructure:"FAS_ANALYSIS_MAX_TOKENS"`
	AnalysisTemperature      float64 `mapstructure:"FAS_ANALYSIS_TEMPERATURE"`
	ComprehensiveModel       string  `mapstructure:"FAS_COMPREHENSIVE_MODEL"`
	ComprehensiveMaxTokens   int     `mapstructure:"FAS_COMPREHENSIVE_MAX_TOKENS"`
	ComprehensiveTemperature float64 `mapstructure:"FAS_COMPREHENSIVE_TEMPERATURE"`
	TranslationModel         string  `mapstructure:"FAS_TRANSLATION_MODEL"`
	TranslationMaxTokens     int     `mapstructure:"FAS_TRANSLATION_MAX_TOKENS"`
	TranslationTemperature   float64 `mapstructure:"FAS_TRANSLATION_TEMPERATURE"`

	// Localization
	TargetLanguage string `mapstructure:"FAS_TARGET_LANGUAGE"`

	// Vocabulary files
	VocabProductFile    string `mapstructure:"FAS_VOCAB_PRODUCT_FILE"`
	VocabFoodGroupsFile string `mapstructure:"FAS_VOCAB_FOOD_GROUPS_FILE"`
	VocabAllergensFile  string `mapstructure:"FAS_VOCAB_ALLERGENS_FILE"`
}

// DefaultConfig generates a config with sane defaults.
// See: The example .env file in the package docs for default values.
func DefaultConfig() Config {
	return Config{
		Environment:       "local",
		ServerAddress:     "0.0.0.0:6318",
		ServerReadTimeout: 60,
		LogFormat:         "text",
		LogLevel:          "info",
		RateLimitMax:      100,
		RateLimitWindow:   30,

		DbHost:           "localhost",
		DbPort:           5432,
		DbSSLMode:        "disable",
		DbUser:           "postgres",
		DbPassword:       "postgres",
		DbDatabaseName:   "label-safe",
		DbMaxConnections: 100,

		// Redis
		RedisHost: "localhost",
		RedisPort: 6379,
		RedisDb:   0,
		RedisUser: "redis",
		RedisPass: "redis",

		OtlpEndpoint:   "localhost:4317",
		JaegerEndpoint: "http://localhost:14268/api/traces",

		// OpenFoodFacts defaults
		OpenFoodFactsBaseURL: "https://world.openfoodfacts.org/api/v2/product",
		OpenFoodFactsTimeout: 10,
		ProductCacheTTL:      3600,

		// OpenAI defaults
		OpenAIAPIKey:  "",
		OpenAIBaseURL: "https://api.openai.com/v1",

		AnalysisModel:            "gpt-3.5-turbo",
		AnalysisMaxTokens:        500,
		AnalysisTemperature:      1.0,
		ComprehensiveModel:       "gpt-3.5-turbo",
		ComprehensiveMaxTokens:   2000,
		ComprehensiveTemperature: 0.3,
		TranslationModel:         "gpt-4o-mini",
		TranslationMaxTokens:     4000,
		TranslationTemperature:   0.1,

		TargetLanguage: "ko",

		VocabProductFile:    "data/translated/product_translated.json",
		VocabFoodGroupsFile: "data/translated/food_groups_translated.json",
		VocabAllergensFile:  "data/translated/allergens_translated.json",
	}
}

// LoadConfig will attempt to load a configuration from the default file location and fallback to environment variables.
func LoadConfig() (Config, error) {
	envFile := os.Getenv("FAS_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	var cfg Config
	var err error

	if _, err = os.Stat(envFile); errors.Is(err, os.ErrNotExist) {
		cfg, err = ConfigFromEnvironment()
	} else {
		// Load configuration
		cfg, err = ConfigFromFile(envFile)
	}

	return cfg, err
}

// ConfigFromEnvironment will look for the specified configuration from environment variables
// See package docs for a list of available environment variables.
func ConfigFromEnvironment() (config Config, err error) {
	// Set defaults
	config = DefaultConfig()
	viper.SetDefault("FAS_ENVIRONMENT", config.Environment)
	viper.SetDefault("FAS_SERVER_BIND_ADDR", config.ServerAddress)
	viper.SetDefault("FAS_SERVER_READ_TIMEOUT", config.ServerReadTimeout)
	viper.SetDefault("FAS_LOG_LEVEL", config.LogLevel)
	viper.SetDefault("FAS_LOG_FORMAT", config.LogFormat)
	viper.SetDefault("FAS_RATE_LIMIT_MAX", config.RateLimitMax)
	viper.SetDefault("FAS_RATE_LIMIT_WINDOW", config.RateLimitWindow)
	viper.SetDefault("FAS_DB_HOST", config.DbHost)
	viper.SetDefault("FAS_DB_PORT", config.DbPort)
	viper.SetDefault("FAS_DB_SSL", config.DbSSLMode)
	viper.SetDefault("FAS_DB_USER", config.DbUser)
	viper.SetDefault("FAS_DB_PASSWORD", config.DbPassword)
	viper.SetDefault("FAS_DB_DATABASE", config.DbDatabaseName)
	viper.SetDefault("FAS_DB_MAX_CONNECTIONS", config.DbMaxConnections)
	viper.SetDefault("FAS_REDIS_HOST", config.RedisHost)
	viper.SetDefault("FAS_REDIS_PORT", config.RedisPort)
	viper.SetDefault("FAS_REDIS_USER", config.RedisUser)
	viper.SetDefault("FAS_REDIS_PASS", config.RedisPass)
	viper.SetDefault("FAS_REDIS_DB", config.RedisDb)
	viper.SetDefault("FAS_OTLP_ENDPOINT", config.OtlpEndpoint)
	viper.SetDefault("FAS_JAEGER_ENDPOINT", config.JaegerEndpoint)
	viper.SetDefault("FAS_OPENFOODFACTS_BASE_URL", config.OpenFoodFactsBaseURL)
	viper.SetDefault("FAS_OPENFOODFACTS_TIMEOUT", config.OpenFoodFactsTimeout)
	viper.SetDefault("FAS_PRODUCT_CACHE_TTL", config.ProductCacheTTL)
	viper.SetDefault("FAS_OPENAI_API_KEY", config.OpenAIAPIKey)
	viper.SetDefault("FAS_OPENAI_BASE_URL", config.OpenAIBaseURL)
	viper.SetDefault("FAS_ANALYSIS_MODEL", config.AnalysisModel)
	viper.SetDefault("FAS_ANALYSIS_MAX_TOKENS", config.AnalysisMaxTokens)
	viper.SetDefault("FAS_ANALYSIS_TEMPERATURE", config.AnalysisTemperature)
	viper.SetDefault("FAS_COMPREHENSIVE_MODEL", config.ComprehensiveModel)
	viper.SetDefault("FAS_COMPREHENSIVE_MAX_TOKENS", config.ComprehensiveMaxTokens)
	viper.SetDefault("FAS_COMPREHENSIVE_TEMPERATURE", config.ComprehensiveTemperature)
	viper.SetDefault("FAS_TRANSLATION_MODEL", config.TranslationModel)
	viper.SetDefault("FAS_TRANSLATION_MAX_TOKENS", config.TranslationMaxTokens)
	viper.SetDefault("FAS_TRANSLATION_TEMPERATURE", config.TranslationTemperature)
	viper.SetDefault("FAS_TARGET_LANGUAGE", config.TargetLanguage)
	viper.SetDefault("FAS_VOCAB_PRODUCT_FILE", config.VocabProductFile)
	viper.SetDefault("FAS_VOCAB_FOOD_GROUPS_FILE", config.VocabFoodGroupsFile)
	viper.SetDefault("FAS_VOCAB_ALLERGENS_FILE", config.VocabAllergensFile)

	// Override config values with environment variables
	viper.AutomaticEnv()
	err = viper.Unmarshal(&config)
	return
}

// ConfigFromFile will look for the specified configuration file in the current directory and initialize
// a Config from it. Values provided by environment variables will override ones found in
// the file. See package docs for a list of available environment variables.
func ConfigFromFile(f string) (config Config, err error) {
	if config, err = ConfigFromEnvironment(); err != nil {
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigFile(f)
	viper.SetConfigType("env")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)

	return
}

// Fiber initializes and returns a Fiber config based on server config values.
// See https://docs.gofiber.io/api/fiber#config
func (c Config) Fiber() fiber.Config {
	return fiber.Config{
		ReadTimeout: time.Second * time.Duration(c.ServerReadTimeout),
		BodyLimit:   1 * 1024 * 1024, // 1MB, request bodies are small JSON documents
	}
}

// DbConnectionString generates a connection string for the database based on config values.
func (c Config) DbConnectionString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=%s", c.DbUser, url.QueryEscape(c.DbPassword), c.DbHost, c.DbPort, c.DbDatabaseName, c.DbSSLMode)
}

// RedisAddr generates the address of the Redis server based on config values.
func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// GetSlogLevel converts the string log level to slog.Level.
func (c Config) GetSlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo // default fallback
	}
}

// GetOpenAIConfig converts config values to OpenAI client configuration struct.
func (c Config) GetOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		APIKey:  c.OpenAIAPIKey,
		BaseURL: c.OpenAIBaseURL,
	}
}

// OpenAIConfig holds OpenAI client configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // for switching to local models later
}

// GetPromptConfig converts config values to per-prompt model settings.
func (c Config) GetPromptConfig() PromptConfig {
	return PromptConfig{
		Analysis: ModelParams{
			Model:       c.AnalysisModel,
			MaxTokens:   c.AnalysisMaxTokens,
			Temperature: c.AnalysisTemperature,
		},
		Comprehensive: ModelParams{
			Model:       c.ComprehensiveModel,
			MaxTokens:   c.ComprehensiveMaxTokens,
			Temperature: c.ComprehensiveTemperature,
		},
		Translation: ModelParams{
			Model:       c.TranslationModel,
			MaxTokens:   c.TranslationMaxTokens,
			Temperature: c.TranslationTemperature,
		},
	}
}

// PromptConfig holds the model settings for each of the three prompt types.
type PromptConfig struct {
	Analysis      ModelParams
	Comprehensive ModelParams
	Translation   ModelParams
}

// ModelParams holds generation settings for a single prompt type.
type ModelParams struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// GetVocabularyConfig converts config values to vocabulary file locations.
func (c Config) GetVocabularyConfig() VocabularyConfig {
	return VocabularyConfig{
		ProductFile:    c.VocabProductFile,
		FoodGroupsFile: c.VocabFoodGroupsFile,
		AllergensFile:  c.VocabAllergensFile,
	}
}

// VocabularyConfig holds the three vocabulary translation file locations.
type VocabularyConfig struct {
	ProductFile    string
	FoodGroupsFile string
	AllergensFile  string
}
