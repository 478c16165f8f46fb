package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is built once at startup
// and passed by reference into every component.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	S3        S3Config
	Log       LogConfig
	CORS      CORSConfig
	Pricing   PricingConfig
	Battle    BattleConfig
	Providers ProvidersConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds document store settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	KeyPrefix     string `mapstructure:"key_prefix"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PricingConfig locates the static pricing table loaded once at startup.
type PricingConfig struct {
	TablePath string `mapstructure:"table_path"`
}

// BattleConfig holds battle-mode settings.
type BattleConfig struct {
	HistoryPageSize int `mapstructure:"history_page_size"`
	// TimeoutSecs bounds each provider call made on behalf of a battle.
	TimeoutSecs int `mapstructure:"timeout_secs"`
}

// ProviderConfig holds settings for a single parsing provider adapter.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	// TimeoutSecs is the adapter HTTP client ceiling; the per-call timeout
	// always comes from the request.
	TimeoutSecs int `mapstructure:"timeout_secs"`
}

// ProvidersConfig holds per-provider adapter settings.
type ProvidersConfig struct {
	LlamaIndex   ProviderConfig `mapstructure:"llamaindex"`
	Reducto      ProviderConfig `mapstructure:"reducto"`
	LandingAI    ProviderConfig `mapstructure:"landingai"`
	ExtendAI     ProviderConfig `mapstructure:"extendai"`
	Unstructured ProviderConfig `mapstructure:"unstructured"`
}

// Load reads configuration from environment variables with the PARSEARENA_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PARSEARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15m") // streaming responses outlive slow providers
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "parsearena")
	v.SetDefault("db.password", "parsearena_secret")
	v.SetDefault("db.name", "parsearena_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "parsearena-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.key_prefix", "documents")
	v.SetDefault("s3.max_file_size_mb", 50)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Pricing defaults
	v.SetDefault("pricing.table_path", "config/pricing.yaml")

	// Battle defaults
	v.SetDefault("battle.history_page_size", 20)
	v.SetDefault("battle.timeout_secs", 300)

	// Provider defaults
	for _, p := range []string{"llamaindex", "reducto", "landingai", "extendai", "unstructured"} {
		v.SetDefault("providers."+p+".api_key", "")
		v.SetDefault("providers."+p+".base_url", "")
		v.SetDefault("providers."+p+".timeout_secs", 600)
	}

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":              "PARSEARENA_SERVER_PORT",
		"server.read_timeout":      "PARSEARENA_SERVER_READ_TIMEOUT",
		"server.write_timeout":     "PARSEARENA_SERVER_WRITE_TIMEOUT",
		"server.environment":       "PARSEARENA_SERVER_ENVIRONMENT",
		"db.host":                  "PARSEARENA_DB_HOST",
		"db.port":                  "PARSEARENA_DB_PORT",
		"db.user":                  "PARSEARENA_DB_USER",
		"db.password":              "PARSEARENA_DB_PASSWORD",
		"db.name":                  "PARSEARENA_DB_NAME",
		"db.sslmode":               "PARSEARENA_DB_SSLMODE",
		"db.max_open":              "PARSEARENA_DB_MAX_OPEN",
		"db.max_idle":              "PARSEARENA_DB_MAX_IDLE",
		"s3.region":                "PARSEARENA_S3_REGION",
		"s3.bucket":                "PARSEARENA_S3_BUCKET",
		"s3.endpoint":              "PARSEARENA_S3_ENDPOINT",
		"s3.access_key":            "PARSEARENA_S3_ACCESS_KEY",
		"s3.secret_key":            "PARSEARENA_S3_SECRET_KEY",
		"s3.key_prefix":            "PARSEARENA_S3_KEY_PREFIX",
		"s3.max_file_size_mb":      "PARSEARENA_S3_MAX_FILE_SIZE_MB",
		"log.level":                "PARSEARENA_LOG_LEVEL",
		"log.format":               "PARSEARENA_LOG_FORMAT",
		"cors.allowed_origins":     "PARSEARENA_CORS_ALLOWED_ORIGINS",
		"pricing.table_path":       "PARSEARENA_PRICING_TABLE_PATH",
		"battle.history_page_size": "PARSEARENA_BATTLE_HISTORY_PAGE_SIZE",
		"battle.timeout_secs":      "PARSEARENA_BATTLE_TIMEOUT_SECS",
	}
	for _, p := range []string{"llamaindex", "reducto", "landingai", "extendai", "unstructured"} {
		upper := strings.ToUpper(p)
		envBindings["providers."+p+".api_key"] = "PARSEARENA_PROVIDERS_" + upper + "_API_KEY"
		envBindings["providers."+p+".base_url"] = "PARSEARENA_PROVIDERS_" + upper + "_BASE_URL"
		envBindings["providers."+p+".timeout_secs"] = "PARSEARENA_PROVIDERS_" + upper + "_TIMEOUT_SECS"
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if PARSEARENA_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("PARSEARENA_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		KeyPrefix:     v.GetString("s3.key_prefix"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Pricing = PricingConfig{
		TablePath: v.GetString("pricing.table_path"),
	}
	cfg.Battle = BattleConfig{
		HistoryPageSize: v.GetInt("battle.history_page_size"),
		TimeoutSecs:     v.GetInt("battle.timeout_secs"),
	}
	cfg.Providers = ProvidersConfig{
		LlamaIndex:   loadProvider(v, "llamaindex"),
		Reducto:      loadProvider(v, "reducto"),
		LandingAI:    loadProvider(v, "landingai"),
		ExtendAI:     loadProvider(v, "extendai"),
		Unstructured: loadProvider(v, "unstructured"),
	}

	return cfg, nil
}

func loadProvider(v *viper.Viper, name string) ProviderConfig {
	return ProviderConfig{
		APIKey:      v.GetString("providers." + name + ".api_key"),
		BaseURL:     v.GetString("providers." + name + ".base_url"),
		TimeoutSecs: v.GetInt("providers." + name + ".timeout_secs"),
	}
}
