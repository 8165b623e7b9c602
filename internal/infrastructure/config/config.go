package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	// EnvFilePath points at an optional .env file.
	EnvFilePath = "ENV_PATH"

	// DefaultEnvFilePath is used when EnvFilePath is unset.
	DefaultEnvFilePath = ".env"

	StorePathEnv         = "INSTAFICHE_STORE_PATH"
	NodeIDEnv            = "INSTAFICHE_NODE_ID"
	FontCSSURLEnv        = "INSTAFICHE_FONT_CSS_URL"
	ExportBaseWidthEnv   = "INSTAFICHE_EXPORT_BASE_WIDTH"
	ExportTargetWidthEnv = "INSTAFICHE_EXPORT_TARGET_WIDTH"
	ExportQualityEnv     = "INSTAFICHE_EXPORT_QUALITY"
	OutputDirEnv         = "INSTAFICHE_OUTPUT_DIR"
	ImageCacheSizeEnv    = "INSTAFICHE_IMAGE_CACHE_SIZE"
	HTTPTimeoutEnv       = "INSTAFICHE_HTTP_TIMEOUT"

	ServerHostEnv = "SERVER_HOST"
	ServerPortEnv = "SERVER_PORT"

	OTLPEndpointEnv    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	OTLPServiceNameEnv = "OTEL_SERVICE_NAME"
	OTLPEnvironmentEnv = "OTEL_ENVIRONMENT"
	LogLevelEnv        = "LOG_LEVEL"
)

const defaultFontCSSURL = "https://fonts.googleapis.com/css2?family=Cairo:wght@400;700&family=Inter:wght@400;500;600;700;800&display=swap"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Server ServerConfig
	OTLP   OTLPConfig
	Store  StoreConfig
	Export ExportConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type OTLPConfig struct {
	Endpoint    string
	ServiceName string
	Environment string
	LogLevel    string
}

// Enabled reports whether traces and metrics are pushed to a collector.
func (c OTLPConfig) Enabled() bool {
	return c.Endpoint != ""
}

type StoreConfig struct {
	Path   string
	NodeID int64
}

type ExportConfig struct {
	FontCSSURL     string
	BaseWidth      float64
	TargetWidth    float64
	Quality        float64
	OutputDir      string
	ImageCacheSize int
	HTTPTimeout    string
}

// LoadConfig loads configuration from the environment, after applying the
// optional .env file.
func LoadConfig() (*Config, error) {
	envPath := getEnv(EnvFilePath, DefaultEnvFilePath)
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Info("failed to load from .env", slog.Any("err", err))
	}

	var errs []error
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv(ServerHostEnv, "127.0.0.1"),
			Port: getEnv(ServerPortEnv, "8080"),
		},
		OTLP: OTLPConfig{
			Endpoint:    getEnv(OTLPEndpointEnv, ""),
			ServiceName: getEnv(OTLPServiceNameEnv, "instafiche"),
			Environment: getEnv(OTLPEnvironmentEnv, "development"),
			LogLevel:    getEnv(LogLevelEnv, "info"),
		},
		Store: StoreConfig{
			Path:   getEnv(StorePathEnv, "instafiche.db"),
			NodeID: getEnvAsInt64(NodeIDEnv, 1, &errs),
		},
		Export: ExportConfig{
			FontCSSURL:     getEnv(FontCSSURLEnv, defaultFontCSSURL),
			BaseWidth:      getEnvAsFloat(ExportBaseWidthEnv, 500, &errs),
			TargetWidth:    getEnvAsFloat(ExportTargetWidthEnv, 1080, &errs),
			Quality:        getEnvAsFloat(ExportQualityEnv, 0.95, &errs),
			OutputDir:      getEnv(OutputDirEnv, "."),
			ImageCacheSize: int(getEnvAsInt64(ImageCacheSizeEnv, 64, &errs)),
			HTTPTimeout:    getEnv(HTTPTimeoutEnv, "30s"),
		},
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Export.BaseWidth <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, ExportBaseWidthEnv)
	}
	if c.Export.TargetWidth <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, ExportTargetWidthEnv)
	}
	if c.Export.Quality <= 0 || c.Export.Quality > 1 {
		return fmt.Errorf("%w: %s must be in (0, 1]", ErrInvalidConfig, ExportQualityEnv)
	}
	if c.Store.NodeID < 0 || c.Store.NodeID > 1023 {
		return fmt.Errorf("%w: %s must be in [0, 1023]", ErrInvalidConfig, NodeIDEnv)
	}
	if _, err := cast.ToDurationE(c.Export.HTTPTimeout); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, HTTPTimeoutEnv, err)
	}
	if !strings.HasPrefix(c.Export.FontCSSURL, "https://") && !strings.HasPrefix(c.Export.FontCSSURL, "http://") {
		return fmt.Errorf("%w: %s must be an http(s) URL", ErrInvalidConfig, FontCSSURLEnv)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64, errs *[]error) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func getEnvAsInt64(key string, defaultValue int64, errs *[]error) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := cast.ToInt64E(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}
