package config

import (
	"strings"
	"time"

	"github.com/fieldplan/allocator/internal/apperr"
	"github.com/fieldplan/allocator/pkg/types"
)

const (
	defaultAPIHost            = "0.0.0.0"
	defaultAPIPort            = 8080
	defaultAPIReadTimeout     = 5 * time.Second
	defaultAPIWriteTimeout    = 10 * time.Second
	defaultAPIIdleTimeout     = 120 * time.Second
	defaultAPIShutdownTimeout = 10 * time.Second
	defaultMaxRequestSize     = 1 << 20 // 1MB
	defaultMaxHeaderSize      = 1 << 16 // 64KB
	defaultRateLimit          = 1000
	defaultRateLimitWindow    = time.Minute

	envAPIHost       = "API_HOST"
	envAPIPort       = "API_PORT"
	envEnableCORS    = "API_ENABLE_CORS"
	envAllowedOrigins = "API_ALLOWED_ORIGINS"
	envRateLimit     = "API_RATE_LIMIT"
)

// loadAPIConfig loads API server configuration from environment variables
// with secure defaults.
func loadAPIConfig() (*types.APIConfig, error) {
	cfg := &types.APIConfig{
		Host:                 getEnvOrDefault(envAPIHost, defaultAPIHost),
		Port:                 getEnvIntOrDefault(envAPIPort, defaultAPIPort),
		ReadTimeout:          defaultAPIReadTimeout,
		WriteTimeout:         defaultAPIWriteTimeout,
		IdleTimeout:          defaultAPIIdleTimeout,
		ShutdownTimeout:      defaultAPIShutdownTimeout,
		MaxRequestSize:       defaultMaxRequestSize,
		MaxHeaderSize:        defaultMaxHeaderSize,
		EnableCORS:           getEnvBoolOrDefault(envEnableCORS, true),
		AllowedMethods:       []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:       []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		EnableRequestLogging: true,
		EnableMetrics:        true,
		RateLimit:            getEnvIntOrDefault(envRateLimit, defaultRateLimit),
		RateLimitWindow:      defaultRateLimitWindow,
	}

	if origins := getEnvOrDefault(envAllowedOrigins, ""); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	} else {
		cfg.AllowedOrigins = []string{"https://*", "http://*"}
	}

	if err := validateAPIConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateAPIConfig performs comprehensive validation of API server
// configuration values.
func validateAPIConfig(cfg *types.APIConfig) error {
	if cfg == nil {
		return apperr.New(apperr.ErrCodeValidation, "API configuration cannot be nil")
	}
	if cfg.Port < minPort || cfg.Port > maxPort {
		return apperr.New(apperr.ErrCodeValidation, "API port must be between 1 and 65535")
	}
	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		return apperr.New(apperr.ErrCodeValidation, "API read/write timeouts must be positive")
	}
	if cfg.RateLimit <= 0 {
		return apperr.New(apperr.ErrCodeValidation, "API rate limit must be positive")
	}
	if cfg.EnableCORS && len(cfg.AllowedOrigins) == 0 {
		return apperr.New(apperr.ErrCodeValidation, "CORS enabled but no allowed origins configured")
	}
	return nil
}
