package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	Port        string
	Environment string
	APIKey      string

	AdminUsername string
	AdminPassword string

	ChartFontFamily string
	ChartFontSize   float64
	ChartFontColor  string

	DemandChartWidth  int
	DemandChartHeight int
	RiskGaugeSize     int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		APIKey:      getEnv("API_KEY", ""),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		ChartFontFamily: getEnv("CHART_FONT_FAMILY", "Segoe UI, sans-serif"),
		ChartFontSize:   getEnvFloat("CHART_FONT_SIZE", 12),
		ChartFontColor:  getEnv("CHART_FONT_COLOR", "#495057"),

		DemandChartWidth:  getEnvInt("DEMAND_CHART_WIDTH", 800),
		DemandChartHeight: getEnvInt("DEMAND_CHART_HEIGHT", 400),
		RiskGaugeSize:     getEnvInt("RISK_GAUGE_SIZE", 300),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt は正の整数として解釈できない値をデフォルトに置き換えます
func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return defaultValue
}
