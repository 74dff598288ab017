// Package config reads settings from the environment. An optional .env file
// in the working directory is loaded first.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by every binary.
type Config struct {
	APIURL    string // root of the performance backend
	LogLevel  string
	LogPretty bool
}

// ServerConfig holds the reference backend settings.
type ServerConfig struct {
	Config
	Port            int
	DBPath          string
	BenchmarkSymbol string
	SymbolSuffix    string
	YahooRPS        int
}

// BotConfig holds the Telegram front-end settings.
type BotConfig struct {
	Config
	TelegramToken    string
	WebhookPublicURL string
	OpenAIKey        string // optional, enables /insight
	Port             int
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIURL:    strings.TrimRight(getEnv("PORTFOLIO_API_URL", "http://localhost:8000"), "/"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
	}
}

func LoadServer() (ServerConfig, error) {
	cfg := ServerConfig{
		Config:          Load(),
		Port:            getEnvAsInt("PORT", 8000),
		DBPath:          getEnv("DB_PATH", "data/portfolio.db"),
		BenchmarkSymbol: getEnv("BENCHMARK_SYMBOL", "^VNINDEX.VN"),
		SymbolSuffix:    getEnv("SYMBOL_SUFFIX", ".VN"),
		YahooRPS:        getEnvAsInt("YAHOO_RPS", 4),
	}
	if cfg.YahooRPS <= 0 {
		return cfg, fmt.Errorf("YAHOO_RPS must be positive, got %d", cfg.YahooRPS)
	}
	if cfg.DBPath == "" {
		return cfg, fmt.Errorf("DB_PATH is required")
	}
	return cfg, nil
}

func LoadBot() (BotConfig, error) {
	cfg := BotConfig{
		Config:           Load(),
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookPublicURL: os.Getenv("WEBHOOK_PUBLIC_URL"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		Port:             getEnvAsInt("BOT_PORT", 9095),
	}
	for k, v := range map[string]string{
		"TELEGRAM_BOT_TOKEN": cfg.TelegramToken,
		"WEBHOOK_PUBLIC_URL": cfg.WebhookPublicURL,
	} {
		if v == "" {
			return cfg, fmt.Errorf("missing env %s", k)
		}
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
