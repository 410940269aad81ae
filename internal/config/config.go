package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	WeatherToken  string
	DatabasePath  string
	BotName       string // mention suffix stripped during parsing, e.g. "@SomeWeatherBot"
	LogLevel      string
	QueueWorkers  int
}

func Load() (Config, error) {
	_ = godotenv.Load() // TELEGRAM_BOT_TOKEN etc.

	cfg := Config{
		TelegramToken: getBotToken(),
		WeatherToken:  strings.TrimSpace(os.Getenv("OPEN_WEATHER_MAP_API_TOKEN")),
		DatabasePath:  envOr("DATABASE_PATH", "bot.db"),
		BotName:       strings.TrimSpace(os.Getenv("BOT_NAME")),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		QueueWorkers:  envInt("QUEUE_WORKERS", 4),
	}

	if cfg.TelegramToken == "" {
		return Config{}, errors.New("config: TELEGRAM_BOT_TOKEN is not set")
	}
	if cfg.WeatherToken == "" {
		return Config{}, errors.New("config: OPEN_WEATHER_MAP_API_TOKEN is not set")
	}
	return cfg, nil
}

// getBotToken prefers the Docker secret over the environment.
func getBotToken() string {
	if data, err := os.ReadFile("/run/secrets/telegram_bot_token"); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}
	return strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v < 1 {
		return def
	}
	return v
}
