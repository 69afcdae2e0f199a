package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port      int
	LogLevel  string
	LogFormat string

	NatsURL     string
	NatsToken   string
	DatabaseURL string

	PrimaryProvider   string
	SecondaryProvider string
	ProviderTimeout   time.Duration

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	MistralAPIKey  string
	MistralModel   string
	MistralBaseURL string

	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string

	SerpAPIKey     string
	SearchURL      string
	SearchLocation string
	SearchLanguage string
	SearchCountry  string

	WeatherAPIKey string
	WeatherURL    string
	DefaultCity   string

	MusicCommand  string
	OutputDir     string
	SpeechCommand string
	SpeechRate    int
	SpeechEnabled bool
	ListenCommand string
}

func Load() Config {
	return Config{
		Port:      envInt("KAI_PORT", 8760),
		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "text"),

		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
		DatabaseURL: envStr("DATABASE_URL", ""),

		PrimaryProvider:   strings.ToLower(envStr("KAI_PRIMARY_PROVIDER", "gemini")),
		SecondaryProvider: strings.ToLower(envStr("KAI_SECONDARY_PROVIDER", "mistral")),
		ProviderTimeout:   envDuration("KAI_PROVIDER_TIMEOUT", 120*time.Second),

		GeminiAPIKey:  envStr("GEMINI_API_KEY", ""),
		GeminiModel:   envStr("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL: envStr("GEMINI_BASE_URL", ""),

		MistralAPIKey:  envStr("MISTRAL_API_KEY", ""),
		MistralModel:   envStr("MISTRAL_MODEL", "mistral-medium"),
		MistralBaseURL: envStr("MISTRAL_BASE_URL", "https://api.mistral.ai/v1/"),

		AnthropicAPIKey:  envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   envStr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		AnthropicBaseURL: envStr("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),

		SerpAPIKey:     envStr("SERPAPI_KEY", ""),
		SearchURL:      envStr("SERPAPI_URL", "https://serpapi.com/search.json"),
		SearchLocation: envStr("KAI_SEARCH_LOCATION", "India"),
		SearchLanguage: envStr("KAI_SEARCH_LANGUAGE", "en"),
		SearchCountry:  envStr("KAI_SEARCH_COUNTRY", "in"),

		WeatherAPIKey: envStr("WEATHER_API_KEY", ""),
		WeatherURL:    envStr("WEATHER_URL", "http://api.openweathermap.org/data/2.5/weather"),
		DefaultCity:   envStr("KAI_DEFAULT_CITY", "Hyderabad"),

		MusicCommand:  envStr("SPOTIFY_CMD", "spotify"),
		OutputDir:     envStr("KAI_OUTPUT_DIR", "Outputs"),
		SpeechCommand: envStr("KAI_SPEECH_COMMAND", "espeak-ng"),
		SpeechRate:    envInt("KAI_SPEECH_RATE", 175),
		SpeechEnabled: envBool("KAI_SPEECH_ENABLED", true),
		ListenCommand: envStr("KAI_LISTEN_COMMAND", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
