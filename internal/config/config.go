package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port      int
	LogLevel  string
	LeadLimit int
	SLADays   int

	LLMAPIURL   string
	LLMAPIKey   string
	LLMModel    string
	TimeoutSecs int
	MaxRetries  int

	KommoBaseURL     string
	KommoAccessToken string
	KommoPageLimit   int

	NatsURL   string
	NatsToken string
}

func Load() Config {
	return Config{
		Port:      envInt("DEALWATCH_PORT", 8760),
		LogLevel:  envStr("LOG_LEVEL", "info"),
		LeadLimit: envInt("DEALWATCH_LEAD_LIMIT", 200),
		SLADays:   envInt("SLA_DAYS", 2),

		LLMAPIURL:   envStr("LLM_API_URL", "https://amo-ai-challenge-1.up.railway.app/v1/chat/completions"),
		LLMAPIKey:   envStr("LLM_API_KEY", ""),
		LLMModel:    envStr("LLM_MODEL", "gpt-4o-mini"),
		TimeoutSecs: envInt("REQUEST_TIMEOUT_SECONDS", 20),
		MaxRetries:  envInt("REQUEST_MAX_RETRIES", 2),

		KommoBaseURL:     envStr("KOMMO_BASE_URL", ""),
		KommoAccessToken: envStr("KOMMO_ACCESS_TOKEN", ""),
		KommoPageLimit:   envInt("KOMMO_API_LIMIT", 100),

		NatsURL:   envStr("NATS_URL", ""),
		NatsToken: envStr("NATS_TOKEN", ""),
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
