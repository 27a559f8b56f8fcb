package config

import (
	"os"
	"time"
)

type Config struct {
	ListenAddr        string
	DBPath            string
	PhotoPath         string
	LogLevel          string
	LogFile           string
	CompletionBackend string
	FlowiseURL        string
	FlowiseChatflowID string
	ClaudeAPIKey      string
	ClaudeModel       string
	DefaultLang       string
	JWTSecret         string
	TokenTTL          time.Duration
	ChatSessionTTL    time.Duration
}

func Load() *Config {
	return &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		DBPath:            getEnv("DB_PATH", "/data/aushadhi.db"),
		PhotoPath:         getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", ""),
		CompletionBackend: getEnv("COMPLETION_BACKEND", "flowise"),
		FlowiseURL:        getEnv("FLOWISE_API_URL", "http://localhost:5000"),
		FlowiseChatflowID: getEnv("FLOWISE_CHATFLOW_ID", ""),
		ClaudeAPIKey:      getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:       getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		DefaultLang:       getEnv("DEFAULT_LANG", "en"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		TokenTTL:          getDuration("TOKEN_TTL", 24*time.Hour),
		ChatSessionTTL:    getDuration("CHAT_SESSION_TTL", 30*time.Minute),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// getDuration parses key with time.ParseDuration. Unparseable or non-positive
// values fall back to defaultVal.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
