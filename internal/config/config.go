package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	DBDSN           string
	JWTSecret       string
	AccessTTLMin    int
	RefreshTTLHours int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// requests per user per minute; 0 disables the limiter
	TutorRateLimit int

	ChatContextWindowSize int
	TutorTimeoutSeconds   int

	// AI provider
	AIProvider        string
	AIModel           string
	OllamaBaseURL     string
	OllamaModel       string
	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterSiteURL string
	OpenRouterAppName string
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	AnthropicAPIKey   string
	AnthropicModel    string

	// rabbitMQ
	RabbitURL         string
	RabbitQueue       string
	WorkerConcurrency int

	CORSAllowOrigins []string
	OtelEnabled      bool
}

// Load reads the process environment. A .env file in the working directory,
// if any, is applied first without overriding variables already set.
func Load() Config {
	_ = godotenv.Load()

	// DSN demo：
	// app:apppass@tcp(127.0.0.1:3306)/code_tutor?charset=utf8mb4&parseTime=true&loc=Local
	// sqlite:code_tutor.db
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			"app", "apppass", "127.0.0.1", "3306", "code_tutor",
		)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	// AI provider config
	aiProvider := strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER")))
	if aiProvider == "" {
		aiProvider = "gemini"
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "tutor_jobs"
	}

	return Config{
		AppEnv:   getenv("APP_ENV", "dev"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		DBDSN:           dsn,
		JWTSecret:       secret,
		AccessTTLMin:    getint("JWT_ACCESS_TTL_MINUTES", 60),
		RefreshTTLHours: getint("JWT_REFRESH_TTL_HOURS", 24),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getint("REDIS_DB", 0),
		TutorRateLimit: getint("TUTOR_RATE_LIMIT_PER_MINUTE", 20),

		ChatContextWindowSize: getint("CHAT_CONTEXT_WINDOW_SIZE", 50),
		TutorTimeoutSeconds:   getint("TUTOR_TIMEOUT_SECONDS", 60),

		AIProvider:        aiProvider,
		AIModel:           os.Getenv("AI_MODEL"),
		OllamaBaseURL:     getenv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:       getenv("OLLAMA_MODEL", "llama3:latest"),
		OpenRouterBaseURL: getenv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   getenv("OPENROUTER_MODEL", "openrouter/auto"),
		OpenRouterSiteURL: os.Getenv("OPENROUTER_SITE_URL"),
		OpenRouterAppName: os.Getenv("OPENROUTER_APP_NAME"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getenv("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getenv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    getenv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		RabbitURL:         os.Getenv("RABBIT_URL"),
		RabbitQueue:       rabbitQueue,
		WorkerConcurrency: getint("WORKER_CONCURRENCY", 2),

		CORSAllowOrigins: splitList(getenv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		OtelEnabled:      getbool("OTEL_ENABLED"),
	}
}

// ModelFor returns the configured model for the named provider, preferring AI_MODEL.
func (c Config) ModelFor(provider string) string {
	if m := strings.TrimSpace(c.AIModel); m != "" {
		return m
	}
	switch strings.ToLower(provider) {
	case "ollama":
		return c.OllamaModel
	case "openrouter":
		return c.OpenRouterModel
	case "openai":
		return c.OpenAIModel
	case "anthropic":
		return c.AnthropicModel
	default:
		return c.GeminiModel
	}
}

func getenv(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func getint(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getbool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
