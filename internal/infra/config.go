package infra

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	StoragePath string

	LeonardoAPIKey             string
	LeonardoBaseURL            string
	LeonardoMotionControlsFile string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	PollInitialDelay   time.Duration
	PollInterval       time.Duration
	PollMaxAttempts    int
	PollRequestTimeout time.Duration
	UploadSettleDelay  time.Duration

	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig loads .env files when present, then reads the environment and
// applies defaults where needed.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StoragePath: strings.TrimSpace(os.Getenv("STORAGE_PATH")),

		LeonardoAPIKey:             strings.TrimSpace(os.Getenv("LEONARDO_API_KEY")),
		LeonardoBaseURL:            getEnv("LEONARDO_BASE_URL", "https://cloud.leonardo.ai/api/rest/v1"),
		LeonardoMotionControlsFile: strings.TrimSpace(os.Getenv("LEONARDO_MOTION_CONTROLS_FILE")),

		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		PollInitialDelay:   getEnvSeconds("POLL_INITIAL_DELAY_SECONDS", 5),
		PollInterval:       getEnvSeconds("POLL_INTERVAL_SECONDS", 5),
		PollMaxAttempts:    getEnvInt("POLL_MAX_ATTEMPTS", 60),
		PollRequestTimeout: getEnvSeconds("POLL_REQUEST_TIMEOUT_SECONDS", 30),
		UploadSettleDelay:  getEnvSeconds("UPLOAD_SETTLE_DELAY_SECONDS", 2),

		HTTPReadTimeout:    getEnvSeconds("HTTP_READ_TIMEOUT_SECONDS", 15),
		HTTPWriteTimeout:   getEnvSeconds("HTTP_WRITE_TIMEOUT_SECONDS", 60),
		HTTPIdleTimeout:    getEnvSeconds("HTTP_IDLE_TIMEOUT_SECONDS", 60),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 60
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Second * time.Duration(getEnvInt(key, fallback))
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
