package config

import (
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultGeminiTimeout   = 30 * time.Second
	MinGeminiTimeout       = time.Second
	DefaultGeminiRetries   = 2
	DefaultGeminiChunkSize = 20000

	KeySourceEnvironment = "environment"
	KeySourceConfigYAML  = "config_yaml"
	KeySourceMissing     = "missing"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Gemini   GeminiConfig
	ATS      ATSConfig
	Storage  StorageConfig
	Worker   WorkerConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// GeminiConfig is resolved once at startup and shared by every generation call.
type GeminiConfig struct {
	APIKey         string
	KeySource      string
	Enabled        bool
	Timeout        time.Duration
	Models         []string
	MaxRetries     int
	ChunkSize      int
	RetryBaseDelay time.Duration
}

func (g GeminiConfig) Configured() bool {
	return g.APIKey != ""
}

type ATSConfig struct {
	MinTokenLength         int
	KeywordLimit           int
	RecommendationKeywords int
}

type StorageConfig struct {
	UploadPath  string
	MaxFileSize int64
}

type WorkerConfig struct {
	Concurrency  int
	PollInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "resume_ats"),
		},
		Gemini: LoadGemini(),
		ATS: ATSConfig{
			MinTokenLength:         getEnvAsInt("ATS_MIN_TOKEN_LENGTH", 3),
			KeywordLimit:           getEnvAsInt("ATS_KEYWORD_LIMIT", 25),
			RecommendationKeywords: getEnvAsInt("ATS_RECOMMENDATION_KEYWORDS", 6),
		},
		Storage: StorageConfig{
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 3),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

// LoadGemini resolves the generation settings from the environment, falling
// back to the YAML config file for the API key only.
func LoadGemini() GeminiConfig {
	apiKey, source := resolveAPIKey(getEnv("GEMINI_CONFIG_FILE", "config.yaml"))

	return GeminiConfig{
		APIKey:         apiKey,
		KeySource:      source,
		Enabled:        parseEnabled(os.Getenv("GEMINI_ENABLED")),
		Timeout:        parseTimeout(os.Getenv("GEMINI_TIMEOUT_MS")),
		Models:         ModelCandidates(os.Getenv("GEMINI_MODEL")),
		MaxRetries:     max(getEnvAsInt("GEMINI_MAX_RETRIES", DefaultGeminiRetries), 0),
		ChunkSize:      getEnvAsInt("GEMINI_CHUNK_SIZE", DefaultGeminiChunkSize),
		RetryBaseDelay: getEnvAsDuration("GEMINI_RETRY_BASE_DELAY", "1s"),
	}
}

func resolveAPIKey(configFile string) (string, string) {
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		return key, KeySourceEnvironment
	}

	if key := readKeyFromFile(configFile); key != "" {
		return key, KeySourceConfigYAML
	}

	return "", KeySourceMissing
}

func readKeyFromFile(path string) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		log.Printf("ERROR loading %s: %v", path, err)
		return ""
	}

	return strings.TrimSpace(v.GetString("GEMINI_API_KEY"))
}

// ModelCandidates returns the configured models in order, with the built-in
// default appended when it is not already listed.
func ModelCandidates(raw string) []string {
	var models []string
	seen := make(map[string]struct{})
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		models = append(models, item)
	}

	if _, ok := seen[DefaultGeminiModel]; !ok {
		models = append(models, DefaultGeminiModel)
	}

	return models
}

func parseEnabled(raw string) bool {
	return strings.ToLower(strings.TrimSpace(raw)) != "false"
}

func parseTimeout(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultGeminiTimeout
	}
	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return DefaultGeminiTimeout
	}
	if ms < float64(MinGeminiTimeout/time.Millisecond) || ms > float64(math.MaxInt64/int64(time.Millisecond)) {
		return DefaultGeminiTimeout
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
