package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/travelops/callscore/pkg/logger"
)

// Config holds every runtime setting. All values have defaults so the
// server starts without a .env file.
type Config struct {
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`

	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	Log logger.LogConfig

	// Provider configuration (OpenAI-compatible endpoint)
	OpenAIApiKey       string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL"`
	ChatModel          string `env:"CHAT_MODEL"`
	SummaryModel       string `env:"SUMMARY_MODEL"`
	TranscribeModel    string `env:"TRANSCRIBE_MODEL"`
	EmbeddingModel     string `env:"EMBEDDING_MODEL"`
	ProviderMaxRetries int    `env:"PROVIDER_MAX_RETRIES"`

	// Media handling
	UploadDir    string `env:"UPLOAD_DIR"`
	FFmpegPath   string `env:"FFMPEG_PATH"`
	FFprobePath  string `env:"FFPROBE_PATH"`
	ChunkMinutes int    `env:"CHUNK_MINUTES"`

	// Embedding search
	ChunkSize    int     `env:"CHUNK_SIZE"`
	ChunkOverlap int     `env:"CHUNK_OVERLAP"`
	QATopK       int     `env:"QA_TOP_K"`
	QAThreshold  float64 `env:"QA_THRESHOLD"`

	// Chat session summarization
	SummarizeAfter int `env:"SUMMARIZE_AFTER"`
	SummarizeBatch int `env:"SUMMARIZE_BATCH"`

	// Ticketing system
	TicketingBaseURL   string `env:"TICKETING_BASE_URL"`
	TicketingApiKey    string `env:"TICKETING_API_KEY"`
	TranscriptLinkBase string `env:"TRANSCRIPT_LINK_BASE"`

	// CRM ingest
	CRMBaseURL     string `env:"CRM_BASE_URL"`
	CRMApiKey      string `env:"CRM_API_KEY"`
	CRMExportBatch int    `env:"CRM_EXPORT_BATCH"`

	// Webhook filtering
	BlockedSenderDomain string `env:"BLOCKED_SENDER_DOMAIN"`

	// Cron schedules
	ChunkRetrySchedule      string `env:"CHUNK_RETRY_SCHEDULE"`
	TranscribeRetrySchedule string `env:"TRANSCRIBE_RETRY_SCHEDULE"`
	AnalysisRetrySchedule   string `env:"ANALYSIS_RETRY_SCHEDULE"`
	MessageAnalysisSchedule string `env:"MESSAGE_ANALYSIS_SCHEDULE"`
	CRMExportSchedule       string `env:"CRM_EXPORT_SCHEDULE"`
	FileCleanupSchedule     string `env:"FILE_CLEANUP_SCHEDULE"`
	FileRetentionDays       int    `env:"FILE_RETENTION_DAYS"`
}

var GlobalConfig *Config

// Load reads .env (and .env.<APP_ENV> when set), then builds the global
// configuration with defaults for everything missing.
func Load() error {
	env := os.Getenv("APP_ENV")
	if err := loadEnvFiles(env); err != nil {
		log.Printf("Note: .env file not found or failed to load: %v (using default values)", err)
	}

	GlobalConfig = &Config{
		Addr:      getStringOrDefault("ADDR", ":7080"),
		Mode:      getStringOrDefault("MODE", "development"),
		APIPrefix: getStringOrDefault("API_PREFIX", "/api"),
		DBDriver:  getStringOrDefault("DB_DRIVER", "sqlite"),
		DSN:       getStringOrDefault("DSN", "./callscore.db"),
		Log: logger.LogConfig{
			Level:      getStringOrDefault("LOG_LEVEL", "info"),
			Filename:   getStringOrDefault("LOG_FILENAME", "./logs/app.log"),
			MaxSize:    getIntOrDefault("LOG_MAX_SIZE", 100),
			MaxAge:     getIntOrDefault("LOG_MAX_AGE", 30),
			MaxBackups: getIntOrDefault("LOG_MAX_BACKUPS", 5),
			Daily:      getBoolOrDefault("LOG_DAILY", true),
		},
		OpenAIApiKey:       getStringOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getStringOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ChatModel:          getStringOrDefault("CHAT_MODEL", "gpt-5-mini"),
		SummaryModel:       getStringOrDefault("SUMMARY_MODEL", "gpt-4o-mini"),
		TranscribeModel:    getStringOrDefault("TRANSCRIBE_MODEL", "gpt-4o-transcribe"),
		EmbeddingModel:     getStringOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
		ProviderMaxRetries: getIntOrDefault("PROVIDER_MAX_RETRIES", 5),

		UploadDir:    getStringOrDefault("UPLOAD_DIR", "./uploads/score_ai"),
		FFmpegPath:   getStringOrDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:  getStringOrDefault("FFPROBE_PATH", "ffprobe"),
		ChunkMinutes: getIntOrDefault("CHUNK_MINUTES", 10),

		ChunkSize:    getIntOrDefault("CHUNK_SIZE", 500),
		ChunkOverlap: getIntOrDefault("CHUNK_OVERLAP", 50),
		QATopK:       getIntOrDefault("QA_TOP_K", 5),
		QAThreshold:  getFloatOrDefault("QA_THRESHOLD", 0.3),

		SummarizeAfter: getIntOrDefault("SUMMARIZE_AFTER", 10),
		SummarizeBatch: getIntOrDefault("SUMMARIZE_BATCH", 6),

		TicketingBaseURL:   getStringOrDefault("TICKETING_BASE_URL", ""),
		TicketingApiKey:    getStringOrDefault("TICKETING_API_KEY", ""),
		TranscriptLinkBase: getStringOrDefault("TRANSCRIPT_LINK_BASE", ""),

		CRMBaseURL:     getStringOrDefault("CRM_BASE_URL", ""),
		CRMApiKey:      getStringOrDefault("CRM_API_KEY", ""),
		CRMExportBatch: getIntOrDefault("CRM_EXPORT_BATCH", 100),

		BlockedSenderDomain: getStringOrDefault("BLOCKED_SENDER_DOMAIN", ""),

		ChunkRetrySchedule:      getStringOrDefault("CHUNK_RETRY_SCHEDULE", "*/20 * * * *"),
		TranscribeRetrySchedule: getStringOrDefault("TRANSCRIBE_RETRY_SCHEDULE", "*/30 * * * *"),
		AnalysisRetrySchedule:   getStringOrDefault("ANALYSIS_RETRY_SCHEDULE", "*/45 * * * *"),
		MessageAnalysisSchedule: getStringOrDefault("MESSAGE_ANALYSIS_SCHEDULE", "0 * * * *"),
		CRMExportSchedule:       getStringOrDefault("CRM_EXPORT_SCHEDULE", "*/15 * * * *"),
		FileCleanupSchedule:     getStringOrDefault("FILE_CLEANUP_SCHEDULE", "0 3 * * *"),
		FileRetentionDays:       getIntOrDefault("FILE_RETENTION_DAYS", 7),
	}
	return nil
}

func loadEnvFiles(env string) error {
	if env != "" {
		if err := godotenv.Load(".env." + env); err == nil {
			return nil
		}
	}
	return godotenv.Load()
}

func getStringOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := cast.ToInt(os.Getenv(key))
	if value == 0 {
		return defaultValue
	}
	return value
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	value := cast.ToFloat64(os.Getenv(key))
	if value == 0 {
		return defaultValue
	}
	return value
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return cast.ToBool(value)
}
