package services

import (
	"log/slog"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	AI        AIConfig
	JWT       JWTConfig
	Email     EmailConfig
	Calendar  CalendarConfig
	Adaptive  AdaptiveConfig
	WebSocket WebSocketConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL          string
	Seed         bool
	LogLevel     string
	MaxIdleConns int
	MaxOpenConns int
}

type AIConfig struct {
	GeminiAPIKey  string
	ElevenLabsKey string
	AudioCacheDir string
}

type JWTConfig struct {
	Secret string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromAddress  string
	VerifyURL    string // base link embedded in verification mails
}

type CalendarConfig struct {
	BaseURL string
	APIKey  string
}

type AdaptiveConfig struct {
	MasteryThreshold  float64
	StruggleThreshold float64
	StaleDays         int
	MinSessions       int
}

type WebSocketConfig struct {
	AllowedOrigins string
}

// LoadConfig loads configuration from environment variables and config files
func LoadConfig() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("websocket.allowed_origins", "")
	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("elevenlabs.api_key", "")
	viper.SetDefault("elevenlabs.cache_dir", "audio_cache")
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.seed", "true")
	viper.SetDefault("database.log_level", "silent")
	viper.SetDefault("database.max_idle_conns", "10")
	viper.SetDefault("database.max_open_conns", "100")
	viper.SetDefault("email.smtp_host", "")
	viper.SetDefault("email.smtp_port", "587")
	viper.SetDefault("email.smtp_user", "")
	viper.SetDefault("email.smtp_password", "")
	viper.SetDefault("email.from_address", "no-reply@prepdeck.app")
	viper.SetDefault("email.verify_url", "http://localhost:5173/verify")
	viper.SetDefault("calendar.base_url", "")
	viper.SetDefault("calendar.api_key", "")
	viper.SetDefault("adaptive.mastery_threshold", "80")
	viper.SetDefault("adaptive.struggle_threshold", "50")
	viper.SetDefault("adaptive.stale_days", "14")
	viper.SetDefault("adaptive.min_sessions", "3")

	// Map environment variables to config keys
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("websocket.allowed_origins", "WEBSOCKET_ALLOWED_ORIGINS")
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	viper.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY")
	viper.BindEnv("elevenlabs.cache_dir", "ELEVENLABS_CACHE_DIR")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.seed", "DATABASE_SEED")
	viper.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("email.smtp_host", "SMTP_HOST")
	viper.BindEnv("email.smtp_port", "SMTP_PORT")
	viper.BindEnv("email.smtp_user", "SMTP_USER")
	viper.BindEnv("email.smtp_password", "SMTP_PASSWORD")
	viper.BindEnv("email.from_address", "EMAIL_FROM_ADDRESS")
	viper.BindEnv("email.verify_url", "EMAIL_VERIFY_URL")
	viper.BindEnv("calendar.base_url", "CALENDAR_BASE_URL")
	viper.BindEnv("calendar.api_key", "CALENDAR_API_KEY")
	viper.BindEnv("adaptive.mastery_threshold", "ADAPTIVE_MASTERY_THRESHOLD")
	viper.BindEnv("adaptive.struggle_threshold", "ADAPTIVE_STRUGGLE_THRESHOLD")
	viper.BindEnv("adaptive.stale_days", "ADAPTIVE_STALE_DAYS")
	viper.BindEnv("adaptive.min_sessions", "ADAPTIVE_MIN_SESSIONS")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Error reading config file", "error", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
		},
		Database: DatabaseConfig{
			URL:          viper.GetString("database.url"),
			Seed:         viper.GetBool("database.seed"),
			LogLevel:     viper.GetString("database.log_level"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		AI: AIConfig{
			GeminiAPIKey:  viper.GetString("gemini.api_key"),
			ElevenLabsKey: viper.GetString("elevenlabs.api_key"),
			AudioCacheDir: viper.GetString("elevenlabs.cache_dir"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		Email: EmailConfig{
			SMTPHost:     viper.GetString("email.smtp_host"),
			SMTPPort:     viper.GetInt("email.smtp_port"),
			SMTPUser:     viper.GetString("email.smtp_user"),
			SMTPPassword: viper.GetString("email.smtp_password"),
			FromAddress:  viper.GetString("email.from_address"),
			VerifyURL:    viper.GetString("email.verify_url"),
		},
		Calendar: CalendarConfig{
			BaseURL: viper.GetString("calendar.base_url"),
			APIKey:  viper.GetString("calendar.api_key"),
		},
		Adaptive: AdaptiveConfig{
			MasteryThreshold:  viper.GetFloat64("adaptive.mastery_threshold"),
			StruggleThreshold: viper.GetFloat64("adaptive.struggle_threshold"),
			StaleDays:         viper.GetInt("adaptive.stale_days"),
			MinSessions:       viper.GetInt("adaptive.min_sessions"),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: viper.GetString("websocket.allowed_origins"),
		},
	}
}
