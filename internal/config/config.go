package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the ledger service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	CORSAllowOrigins       string
	AccessLog              bool
	DatabaseURL            string
	DatabaseMaxRetries     int
	RedisURL               string
	NATSURL                string
	EventSubjectBase       string
	CourseCompletedSubject string
	CourseCompletedQueue   string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	EvidenceMaxSizeMB      int
	CycleTarget            int
	AutomaticDefaultCredit int
	BridgeDedupeTTL        time.Duration
	SubmissionRateLimit    int
	SubmissionRateWindow   time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	return load(true)
}

// LoadMaintenance reads configuration for offline tooling that never verifies tokens.
func LoadMaintenance() (Config, error) {
	return load(false)
}

func load(requireSecret bool) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Credit Ledger API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("http.cors_origins", "*")
	v.SetDefault("http.access_log", true)
	v.SetDefault("database.max_retries", 5)
	v.SetDefault("events.subject_base", "ledger")
	v.SetDefault("events.course_completed_subject", "lms.course.completed")
	v.SetDefault("events.course_completed_queue", "credit-ledger")
	v.SetDefault("cloudinary.folder", "ledger/evidence")
	v.SetDefault("evidence.max_size_mb", 10)
	v.SetDefault("credits.cycle_target", 150)
	v.SetDefault("credits.automatic_default", 5)
	v.SetDefault("bridge.dedupe_ttl", "10m")
	v.SetDefault("ratelimit.submissions", 20)
	v.SetDefault("ratelimit.window", "1m")

	dedupeTTL, err := parseDuration(v.GetString("bridge.dedupe_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid bridge dedupe ttl: %w", err)
	}

	rateWindow, err := parseDuration(v.GetString("ratelimit.window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		CORSAllowOrigins:       v.GetString("http.cors_origins"),
		AccessLog:              v.GetBool("http.access_log"),
		DatabaseURL:            v.GetString("database.url"),
		DatabaseMaxRetries:     v.GetInt("database.max_retries"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventSubjectBase:       v.GetString("events.subject_base"),
		CourseCompletedSubject: v.GetString("events.course_completed_subject"),
		CourseCompletedQueue:   v.GetString("events.course_completed_queue"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		EvidenceMaxSizeMB:      v.GetInt("evidence.max_size_mb"),
		CycleTarget:            v.GetInt("credits.cycle_target"),
		AutomaticDefaultCredit: v.GetInt("credits.automatic_default"),
		BridgeDedupeTTL:        dedupeTTL,
		SubmissionRateLimit:    v.GetInt("ratelimit.submissions"),
		SubmissionRateWindow:   rateWindow,
	}

	if requireSecret && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.CycleTarget <= 0 {
		cfg.CycleTarget = 150
	}

	if cfg.AutomaticDefaultCredit <= 0 {
		cfg.AutomaticDefaultCredit = 5
	}

	if cfg.DatabaseMaxRetries <= 0 {
		cfg.DatabaseMaxRetries = 1
	}

	return cfg, nil
}

// EvidenceUploadsEnabled reports whether object storage credentials were supplied.
func (c Config) EvidenceUploadsEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}

	return time.ParseDuration(value)
}
