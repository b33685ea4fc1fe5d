package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	DatabaseDriver  string
	MigrateOnStart  bool
	JWTSecret       string
	SessionTTL      time.Duration
	AllowOrigins    []string
	LogLevel        string
	LogstashTCPAddr string
	FrontendBaseURL string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPUseTLS   bool
	MailFromName string

	PasswordResetTTL         time.Duration
	PasswordResetTokenLength int
	PasswordMinLength        int
	PasswordRequireMixed     bool
	ResetRateLimit           int
	ResetRateWindow          time.Duration
	ResetIPRateLimit         int
	ResetResponseFloor       time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIORegion        string
	MinIOBucketProfile string
	MinIOPublicURL     string
	AvatarMaxBytes     int64
	AvatarMaxDimension int
}

const (
	defaultResetTokenLength = 48
	minResetTokenLength     = 32
)

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	tokenLen := getint("PASSWORD_RESET_TOKEN_LENGTH", defaultResetTokenLength)
	if tokenLen < minResetTokenLength {
		tokenLen = minResetTokenLength
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		DatabaseDriver:  getenv("DATABASE_DRIVER", "pgx"),
		MigrateOnStart:  getbool("MIGRATE_ON_START", true),
		JWTSecret:       must("JWT_SECRET"),
		SessionTTL:      getduration("SESSION_TTL", 24*time.Hour),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),
		FrontendBaseURL: strings.TrimRight(getenv("FRONTEND_BASE_URL", "http://localhost:8080"), "/"),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", "587"),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),
		SMTPUseTLS:   getbool("SMTP_USE_TLS", false),
		MailFromName: getenv("MAIL_FROM_NAME", "Rivaq"),

		PasswordResetTTL:         getduration("PASSWORD_RESET_TTL", time.Hour),
		PasswordResetTokenLength: tokenLen,
		PasswordMinLength:        getint("PASSWORD_MIN_LENGTH", 6),
		PasswordRequireMixed:     getbool("PASSWORD_REQUIRE_MIXED", false),
		ResetRateLimit:           getint("RESET_RATE_LIMIT", 5),
		ResetRateWindow:          getduration("RESET_RATE_WINDOW", 15*time.Minute),
		ResetIPRateLimit:         getint("RESET_IP_RATE_LIMIT", 20),
		ResetResponseFloor:       getduration("RESET_RESPONSE_FLOOR", 250*time.Millisecond),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getint("REDIS_DB", 0),

		MinIOEndpoint:      getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        getbool("MINIO_USE_SSL", false),
		MinIORegion:        getenv("MINIO_REGION", ""),
		MinIOBucketProfile: getenv("MINIO_BUCKET_PROFILE", "rivaq-avatars"),
		MinIOPublicURL:     getenv("MINIO_PUBLIC_URL", ""),
		AvatarMaxBytes:     int64(getint("AVATAR_MAX_BYTES", 5*1024*1024)),
		AvatarMaxDimension: getint("AVATAR_MAX_DIMENSION", 512),
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k)))
	if err != nil || v <= 0 {
		return d
	}
	return v
}

func getbool(k string, d bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(k)))
	if err != nil {
		return d
	}
	return v
}

func getduration(k string, d time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k)))
	if err != nil || v <= 0 {
		return d
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
