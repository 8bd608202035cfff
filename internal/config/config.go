package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	JWTSecret     string
	AdminUser     string
	AdminPass     string
	AdminEmail    string
	DBPath        string
	SecureCookies bool

	JWTExpiryHours int
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Account lockout engine
	LockoutMaxAttempts int
	LockoutWindowHours int

	// Retention, enforced by the maintenance sweeper
	ActivityRetentionDays int
	SecurityRetentionDays int
	BackupDir             string
	BackupRetentionDays   int

	MetricsEnabled bool

	// Lockout alert notifications
	WebhookURL    string
	WebhookFormat string
	SMTPHost      string
	SMTPPort      int
	SMTPFrom      string
	SMTPUsername  string
	SMTPPassword  string

	TOTPIssuer string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("APP_PORT", "3000"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminUser:     getEnv("ADMIN_USER", "admin"),
		AdminPass:     getEnv("ADMIN_PASS", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		DBPath:        getEnv("DB_PATH", "./motoshop.db"),
		SecureCookies: getEnv("SECURE_COOKIES", "false") == "true",

		JWTExpiryHours: getEnvInt("JWT_EXPIRY_HOURS", 8),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		LockoutMaxAttempts: getEnvInt("LOCKOUT_MAX_ATTEMPTS", 5),
		LockoutWindowHours: getEnvInt("LOCKOUT_WINDOW_HOURS", 12),

		ActivityRetentionDays: getEnvInt("ACTIVITY_RETENTION_DAYS", 90),
		SecurityRetentionDays: getEnvInt("SECURITY_RETENTION_DAYS", 365),
		BackupDir:             getEnv("BACKUP_DIR", "./backups"),
		BackupRetentionDays:   getEnvInt("BACKUP_RETENTION_DAYS", 30),

		MetricsEnabled: getEnv("METRICS_ENABLED", "false") == "true",

		WebhookURL:    getEnv("WEBHOOK_URL", ""),
		WebhookFormat: getEnv("WEBHOOK_FORMAT", "discord"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPFrom:      getEnv("SMTP_FROM", ""),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),

		TOTPIssuer: getEnv("TOTP_ISSUER", "MotoShop"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminPass == "" {
		return nil, fmt.Errorf("ADMIN_PASS is required")
	}
	if len(cfg.AdminPass) < 8 {
		log.Println("WARNING: ADMIN_PASS is shorter than 8 characters; use a stronger password in production")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters; use a longer secret in production")
	}

	if cfg.LockoutMaxAttempts < 1 {
		log.Printf("WARNING: LOCKOUT_MAX_ATTEMPTS=%d is invalid, using 5", cfg.LockoutMaxAttempts)
		cfg.LockoutMaxAttempts = 5
	}
	if cfg.LockoutWindowHours < 1 {
		log.Printf("WARNING: LOCKOUT_WINDOW_HOURS=%d is invalid, using 12", cfg.LockoutWindowHours)
		cfg.LockoutWindowHours = 12
	}

	if cfg.BackupDir != "" {
		if err := os.MkdirAll(cfg.BackupDir, 0750); err != nil {
			log.Printf("WARNING: could not create BACKUP_DIR %q: %v", cfg.BackupDir, err)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
