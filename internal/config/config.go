package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/sla"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	SLA      SLAConfig
	Reports  ReportsConfig
	Notify   NotificationConfig
}

// NotificationConfig holds outbound notification settings. Empty values
// disable the matching channel stub.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// SLAConfig describes the business calendar and the per-priority targets.
// Values are explicit configuration, never ambient globals, so deployments
// can run distinct calendars and tests can use synthetic ones.
type SLAConfig struct {
	WorkDays      []time.Weekday
	WorkStartHour int
	WorkEndHour   int
	Targets       map[domain.TicketPriority]sla.Targets
	SweepCronSpec string
}

// ReportsConfig tunes the reporting collaborator.
type ReportsConfig struct {
	DashboardCacheTTLSeconds int
	ExportLimit              int
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	workDays, err := parseWorkDays(getEnv("SLA_WORK_DAYS", "1,2,3,4,5"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "clinic-helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		SLA: SLAConfig{
			WorkDays:      workDays,
			WorkStartHour: getEnvAsInt("SLA_WORK_START_HOUR", 8),
			WorkEndHour:   getEnvAsInt("SLA_WORK_END_HOUR", 17),
			Targets: map[domain.TicketPriority]sla.Targets{
				domain.TicketPriorityUrgent: {
					ResponseMinutes:   getEnvAsInt("SLA_URGENT_RESPONSE_MIN", 15),
					ResolutionMinutes: getEnvAsInt("SLA_URGENT_RESOLUTION_MIN", 120),
				},
				domain.TicketPriorityHigh: {
					ResponseMinutes:   getEnvAsInt("SLA_HIGH_RESPONSE_MIN", 30),
					ResolutionMinutes: getEnvAsInt("SLA_HIGH_RESOLUTION_MIN", 240),
				},
				domain.TicketPriorityMedium: {
					ResponseMinutes:   getEnvAsInt("SLA_MEDIUM_RESPONSE_MIN", 60),
					ResolutionMinutes: getEnvAsInt("SLA_MEDIUM_RESOLUTION_MIN", 480),
				},
				domain.TicketPriorityLow: {
					ResponseMinutes:   getEnvAsInt("SLA_LOW_RESPONSE_MIN", 120),
					ResolutionMinutes: getEnvAsInt("SLA_LOW_RESOLUTION_MIN", 1440),
				},
			},
			SweepCronSpec: getEnv("SLA_SWEEP_CRON", "*/5 * * * *"),
		},
		Reports: ReportsConfig{
			DashboardCacheTTLSeconds: getEnvAsInt("REPORTS_CACHE_TTL_SECONDS", 60),
			ExportLimit:              getEnvAsInt("REPORTS_EXPORT_LIMIT", 1000),
		},
		Notify: NotificationConfig{
			EmailFrom:  os.Getenv("NOTIFY_EMAIL_FROM"),
			WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		},
	}

	return cfg, nil
}

// Calendar builds the configured business calendar.
func (s SLAConfig) Calendar() (sla.Calendar, error) {
	return sla.NewCalendar(s.WorkDays, s.WorkStartHour, s.WorkEndHour)
}

// Policy builds the configured SLA policy table.
func (s SLAConfig) Policy() (sla.Policy, error) {
	return sla.NewPolicy(s.Targets)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns the dashboard cache duration.
func (r ReportsConfig) CacheTTL() time.Duration {
	return time.Duration(r.DashboardCacheTTLSeconds) * time.Second
}

func parseWorkDays(val string) ([]time.Weekday, error) {
	parts := strings.Split(val, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid SLA_WORK_DAYS entry %q", part)
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
