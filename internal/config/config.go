package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppPort  string
	LogLevel string

	DBDriver    string
	MySQLHost   string
	MySQLPort   string
	MySQLDB     string
	MySQLUser   string
	MySQLPass   string
	PostgresDSN string
	SQLitePath  string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int
	JWTSecret    string

	SMTP SMTPConfig

	Escalation EscalationConfig

	// per-channel bulkhead for push and email delivery
	ChannelTimeout time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type EscalationConfig struct {
	Interval     time.Duration
	UpcomingDays int
	StaleDays    int
	Workers      int
	LockTTL      time.Duration
	Timezone     string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", DriverMySQL)
	v.SetDefault("MYSQL_HOST", "mysql")
	v.SetDefault("MYSQL_PORT", "3306")
	v.SetDefault("MYSQL_DB", "loancrm")
	v.SetDefault("MYSQL_USER", "loancrm")
	v.SetDefault("MYSQL_PASS", "loancrm")
	v.SetDefault("SQLITE_PATH", "loancrm.db")
	v.SetDefault("REDIS_ADDR", "redis:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IDEMPOTENCY_TTL_SECONDS", 300)
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "noreply@loancrm.local")
	v.SetDefault("ESCALATION_INTERVAL", "24h")
	v.SetDefault("ESCALATION_UPCOMING_DAYS", 7)
	v.SetDefault("ESCALATION_STALE_DAYS", 14)
	v.SetDefault("ESCALATION_WORKERS", 4)
	v.SetDefault("ESCALATION_LOCK_TTL", "30m")
	v.SetDefault("ESCALATION_TIMEZONE", "UTC")
	v.SetDefault("CHANNEL_TIMEOUT", "10s")
}

// Load reads .env (optional), then an optional YAML file named by CONFIG_FILE,
// then the process environment, which wins over both.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	if f := os.Getenv("CONFIG_FILE"); f != "" {
		v.SetConfigFile(f)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			log.Printf("config: %s not loaded: %v", f, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		AppPort:  v.GetString("APP_PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DBDriver:    strings.ToLower(v.GetString("DB_DRIVER")),
		MySQLHost:   v.GetString("MYSQL_HOST"),
		MySQLPort:   v.GetString("MYSQL_PORT"),
		MySQLDB:     v.GetString("MYSQL_DB"),
		MySQLUser:   v.GetString("MYSQL_USER"),
		MySQLPass:   v.GetString("MYSQL_PASS"),
		PostgresDSN: v.GetString("POSTGRES_DSN"),
		SQLitePath:  v.GetString("SQLITE_PATH"),

		RedisAddr: v.GetString("REDIS_ADDR"),
		RedisDB:   v.GetInt("REDIS_DB"),

		IdempTTLSecs: v.GetInt("IDEMPOTENCY_TTL_SECONDS"),
		JWTSecret:    v.GetString("JWT_SECRET"),

		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},

		Escalation: EscalationConfig{
			Interval:     v.GetDuration("ESCALATION_INTERVAL"),
			UpcomingDays: v.GetInt("ESCALATION_UPCOMING_DAYS"),
			StaleDays:    v.GetInt("ESCALATION_STALE_DAYS"),
			Workers:      v.GetInt("ESCALATION_WORKERS"),
			LockTTL:      v.GetDuration("ESCALATION_LOCK_TTL"),
			Timezone:     v.GetString("ESCALATION_TIMEZONE"),
		},

		ChannelTimeout: v.GetDuration("CHANNEL_TIMEOUT"),
	}
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.Escalation.Interval <= 0 {
		return errors.New("ESCALATION_INTERVAL must be positive")
	}
	if c.Escalation.UpcomingDays <= 0 || c.Escalation.StaleDays <= 0 {
		return errors.New("ESCALATION_UPCOMING_DAYS and ESCALATION_STALE_DAYS must be positive")
	}
	if _, err := time.LoadLocation(c.Escalation.Timezone); err != nil {
		return fmt.Errorf("invalid ESCALATION_TIMEZONE %q: %w", c.Escalation.Timezone, err)
	}
	if c.ChannelTimeout <= 0 {
		return errors.New("CHANNEL_TIMEOUT must be positive")
	}
	return nil
}

// Location returns the zone used to decide what "today" means for escalation scans.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Escalation.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN renders the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case DriverPostgres:
		return c.PostgresDSN
	case DriverSQLite:
		return c.SQLitePath
	default:
		return c.MySQLDSN()
	}
}
