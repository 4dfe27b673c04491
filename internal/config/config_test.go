package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func defaults() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func TestDefaults_AreValid(t *testing.T) {
	c := defaults()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if c.Escalation.UpcomingDays != 7 || c.Escalation.StaleDays != 14 {
		t.Fatalf("unexpected escalation windows: %+v", c.Escalation)
	}
	if c.Escalation.Interval != 24*time.Hour {
		t.Fatalf("interval = %s, want 24h", c.Escalation.Interval)
	}
	if c.Location() != time.UTC {
		t.Fatalf("location = %s, want UTC", c.Location())
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("ESCALATION_STALE_DAYS", "21")
	t.Setenv("CHANNEL_TIMEOUT", "3s")

	c := Load()
	if c.AppPort != "9090" {
		t.Fatalf("AppPort = %q", c.AppPort)
	}
	if c.DBDriver != DriverSQLite {
		t.Fatalf("DBDriver = %q", c.DBDriver)
	}
	if c.Escalation.StaleDays != 21 {
		t.Fatalf("StaleDays = %d", c.Escalation.StaleDays)
	}
	if c.ChannelTimeout != 3*time.Second {
		t.Fatalf("ChannelTimeout = %s", c.ChannelTimeout)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("smtp_host: mail.internal\nescalation_workers: 9\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	c := Load()
	if c.SMTP.Host != "mail.internal" {
		t.Fatalf("SMTP.Host = %q", c.SMTP.Host)
	}
	if c.Escalation.Workers != 9 {
		t.Fatalf("Workers = %d", c.Escalation.Workers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"missing port", func(c *Config) { c.AppPort = "" }, "APP_PORT"},
		{"missing mysql host", func(c *Config) { c.MySQLHost = "" }, "MySQL"},
		{"bad mysql port", func(c *Config) { c.MySQLPort = "notaport" }, "MYSQL_PORT"},
		{"postgres without dsn", func(c *Config) { c.DBDriver = DriverPostgres }, "POSTGRES_DSN"},
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }, "DB_DRIVER"},
		{"zero interval", func(c *Config) { c.Escalation.Interval = 0 }, "ESCALATION_INTERVAL"},
		{"zero stale window", func(c *Config) { c.Escalation.StaleDays = 0 }, "ESCALATION_STALE_DAYS"},
		{"bad timezone", func(c *Config) { c.Escalation.Timezone = "Mars/Olympus" }, "ESCALATION_TIMEZONE"},
		{"zero channel timeout", func(c *Config) { c.ChannelTimeout = 0 }, "CHANNEL_TIMEOUT"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := defaults()
			tc.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestDSN_PerDriver(t *testing.T) {
	c := defaults()
	if got := c.DSN(); !strings.Contains(got, "tcp(mysql:3306)/loancrm") || !strings.Contains(got, "parseTime=true") {
		t.Fatalf("mysql DSN = %q", got)
	}
	c.DBDriver = DriverPostgres
	c.PostgresDSN = "postgres://u:p@db:5432/loancrm"
	if c.DSN() != c.PostgresDSN {
		t.Fatalf("postgres DSN = %q", c.DSN())
	}
	c.DBDriver = DriverSQLite
	if c.DSN() != "loancrm.db" {
		t.Fatalf("sqlite DSN = %q", c.DSN())
	}
}
