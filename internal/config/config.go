package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/tally/internal/common"
)

// EnvPrefix prefixes every environment variable read through viper,
// e.g. TALLY_DATABASE_PATH.
const EnvPrefix = "TALLY"

// Config is the resolved runtime configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Ledger   LedgerConfig
	Report   ReportConfig
	AMQP     AMQPConfig
	Logging  LoggingConfig
}

// DatabaseConfig locates the SQLite ledger.
type DatabaseConfig struct {
	Path string
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// TLS serves HTTPS with a self-signed localhost certificate kept in CertDir.
	TLS          bool
	CertDir      string
	// CORSOrigins are the browser origins allowed to call the API.
	CORSOrigins  []string
}

// LedgerConfig holds bookkeeping policy.
type LedgerConfig struct {
	EditWindow time.Duration
}

// ReportConfig controls how report periods are computed.
type ReportConfig struct {
	Timezone string
}

// AMQPConfig configures event publishing. An empty URL disables it.
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// DefaultDatabasePath returns the ledger location used when none is configured.
func DefaultDatabasePath() string {
	return "$HOME/.local/share/tally/tally.db"
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_dir", "$HOME/.config/tally/certs")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("ledger.edit_window", 12*time.Hour)
	v.SetDefault("report.timezone", "Local")
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "tally")
	v.SetDefault("amqp.routing_key", "ledger.events")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// BindEnv makes nested keys readable from TALLY_-prefixed variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load resolves the configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		Server: ServerConfig{
			Addr:         v.GetString("server.addr"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
			TLS:          v.GetBool("server.tls"),
			CertDir:      ExpandPath(v.GetString("server.cert_dir")),
			CORSOrigins:  v.GetStringSlice("server.cors_origins"),
		},
		Ledger: LedgerConfig{
			EditWindow: v.GetDuration("ledger.edit_window"),
		},
		Report: ReportConfig{
			Timezone: v.GetString("report.timezone"),
		},
		AMQP: AMQPConfig{
			URL:        v.GetString("amqp.url"),
			Exchange:   v.GetString("amqp.exchange"),
			RoutingKey: v.GetString("amqp.routing_key"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("logging.level")),
			Format: strings.ToLower(v.GetString("logging.format")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Database.Path == "" {
		problems = append(problems, "database.path cannot be empty")
	}

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr cannot be empty")
	}
	if c.Server.TLS && c.Server.CertDir == "" {
		problems = append(problems, "server.cert_dir cannot be empty when server.tls is set")
	}
	timeouts := []struct {
		key string
		d   time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.idle_timeout", c.Server.IdleTimeout},
	}
	for _, timeout := range timeouts {
		if timeout.d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got %s", timeout.key, timeout.d))
		}
	}

	if c.Ledger.EditWindow <= 0 {
		problems = append(problems, fmt.Sprintf("ledger.edit_window must be positive, got %s", c.Ledger.EditWindow))
	}

	if _, err := c.Report.Location(); err != nil {
		problems = append(problems, err.Error())
	}

	if c.AMQP.URL != "" {
		if parsed, err := url.Parse(c.AMQP.URL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid amqp.url: %v", err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid amqp.url scheme %q: must be amqp or amqps", parsed.Scheme))
		}
		if c.AMQP.Exchange == "" {
			problems = append(problems, "amqp.exchange cannot be empty when amqp.url is set")
		}
	}

	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("invalid logging.level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid logging.format %q: must be console or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n- %s", common.ErrInvalidConfig, strings.Join(problems, "\n- "))
	}
	return nil
}

// Location resolves the report timezone. "Local" and "" mean the process zone.
func (r ReportConfig) Location() (*time.Location, error) {
	switch r.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid report.timezone %q: %v", r.Timezone, err)
	}
	return loc, nil
}

// EnsureDir creates the directory holding the database file.
func (d DatabaseConfig) EnsureDir() error {
	if d.Path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(d.Path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}
	return nil
}
