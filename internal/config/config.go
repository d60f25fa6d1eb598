// Package config loads server settings. Values are layered: built-in
// defaults, then an optional YAML file, then NAJDENO_* environment variables,
// then command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NAJDENO_"

// ErrHelp is returned by Load when help was requested.
var ErrHelp = pflag.ErrHelp

// Config holds the server settings.
type Config struct {
	Database        string        `yaml:"database"`
	Addr            string        `yaml:"addr"`
	AdminEmail      string        `yaml:"admin_email"`
	AdminName       string        `yaml:"admin_name"`
	LogPath         string        `yaml:"log"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	MessageRate     float64       `yaml:"message_rate"`
	MessageBurst    int           `yaml:"message_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database:        "najdeno.sqlite3",
		Addr:            ":8080",
		AdminEmail:      "admin@najdeno.local",
		AdminName:       "Admin",
		MessageRate:     1,
		MessageBurst:    5,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load builds the configuration from args (without the program name) and
// the environment. Usage is written to out when -h is given.
func Load(args []string, getenv func(string) string, out io.Writer) (*Config, error) {
	def := Default()
	flags := def

	fs := pflag.NewFlagSet("najdeno", pflag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.StringP("config", "c", "", "YAML config file")
	fs.StringVarP(&flags.Database, "db", "d", def.Database, "SQLite database path")
	fs.StringVarP(&flags.Addr, "addr", "a", def.Addr, "listen address")
	fs.StringVarP(&flags.AdminEmail, "admin-email", "e", def.AdminEmail, "admin email on first run")
	fs.StringVarP(&flags.AdminName, "admin-name", "u", def.AdminName, "admin display name on first run")
	fs.StringVarP(&flags.LogPath, "log", "l", def.LogPath, "log file path (default: stdout/stderr only)")
	fs.StringSliceVar(&flags.CORSOrigins, "cors-origin", nil, "allowed browser origin (repeatable, default: any)")
	fs.Float64Var(&flags.MessageRate, "message-rate", def.MessageRate, "chat messages per second per user")
	fs.IntVar(&flags.MessageBurst, "message-burst", def.MessageBurst, "chat message burst per user")
	fs.DurationVar(&flags.ShutdownTimeout, "shutdown-timeout", def.ShutdownTimeout, "graceful shutdown timeout")
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: najdeno [flags]\n\nFlags:\n%s", fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	cfg := def

	path := *configPath
	if path == "" {
		path = getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "db":
			cfg.Database = flags.Database
		case "addr":
			cfg.Addr = flags.Addr
		case "admin-email":
			cfg.AdminEmail = flags.AdminEmail
		case "admin-name":
			cfg.AdminName = flags.AdminName
		case "log":
			cfg.LogPath = flags.LogPath
		case "cors-origin":
			cfg.CORSOrigins = flags.CORSOrigins
		case "message-rate":
			cfg.MessageRate = flags.MessageRate
		case "message-burst":
			cfg.MessageBurst = flags.MessageBurst
		case "shutdown-timeout":
			cfg.ShutdownTimeout = flags.ShutdownTimeout
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	var problems []string
	if c.Database == "" {
		problems = append(problems, "database path is empty")
	}
	if c.Addr == "" {
		problems = append(problems, "listen address is empty")
	}
	if !strings.Contains(c.AdminEmail, "@") {
		problems = append(problems, "admin email is invalid")
	}
	if c.MessageRate <= 0 {
		problems = append(problems, "message rate must be positive")
	}
	if c.MessageBurst < 1 {
		problems = append(problems, "message burst must be at least 1")
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, "shutdown timeout must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	str("DB", &cfg.Database)
	str("ADDR", &cfg.Addr)
	str("ADMIN_EMAIL", &cfg.AdminEmail)
	str("ADMIN_NAME", &cfg.AdminName)
	str("LOG", &cfg.LogPath)

	if v := getenv(EnvPrefix + "CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	if v := getenv(EnvPrefix + "MESSAGE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing %sMESSAGE_RATE: %w", EnvPrefix, err)
		}
		cfg.MessageRate = f
	}
	if v := getenv(EnvPrefix + "MESSAGE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %sMESSAGE_BURST: %w", EnvPrefix, err)
		}
		cfg.MessageBurst = n
	}
	if v := getenv(EnvPrefix + "SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %sSHUTDOWN_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}
