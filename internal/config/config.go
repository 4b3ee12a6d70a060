package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/tokligence/tokligence-datastream/internal/datastream"
	"github.com/tokligence/tokligence-datastream/internal/source"
)

const (
	settingsFile     = "config/setting.ini"
	defaultEnv       = "dev"
	envConfigPattern = "config/%s/datastream.ini"
	envPrefix        = "DATASTREAM_"

	DefaultChunkSize   = 16
	DefaultLogMaxBytes = 10 << 20
)

// Ledger drivers.
const (
	LedgerSQLite   = "sqlite"
	LedgerPostgres = "postgres"
)

// Config describes runtime options for the datastream CLI.
type Config struct {
	Environment string
	LogLevel    string
	// LogFile is the logical rotating log path; empty logs to stderr only, "-" discards file output.
	LogFile     string
	LogMaxBytes int64
	// Encoding defaults; CLI flags take precedence.
	Mode         datastream.Mode
	ChunkSize    int
	SourceFormat source.Format
	// Usage ledger.
	LedgerEnabled bool
	LedgerDriver  string
	LedgerPath    string
	LedgerDSN     string
}

// Load reads config/setting.ini to pick the environment, layers
// config/<env>/datastream.ini on top and applies DATASTREAM_* overrides.
// Missing files are not an error.
func Load(root string) (Config, error) {
	if root == "" {
		root = "."
	}
	opts := ini.LoadOptions{Insensitive: true, Loose: true}
	settingsPath := filepath.Join(root, settingsFile)

	base, err := ini.LoadSources(opts, settingsPath)
	if err != nil {
		return Config{}, fmt.Errorf("load %s: %w", settingsPath, err)
	}
	env := firstNonEmpty(os.Getenv(envPrefix+"ENVIRONMENT"), base.Section("").Key("environment").String(), defaultEnv)

	envPath := filepath.Join(root, fmt.Sprintf(envConfigPattern, env))
	file, err := ini.LoadSources(opts, settingsPath, envPath)
	if err != nil {
		return Config{}, fmt.Errorf("load %s: %w", envPath, err)
	}
	return fromFile(env, file)
}

func fromFile(env string, file *ini.File) (Config, error) {
	sec := file.Section("")
	get := func(key string) string {
		return firstNonEmpty(os.Getenv(envPrefix+strings.ToUpper(key)), sec.Key(key).String())
	}

	cfg := Config{
		Environment:   env,
		LogLevel:      strings.ToLower(firstNonEmpty(get("log_level"), "info")),
		LogFile:       get("log_file"),
		LedgerEnabled: parseBool(get("ledger_enabled")),
		LedgerDriver:  strings.ToLower(firstNonEmpty(get("ledger_driver"), LedgerSQLite)),
		LedgerPath:    firstNonEmpty(get("ledger_path"), DefaultLedgerPath()),
		LedgerDSN:     get("ledger_dsn"),
	}

	var err error
	if cfg.Mode, err = datastream.ParseMode(firstNonEmpty(get("mode"), string(datastream.ModeToolCalls))); err != nil {
		return Config{}, fmt.Errorf("invalid mode: %w", err)
	}
	if cfg.SourceFormat, err = source.ParseFormat(get("source_format")); err != nil {
		return Config{}, fmt.Errorf("invalid source_format: %w", err)
	}
	if v := get("chunk_size"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid chunk_size %q: must be a positive integer", v)
		}
		cfg.ChunkSize = n
	} else {
		cfg.ChunkSize = DefaultChunkSize
	}
	if v := get("log_max_bytes"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid log_max_bytes %q", v)
		}
		cfg.LogMaxBytes = n
	} else {
		cfg.LogMaxBytes = DefaultLogMaxBytes
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return Config{}, fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if err := cfg.validateLedger(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validateLedger() error {
	switch c.LedgerDriver {
	case LedgerSQLite:
		return nil
	case LedgerPostgres:
		if c.LedgerEnabled && c.LedgerDSN == "" {
			return errors.New("ledger_dsn is required when ledger_driver=postgres")
		}
		return nil
	default:
		return fmt.Errorf("invalid ledger_driver %q", c.LedgerDriver)
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// DefaultLedgerPath returns ~/.tokligence/datastream-ledger.db, or a relative
// file when the home directory is unknown.
func DefaultLedgerPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "datastream-ledger.db"
	}
	return filepath.Join(home, ".tokligence", "datastream-ledger.db")
}
