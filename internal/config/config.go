// Package config loads the catalog server configuration from command-line
// flags, environment variables, a .env file, and an optional YAML file.
package config

import (
	"bufio"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Data        DataConfig
	Server      ServerConfig
	Auth        AuthConfig
	Search      SearchConfig
	OpenLibrary OpenLibraryConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level     string
	Format    string // json or pretty; empty picks by environment
	AddSource bool
}

// DataConfig holds on-disk locations. Derived paths default to children of
// BasePath.
type DataConfig struct {
	BasePath     string
	DatabasePath string // {base}/catalog.db
	IndexPath    string // {base}/search
	CachePath    string // {base}/cache/openlibrary
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// AuthConfig holds bearer token configuration.
type AuthConfig struct {
	// AccessTokenKey is the PASETO v4 symmetric key (32 bytes). When not
	// configured it is loaded or generated under the data directory.
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration
}

// SearchConfig holds search orchestration settings.
type SearchConfig struct {
	PromoteAllExternal bool
	ReindexOnStartup   bool
	ReindexBatchSize   int
	// Inbound search rate limit per client IP.
	RateLimitRPS   float64
	RateLimitBurst int
}

// OpenLibraryConfig holds the external source adapter settings.
type OpenLibraryConfig struct {
	Enabled           bool
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	CacheEnabled      bool
	CacheTTL          time.Duration
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds a Config with this precedence, highest first:
//  1. Command-line flags.
//  2. Environment variables.
//  3. .env file.
//  4. YAML config file (-config or CONFIG_FILE).
//  5. Default values.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("catalog-server", flag.ContinueOnError)

	flags := map[string]*string{}
	for _, s := range settings {
		if s.flag != "" {
			flags[s.flag] = fs.String(s.flag, "", s.usage)
		}
	}
	envFile := fs.String("env-file", ".env", "Path to .env file")
	configFile := fs.String("config", "", "Path to YAML config file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// A missing .env file is not an error.
	if err := loadEnvFile(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	path := *configFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	file, err := loadYAMLFile(path)
	if err != nil {
		return nil, err
	}

	src := &source{flags: flags, file: file}
	cfg, err := src.build()
	if err != nil {
		return nil, err
	}

	if err := cfg.expandDataPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// setting names one value in every layer.
type setting struct {
	flag  string
	env   string
	file  string // dotted YAML path
	def   string
	usage string
}

var settings = []setting{
	{"env", "ENV", "app.environment", "development", "Environment (development, staging, production)"},
	{"log-level", "LOG_LEVEL", "logger.level", "info", "Log level (debug, info, warn, error)"},
	{"log-format", "LOG_FORMAT", "logger.format", "", "Log format (json, pretty)"},
	{"log-source", "LOG_ADD_SOURCE", "logger.add_source", "false", "Include source locations in logs"},
	{"data-path", "DATA_PATH", "data.base_path", "", "Base path for catalog data"},
	{"db-path", "DB_PATH", "data.database_path", "", "SQLite database file"},
	{"index-path", "INDEX_PATH", "data.index_path", "", "Search index directory"},
	{"cache-path", "CACHE_PATH", "data.cache_path", "", "OpenLibrary response cache directory"},
	{"port", "SERVER_PORT", "server.port", "8080", "Server port"},
	{"read-timeout", "SERVER_READ_TIMEOUT", "server.read_timeout", "15s", "HTTP read timeout"},
	{"write-timeout", "SERVER_WRITE_TIMEOUT", "server.write_timeout", "30s", "HTTP write timeout"},
	{"idle-timeout", "SERVER_IDLE_TIMEOUT", "server.idle_timeout", "60s", "HTTP idle timeout"},
	{"shutdown-timeout", "SERVER_SHUTDOWN_TIMEOUT", "server.shutdown_timeout", "30s", "Graceful shutdown timeout"},
	{"cors-origins", "CORS_ORIGINS", "server.cors_origins", "*", "Comma-separated allowed CORS origins"},
	{"auth-key", "AUTH_KEY", "auth.key", "", "Hex-encoded PASETO v4 key (64 hex chars)"},
	{"access-token-duration", "ACCESS_TOKEN_DURATION", "auth.access_token_duration", "24h", "Access token lifetime"},
	{"promote-all-external", "SEARCH_PROMOTE_ALL_EXTERNAL", "search.promote_all_external", "false", "Promote every external hit instead of the first"},
	{"reindex-on-startup", "SEARCH_REINDEX_ON_STARTUP", "search.reindex_on_startup", "true", "Rebuild an empty index from the store at startup"},
	{"reindex-batch-size", "SEARCH_REINDEX_BATCH_SIZE", "search.reindex_batch_size", "200", "Books per reindex batch"},
	{"search-rps", "SEARCH_RATE_LIMIT_RPS", "search.rate_limit_rps", "10", "Search requests per second per client"},
	{"search-burst", "SEARCH_RATE_LIMIT_BURST", "search.rate_limit_burst", "20", "Search burst per client"},
	{"openlibrary-enabled", "OPENLIBRARY_ENABLED", "openlibrary.enabled", "true", "Use OpenLibrary as the external tier"},
	{"openlibrary-url", "OPENLIBRARY_BASE_URL", "openlibrary.base_url", "https://openlibrary.org", "OpenLibrary base URL"},
	{"openlibrary-user-agent", "OPENLIBRARY_USER_AGENT", "openlibrary.user_agent", "catalog-server/1.0", "User-Agent for OpenLibrary requests"},
	{"openlibrary-timeout", "OPENLIBRARY_TIMEOUT", "openlibrary.timeout", "10s", "OpenLibrary request timeout"},
	{"openlibrary-rps", "OPENLIBRARY_RPS", "openlibrary.requests_per_second", "1", "OpenLibrary requests per second"},
	{"openlibrary-burst", "OPENLIBRARY_BURST", "openlibrary.burst", "3", "OpenLibrary burst"},
	{"openlibrary-cache", "OPENLIBRARY_CACHE_ENABLED", "openlibrary.cache_enabled", "true", "Cache OpenLibrary responses"},
	{"openlibrary-cache-ttl", "OPENLIBRARY_CACHE_TTL", "openlibrary.cache_ttl", "24h", "OpenLibrary cache TTL"},
}

// source resolves settings across layers.
type source struct {
	flags map[string]*string
	file  map[string]string
	err   error
}

func lookupSetting(flagName string) setting {
	for _, s := range settings {
		if s.flag == flagName {
			return s
		}
	}
	panic("config: unknown setting " + flagName)
}

// str returns the first non-empty value from flag, env var, file, or default.
func (s *source) str(flagName string) string {
	st := lookupSetting(flagName)
	var flagValue string
	if p := s.flags[st.flag]; p != nil {
		flagValue = *p
	}
	return getConfigValue(flagValue, st.env, s.file[st.file], st.def)
}

func (s *source) boolean(flagName string) bool {
	if s.err != nil {
		return false
	}
	v, err := parseBool(s.str(flagName))
	if err != nil {
		s.err = fmt.Errorf("invalid %s: %w", flagName, err)
	}
	return v
}

func (s *source) integer(flagName string) int {
	if s.err != nil {
		return 0
	}
	raw := s.str(flagName)
	v, err := strconv.Atoi(raw)
	if err != nil {
		s.err = fmt.Errorf("invalid %s %q: %w", flagName, raw, err)
	}
	return v
}

func (s *source) float(flagName string) float64 {
	if s.err != nil {
		return 0
	}
	raw := s.str(flagName)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.err = fmt.Errorf("invalid %s %q: %w", flagName, raw, err)
	}
	return v
}

func (s *source) duration(flagName string) time.Duration {
	if s.err != nil {
		return 0
	}
	raw := s.str(flagName)
	v, err := time.ParseDuration(raw)
	if err != nil {
		s.err = fmt.Errorf("invalid %s %q: %w", flagName, raw, err)
	}
	return v
}

func (s *source) build() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Environment: s.str("env"),
		},
		Logger: LoggerConfig{
			Level:     s.str("log-level"),
			Format:    s.str("log-format"),
			AddSource: s.boolean("log-source"),
		},
		Data: DataConfig{
			BasePath:     s.str("data-path"),
			DatabasePath: s.str("db-path"),
			IndexPath:    s.str("index-path"),
			CachePath:    s.str("cache-path"),
		},
		Server: ServerConfig{
			Port:            s.str("port"),
			ReadTimeout:     s.duration("read-timeout"),
			WriteTimeout:    s.duration("write-timeout"),
			IdleTimeout:     s.duration("idle-timeout"),
			ShutdownTimeout: s.duration("shutdown-timeout"),
			CORSOrigins:     splitList(s.str("cors-origins")),
		},
		Auth: AuthConfig{
			AccessTokenDuration: s.duration("access-token-duration"),
		},
		Search: SearchConfig{
			PromoteAllExternal: s.boolean("promote-all-external"),
			ReindexOnStartup:   s.boolean("reindex-on-startup"),
			ReindexBatchSize:   s.integer("reindex-batch-size"),
			RateLimitRPS:       s.float("search-rps"),
			RateLimitBurst:     s.integer("search-burst"),
		},
		OpenLibrary: OpenLibraryConfig{
			Enabled:           s.boolean("openlibrary-enabled"),
			BaseURL:           s.str("openlibrary-url"),
			UserAgent:         s.str("openlibrary-user-agent"),
			Timeout:           s.duration("openlibrary-timeout"),
			RequestsPerSecond: s.float("openlibrary-rps"),
			Burst:             s.integer("openlibrary-burst"),
			CacheEnabled:      s.boolean("openlibrary-cache"),
			CacheTTL:          s.duration("openlibrary-cache-ttl"),
		},
	}
	if s.err != nil {
		return nil, s.err
	}

	if keyHex := s.str("auth-key"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid auth key: not valid hex: %w", err)
		}
		cfg.Auth.AccessTokenKey = key
	}

	return cfg, nil
}

var (
	validEnvironments = map[string]bool{"development": true, "staging": true, "production": true}
	validLevels       = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats      = map[string]bool{"": true, "json": true, "pretty": true}
)

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}
	if !validEnvironments[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if !validFormats[c.Logger.Format] {
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}

	if c.Auth.AccessTokenKey != nil && len(c.Auth.AccessTokenKey) != 32 {
		return fmt.Errorf("auth key must be 32 bytes, got %d", len(c.Auth.AccessTokenKey))
	}
	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("access token duration must be positive")
	}

	if c.Search.ReindexBatchSize < 1 {
		return fmt.Errorf("reindex batch size must be at least 1, got %d", c.Search.ReindexBatchSize)
	}
	if c.Search.RateLimitRPS <= 0 || c.Search.RateLimitBurst < 1 {
		return errors.New("search rate limit must be positive")
	}

	if c.OpenLibrary.Enabled {
		if c.OpenLibrary.BaseURL == "" {
			return errors.New("openlibrary base url is required when enabled")
		}
		if c.OpenLibrary.Timeout <= 0 {
			return errors.New("openlibrary timeout must be positive")
		}
		if c.OpenLibrary.RequestsPerSecond <= 0 || c.OpenLibrary.Burst < 1 {
			return errors.New("openlibrary rate limit must be positive")
		}
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, uses defaultPath as is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPaths resolves the base path (default ~/Catalog/data) and
// derives unset child paths from it.
func (c *Config) expandDataPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	base, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, "Catalog", "data"))
	if err != nil {
		return err
	}
	c.Data.BasePath = base

	for _, p := range []struct {
		target *string
		def    string
	}{
		{&c.Data.DatabasePath, filepath.Join(base, "catalog.db")},
		{&c.Data.IndexPath, filepath.Join(base, "search")},
		{&c.Data.CachePath, filepath.Join(base, "cache", "openlibrary")},
	} {
		expanded, err := expandPath(*p.target, p.def)
		if err != nil {
			return err
		}
		*p.target = expanded
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var,
// config file, or default.
func getConfigValue(flagValue, envKey, fileValue, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// parseBool accepts true/false, 1/0, yes/no and on/off in any case.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadYAMLFile reads a YAML config file and flattens it into dotted keys.
// An empty path yields no values.
func loadYAMLFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	raw, err := os.ReadFile(path) //#nosec G304 -- config file path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	out := make(map[string]string)
	flatten("", tree, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := strings.ToLower(k)
		if prefix != "" {
			key = prefix + "." + key
		}
		switch v := v.(type) {
		case map[string]any:
			flatten(key, v, out)
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			out[key] = strings.Join(parts, ",")
		case nil:
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
