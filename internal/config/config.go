// Package config loads and normalises LearnUp configuration files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/learnup/learnup/logging"
)

const (
	defaultAddr            = "127.0.0.1"
	defaultPort            = ":4173"
	defaultAPIBase         = "http://localhost:8000"
	defaultAPITimeout      = 10
	defaultAssetsDir       = "ui"
	defaultLogLevel        = "info"
	defaultLogMaxSizeMB    = 10
	defaultLogMaxFiles     = 5
	defaultDevAPIAddr      = "127.0.0.1"
	defaultDevAPIPort      = ":8000"
	defaultSessionTTL      = 14 * 24 * 60 * 60
	defaultSessionCookie   = "sessionid"
	defaultDevAPIUIOrigins = "http://127.0.0.1:4173,http://localhost:4173"
)

// Environment variables that override file settings.
const (
	EnvAPIBase       = "LEARNUP_API_BASE"
	EnvListen        = "LEARNUP_LISTEN"
	EnvLogLevel      = "LEARNUP_LOG_LEVEL"
	EnvLogDir        = "LEARNUP_LOG_DIR"
	EnvSessionSecret = "LEARNUP_SESSION_SECRET"
)

var (
	// ErrInvalidAPIBase is returned when the backend URL is not an absolute http(s) URL.
	ErrInvalidAPIBase = errors.New("invalid api base url")
	// ErrInvalidListen is returned when a listen address cannot be parsed.
	ErrInvalidListen = errors.New("invalid listen address")
	// ErrInvalidLogLevel is returned for an unknown log level name.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// ServerConfig configures an HTTP listener.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	Port string `json:"port" yaml:"port"`
}

// Listen returns the address passed to http.Server.
func (s ServerConfig) Listen() string {
	port := s.Port
	if port != "" && !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return s.Addr + port
}

// APIConfig points the front ends at the users backend.
type APIConfig struct {
	BaseURL        string `json:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// AppConfig configures server-rendered templates and static assets. An empty
// Templates uses the embedded set.
type AppConfig struct {
	Templates string `json:"templates" yaml:"templates"`
	Assets    string `json:"assets" yaml:"assets"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level     string `json:"level" yaml:"level"`
	Dir       string `json:"dir" yaml:"dir"`
	MaxSizeMB int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxFiles  int    `json:"max_files" yaml:"max_files"`
}

// ParsedLevel returns the configured level.
func (l LoggingConfig) ParsedLevel() logging.Level {
	level, _ := logging.ParseLevel(l.Level)
	return level
}

// DevAPIConfig configures the local development backend.
type DevAPIConfig struct {
	Server            ServerConfig `json:"server" yaml:"server"`
	AllowedOrigins    []string     `json:"allowed_origins" yaml:"allowed_origins"`
	SessionSecret     string       `json:"session_secret" yaml:"session_secret"`
	SessionTTLSeconds int          `json:"session_ttl_seconds" yaml:"session_ttl_seconds"`
	SessionCookie     string       `json:"session_cookie" yaml:"session_cookie"`
	UsersFile         string       `json:"users_file" yaml:"users_file"`
}

// SessionTTL returns the session lifetime as a duration.
func (d DevAPIConfig) SessionTTL() time.Duration {
	return time.Duration(d.SessionTTLSeconds) * time.Second
}

// Config represents the combined runtime settings.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	API     APIConfig     `json:"api" yaml:"api"`
	App     AppConfig     `json:"app" yaml:"app"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	DevAPI  DevAPIConfig  `json:"dev_api" yaml:"dev_api"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing files
// are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the config at path (JSON, or YAML for .yaml/.yml files), applies
// defaults then environment overrides, and validates the result. An empty path
// skips the file.
func Load(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	c.API.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBase
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultAPITimeout
	}
	if c.App.Assets == "" {
		c.App.Assets = defaultAssetsDir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxFiles <= 0 {
		c.Logging.MaxFiles = defaultLogMaxFiles
	}
	if c.DevAPI.Server.Addr == "" {
		c.DevAPI.Server.Addr = defaultDevAPIAddr
	}
	if c.DevAPI.Server.Port == "" {
		c.DevAPI.Server.Port = defaultDevAPIPort
	}
	if len(c.DevAPI.AllowedOrigins) == 0 {
		c.DevAPI.AllowedOrigins = strings.Split(defaultDevAPIUIOrigins, ",")
	}
	if c.DevAPI.SessionTTLSeconds <= 0 {
		c.DevAPI.SessionTTLSeconds = defaultSessionTTL
	}
	if c.DevAPI.SessionCookie == "" {
		c.DevAPI.SessionCookie = defaultSessionCookie
	}
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBase)); v != "" {
		c.API.BaseURL = strings.TrimSuffix(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidListen, v, err)
		}
		c.Server.Addr = host
		c.Server.Port = ":" + port
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogDir)); v != "" {
		c.Logging.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSessionSecret)); v != "" {
		c.DevAPI.SessionSecret = v
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAPIBase, c.API.BaseURL)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	for _, srv := range []ServerConfig{c.Server, c.DevAPI.Server} {
		if err := validatePort(srv.Port); err != nil {
			return err
		}
	}
	return nil
}

func validatePort(port string) error {
	raw := strings.TrimPrefix(port, ":")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("%w: port %q", ErrInvalidListen, port)
	}
	return nil
}
