// Package config provides configuration for the sdapi command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the sdapi configuration.
type Config struct {
	// Debugger connection
	Hostname  string        `yaml:"hostname"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	ClientID  string        `yaml:"client_id"`
	Timeout   time.Duration `yaml:"-"`
	TimeoutMs int           `yaml:"timeout_ms"`
	// Insecure skips TLS verification, for the sandbox's self-signed certificate.
	Insecure bool `yaml:"insecure"`

	// Sandbox settings
	SandboxPort        int    `yaml:"sandbox_port"`
	SandboxDatabaseURL string `yaml:"sandbox_database_url"`
	SandboxPolicy      string `yaml:"sandbox_policy"` // rego file; empty uses the built-in policy

	Logger LoggerConfig `yaml:"logger"`
	Tracer TracerConfig `yaml:"tracer"`
}

// LoggerConfig configures structured logging.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // stdout, stderr or a file path
}

// TracerConfig configures tracing.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // noop or stdout
}

// DefaultPath is the config file read when SDAPI_CONFIG is unset.
const DefaultPath = "sdapi.yaml"

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		TimeoutMs:          30000,
		SandboxPort:        8443,
		SandboxDatabaseURL: "file:sandbox.db?cache=shared&mode=rwc",
		Logger:             LoggerConfig{Level: "info", Format: "text", Output: "stderr"},
		Tracer:             TracerConfig{Exporter: "noop"},
	}
}

// Load builds the configuration from defaults, the optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Defaults()

	path := getEnv("SDAPI_CONFIG", "")
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.Timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Hostname = getEnv("SDAPI_HOSTNAME", c.Hostname)
	c.Username = getEnv("SDAPI_USERNAME", c.Username)
	c.Password = getEnv("SDAPI_PASSWORD", c.Password)
	c.ClientID = getEnv("SDAPI_CLIENT_ID", c.ClientID)
	c.TimeoutMs = getEnvInt("SDAPI_TIMEOUT_MS", c.TimeoutMs)
	c.Insecure = getEnvBool("SDAPI_INSECURE", c.Insecure)
	c.SandboxPort = getEnvInt("SANDBOX_PORT", c.SandboxPort)
	c.SandboxDatabaseURL = getEnv("SANDBOX_DATABASE_URL", c.SandboxDatabaseURL)
	c.SandboxPolicy = getEnv("SANDBOX_POLICY", c.SandboxPolicy)
	c.Logger.Level = getEnv("LOG_LEVEL", c.Logger.Level)
	c.Logger.Format = getEnv("LOG_FORMAT", c.Logger.Format)
	c.Logger.Output = getEnv("LOG_OUTPUT", c.Logger.Output)
	if exporter := getEnv("TRACE_EXPORTER", ""); exporter != "" {
		c.Tracer.Enabled = true
		c.Tracer.Exporter = exporter
	}
}

// Validate reports every missing connection setting.
func (c *Config) Validate() error {
	var missing []string
	if c.Hostname == "" {
		missing = append(missing, "hostname")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if c.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
