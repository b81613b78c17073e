package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/bindkit/pkg/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "bindkit.json"

	// DefaultPort is the default live server port.
	DefaultPort = 8080

	// DefaultHost is the default live server host.
	DefaultHost = "localhost"

	// DefaultPrefix is the default binding attribute prefix.
	DefaultPrefix = "bind-"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "bindkit"

	// DefaultMetricsPath is the default metrics endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultTemplateExt is the default component template extension.
	DefaultTemplateExt = ".html"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Config represents the complete bindkit.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Prefix is the binding attribute prefix.
	Prefix string `json:"prefix,omitempty"`

	// IgnoredTags lists elements the binding walker skips.
	IgnoredTags []string `json:"ignoredTags,omitempty"`

	// Server contains live server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Components contains component template sources.
	Components ComponentsConfig `json:"components,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// ReadHeaderTimeout bounds reading request headers (e.g., "5s").
	ReadHeaderTimeout string `json:"readHeaderTimeout,omitempty"`

	// WriteTimeout bounds websocket writes (e.g., "10s").
	WriteTimeout string `json:"writeTimeout,omitempty"`
}

// ComponentsConfig contains component template sources.
type ComponentsConfig struct {
	// Dir is a directory of <name><ext> template files.
	Dir string `json:"dir,omitempty"`

	// Ext is the template file extension.
	Ext string `json:"ext,omitempty"`

	// S3 loads templates from a bucket instead of Dir.
	S3 S3Config `json:"s3,omitempty"`
}

// S3Config locates component templates in S3.
type S3Config struct {
	// Bucket is the bucket name. Empty disables S3 loading.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is the key prefix of the templates.
	Prefix string `json:"prefix,omitempty"`

	// Region is the bucket region.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint (e.g., MinIO).
	Endpoint string `json:"endpoint,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`

	// Path is the metrics endpoint.
	Path string `json:"path,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{
		Metrics: MetricsConfig{Enabled: true},
	}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for bindkit.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigInvalid).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or pass the settings as flags")
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.KindConfiguration, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.IgnoredTags == nil {
		c.IgnoredTags = []string{"script", "textarea", "template"}
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadHeaderTimeout == "" {
		c.Server.ReadHeaderTimeout = "5s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "10s"
	}

	// Components
	if c.Components.Ext == "" {
		c.Components.Ext = DefaultTemplateExt
	}

	// Metrics
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New(errors.CodeConfigInvalid).WithDetail(detail)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("Port must be between 0 and 65535")
	}
	if !strings.HasSuffix(c.Prefix, "-") || len(c.Prefix) < 2 {
		return invalid("Prefix must be non-empty and end with a dash, e.g. \"bind-\"")
	}
	for name, d := range map[string]string{
		"server.readHeaderTimeout": c.Server.ReadHeaderTimeout,
		"server.writeTimeout":      c.Server.WriteTimeout,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return invalid(name + " is not a duration: " + strconv.Quote(d))
		}
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path must start with /")
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return invalid("log.level must be one of " + strings.Join(logLevels, ", "))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be text or json")
	}
	if c.Components.S3.Bucket != "" && c.Components.S3.Region == "" {
		return invalid("components.s3.region is required when a bucket is set")
	}
	return nil
}

// Address returns the live server listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// ReadHeaderTimeout returns the parsed header timeout.
func (c *Config) ReadHeaderTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ReadHeaderTimeout)
	return d
}

// WriteTimeout returns the parsed websocket write timeout.
func (c *Config) WriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

// ComponentsPath returns the component directory, resolved against the
// config file directory. Empty when no directory is configured.
func (c *Config) ComponentsPath() string {
	if c.Components.Dir == "" {
		return ""
	}
	if filepath.IsAbs(c.Components.Dir) || c.configPath == "" {
		return c.Components.Dir
	}
	return filepath.Join(c.Dir(), c.Components.Dir)
}

// Logger builds a slog.Logger writing to w with the configured level and
// format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists checks if a bindkit.json exists in the directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot searches for bindkit.json starting from startDir
// and walking up the directory tree.
func FindProjectRoot(startDir string) (string, error) {
	dir := startDir
	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigInvalid).
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
