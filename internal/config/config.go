// Package config loads syntaxia settings with Viper from defaults, an
// optional .syntaxia.yml file, a .env file, SYNTAXIA_* environment
// variables and command-line flags, in increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"syntaxia/internal/highlight"
	"syntaxia/internal/logging"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SYNTAXIA"
	// EnvConfigFile names an alternative config file.
	EnvConfigFile = "SYNTAXIA_CONFIG_FILE"
	// DefaultConfigName is looked up in the working directory.
	DefaultConfigName = ".syntaxia"
	// DefaultWorkspaceRoot is used when no root is configured.
	DefaultWorkspaceRoot = "/etc/tn3wrepo/Projects"
)

type Config struct {
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace" json:"workspace"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server" json:"server"`
	Highlight HighlightConfig `mapstructure:"highlight" yaml:"highlight" json:"highlight"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" json:"log"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch" json:"watch"`
}

type WorkspaceConfig struct {
	Root           string `mapstructure:"root" yaml:"root" json:"root"`
	IgnoreFile     string `mapstructure:"ignore_file" yaml:"ignore_file" json:"ignore_file"`
	DescriptorFile string `mapstructure:"descriptor_file" yaml:"descriptor_file" json:"descriptor_file"`
	ReadmeFile     string `mapstructure:"readme_file" yaml:"readme_file" json:"readme_file"`
	MaxFileSize    int64  `mapstructure:"max_file_size" yaml:"max_file_size" json:"max_file_size"`
	Create         bool   `mapstructure:"create" yaml:"create" json:"create"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	Workers         int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	Favicon         string `mapstructure:"favicon" yaml:"favicon" json:"favicon"`
	CacheMaxAge     int    `mapstructure:"cache_max_age" yaml:"cache_max_age" json:"cache_max_age"`
	SecurityHeaders bool   `mapstructure:"security_headers" yaml:"security_headers" json:"security_headers"`
	HSTS            bool   `mapstructure:"hsts" yaml:"hsts" json:"hsts"`
}

type HighlightConfig struct {
	DarkStyle  string `mapstructure:"dark_style" yaml:"dark_style" json:"dark_style"`
	LightStyle string `mapstructure:"light_style" yaml:"light_style" json:"light_style"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

type WatchConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("workspace.root", DefaultWorkspaceRoot)
	v.SetDefault("workspace.ignore_file", ".gitignore")
	v.SetDefault("workspace.descriptor_file", "ABOUT")
	v.SetDefault("workspace.readme_file", "README.md")
	v.SetDefault("workspace.max_file_size", 10<<20)
	v.SetDefault("workspace.create", true)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8201)
	v.SetDefault("server.workers", 16)
	v.SetDefault("server.favicon", "favicon.ico")
	v.SetDefault("server.cache_max_age", 86400)
	v.SetDefault("server.security_headers", true)
	v.SetDefault("server.hsts", true)

	v.SetDefault("highlight.dark_style", highlight.DefaultDarkStyle)
	v.SetDefault("highlight.light_style", highlight.DefaultLightStyle)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("watch.enabled", false)
}

// Prepare configures v for loading: defaults, environment binding and the
// config file location. cfgFile wins over SYNTAXIA_CONFIG_FILE, which wins
// over ./.syntaxia.yml. A .env file in the working directory is loaded
// into the process environment first; existing variables are kept.
func Prepare(v *viper.Viper, cfgFile string) {
	_ = godotenv.Load()

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
	case os.Getenv(EnvConfigFile) != "":
		v.SetConfigFile(os.Getenv(EnvConfigFile))
	default:
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(DefaultConfigName)
	}
}

// Read loads the config file if there is one. A missing default file is
// not an error; a missing explicit file is.
func Read(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("failed to read config file: %w", err)
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Workspace.Root) == "" {
		return errors.New("workspace config: root is empty")
	}
	for key, name := range map[string]string{
		"ignore_file":     c.Workspace.IgnoreFile,
		"descriptor_file": c.Workspace.DescriptorFile,
		"readme_file":     c.Workspace.ReadmeFile,
	} {
		if err := validateFileName(name); err != nil {
			return fmt.Errorf("workspace config: %s: %w", key, err)
		}
	}
	if c.Workspace.MaxFileSize <= 0 {
		return fmt.Errorf("workspace config: max_file_size must be positive, got %d", c.Workspace.MaxFileSize)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server config: port %d is not in valid range 0-65535", c.Server.Port)
	}
	if c.Server.Workers < 1 {
		return fmt.Errorf("server config: workers must be at least 1, got %d", c.Server.Workers)
	}
	if c.Server.CacheMaxAge < 0 {
		return fmt.Errorf("server config: cache_max_age must not be negative")
	}
	if strings.ContainsAny(c.Server.Host, ";&|$`()<>\"'\\ ") {
		return fmt.Errorf("server config: host %q contains invalid characters", c.Server.Host)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log config: unknown format %q", c.Log.Format)
	}

	for key, name := range map[string]string{
		"dark_style":  c.Highlight.DarkStyle,
		"light_style": c.Highlight.LightStyle,
	} {
		if !highlight.StyleExists(name) {
			return fmt.Errorf("highlight config: %s: unknown style %q", key, name)
		}
	}
	return nil
}

// validateFileName accepts a single path element.
func validateFileName(name string) error {
	switch {
	case name == "":
		return errors.New("empty file name")
	case name == "." || name == "..":
		return fmt.Errorf("invalid file name %q", name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return fmt.Errorf("file name %q must not contain separators", name)
	}
	return nil
}
