package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Dir is the per-workspace configuration directory.
const Dir = ".nxmeta"

// EnvPrefix prefixes environment overrides, e.g. NXMETA_DATA_ROOT.
const EnvPrefix = "NXMETA"

// Config represents the complete nxmeta configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Data    DataConfig    `json:"data" mapstructure:"data"`
	Lineage LineageConfig `json:"lineage" mapstructure:"lineage"`
	Info    InfoConfig    `json:"info" mapstructure:"info"`
	Xfdl    XfdlConfig    `json:"xfdl" mapstructure:"xfdl"`
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// DataConfig locates the metadata bundles
type DataConfig struct {
	// Root is a directory or an http(s) base URL holding <version>/ trees.
	Root    string `json:"root" mapstructure:"root"`
	Version string `json:"version" mapstructure:"version"`
}

// LineageConfig names the fixed nodes of the inheritance graph
type LineageConfig struct {
	Root   string `json:"root" mapstructure:"root"`
	Marker string `json:"marker" mapstructure:"marker"`
}

// InfoConfig controls INFO document generation
type InfoConfig struct {
	OmitIfEmpty []string `json:"omitIfEmpty" mapstructure:"omitIfEmpty"`
}

// XfdlConfig controls sample rewriting
type XfdlConfig struct {
	Prefix         string `json:"prefix" mapstructure:"prefix"`
	Ext            string `json:"ext" mapstructure:"ext"`
	NameComparison string `json:"nameComparison" mapstructure:"nameComparison"`
	RulesFile      string `json:"rulesFile" mapstructure:"rulesFile"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Addr      string `json:"addr" mapstructure:"addr"`
	CacheSize int    `json:"cacheSize" mapstructure:"cacheSize"`
	// MaxUploadBytes bounds request bodies of the upload endpoints.
	MaxUploadBytes int64 `json:"maxUploadBytes" mapstructure:"maxUploadBytes"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Data: DataConfig{
			Root:    "./parsers/json",
			Version: "WORK800",
		},
		Lineage: LineageConfig{
			Root:   "nexacro._EventSinkObject",
			Marker: "nexacro.Component",
		},
		Info: InfoConfig{
			OmitIfEmpty: []string{"defaultvalue"},
		},
		Xfdl: XfdlConfig{
			Prefix:         "A_",
			Ext:            ".xfdl",
			NameComparison: "exact",
		},
		Server: ServerConfig{
			Addr:           "localhost:8080",
			CacheSize:      256,
			MaxUploadBytes: 32 << 20,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// setDefaults mirrors DefaultConfig into v so that partial files and
// environment overrides fall back per key.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("data.root", d.Data.Root)
	v.SetDefault("data.version", d.Data.Version)
	v.SetDefault("lineage.root", d.Lineage.Root)
	v.SetDefault("lineage.marker", d.Lineage.Marker)
	v.SetDefault("info.omitIfEmpty", d.Info.OmitIfEmpty)
	v.SetDefault("xfdl.prefix", d.Xfdl.Prefix)
	v.SetDefault("xfdl.ext", d.Xfdl.Ext)
	v.SetDefault("xfdl.nameComparison", d.Xfdl.NameComparison)
	v.SetDefault("xfdl.rulesFile", d.Xfdl.RulesFile)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cacheSize", d.Server.CacheSize)
	v.SetDefault("server.maxUploadBytes", d.Server.MaxUploadBytes)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

// LoadConfig loads configuration from <root>/.nxmeta/config.json. A .env
// file in root is loaded first; NXMETA_* variables override file values
// (NXMETA_DATA_ROOT, NXMETA_SERVER_ADDR, ...).
func LoadConfig(root string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(root, ".env"))

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, Dir))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to <root>/.nxmeta/config.json
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Data.Root == "" {
		return &ConfigError{Field: "data.root", Message: "must not be empty"}
	}
	if c.Lineage.Root == "" {
		return &ConfigError{Field: "lineage.root", Message: "must not be empty"}
	}
	switch c.Xfdl.NameComparison {
	case "", "exact", "fold":
	default:
		return &ConfigError{Field: "xfdl.nameComparison", Message: "must be exact or fold"}
	}
	switch c.Logging.Format {
	case "", "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	if c.Server.CacheSize < 0 {
		return &ConfigError{Field: "server.cacheSize", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
