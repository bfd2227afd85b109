// Package config builds the process configuration once at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "TABLESYNC"
	FileName  = "tablesync"

	DefaultMaxRows   = 100000
	DefaultBatchSize = 500
	DefaultAddr      = ":8080"
)

type Config struct {
	Encryption EncryptionConfig `mapstructure:"encryption"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Databases  []DBConfig       `mapstructure:"databases"`
}

// EncryptionConfig holds the cipher material and the set of columns that
// tokenize/detokenize may transform. Key and IV are UTF-8 strings of 32 and
// 16 bytes.
type EncryptionConfig struct {
	Key    string   `mapstructure:"key"`
	IV     string   `mapstructure:"iv"`
	Fields []string `mapstructure:"fields"`
}

type SyncConfig struct {
	Schema    string `mapstructure:"schema"`
	MaxRows   int64  `mapstructure:"max_rows"`
	BatchSize int    `mapstructure:"batch_size"`
	Driver    string `mapstructure:"driver"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DBConfig is a named connection that commands can refer to instead of a DSN.
type DBConfig struct {
	Name string `mapstructure:"name"`
	DSN  string `mapstructure:"dsn"`
}

// SetDefaults registers defaults and environment lookup on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("sync.schema", "")
	v.SetDefault("sync.max_rows", DefaultMaxRows)
	v.SetDefault("sync.batch_size", DefaultBatchSize)
	v.SetDefault("sync.driver", "")
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("encryption.key", "")
	v.SetDefault("encryption.iv", "")
	v.SetDefault("encryption.fields", []string{})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadFile loads cfgFile, or tablesync.yaml from the executable directory or
// the working directory. A missing default file is not an error.
func ReadFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
		return nil
	}

	if ex, err := os.Executable(); err == nil {
		v.AddConfigPath(filepath.Dir(ex))
	}
	v.AddConfigPath(".")
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	// A comma separated env value arrives as a single element.
	if len(c.Encryption.Fields) == 1 && strings.Contains(c.Encryption.Fields[0], ",") {
		c.Encryption.Fields = strings.Split(c.Encryption.Fields[0], ",")
	}
	for i, f := range c.Encryption.Fields {
		c.Encryption.Fields[i] = strings.TrimSpace(f)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Encryption.Key == "" {
		return fmt.Errorf("encryption.key is missing or empty")
	}
	if c.Encryption.IV == "" {
		return fmt.Errorf("encryption.iv is missing or empty")
	}
	if n := len([]byte(c.Encryption.Key)); n != 32 {
		return fmt.Errorf("encryption.key must be 32 bytes (256 bits) for AES-256, got %d", n)
	}
	if n := len([]byte(c.Encryption.IV)); n != 16 {
		return fmt.Errorf("encryption.iv must be 16 bytes (128 bits) for AES, got %d", n)
	}
	if c.Sync.MaxRows <= 0 {
		return fmt.Errorf("sync.max_rows must be positive, got %d", c.Sync.MaxRows)
	}
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync.batch_size must be positive, got %d", c.Sync.BatchSize)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// ResolveDSN returns the DSN of the named database, or ref itself when no
// database of that name is configured.
func (c *Config) ResolveDSN(ref string) string {
	for _, db := range c.Databases {
		if db.Name != "" && strings.EqualFold(db.Name, ref) {
			return db.DSN
		}
	}
	return ref
}

// IsField reports whether column is in the configured encryption field set.
func (c *Config) IsField(column string) bool {
	for _, f := range c.Encryption.Fields {
		if strings.EqualFold(f, column) {
			return true
		}
	}
	return false
}
