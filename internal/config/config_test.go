package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"tablesync/internal/config"
)

const (
	key = "0123456789abcdef0123456789abcdef"
	iv  = "abcdef9876543210"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("encryption.key", key)
	v.Set("encryption.iv", iv)

	c, err := config.Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if c.Sync.MaxRows != config.DefaultMaxRows || c.Sync.BatchSize != config.DefaultBatchSize {
		t.Errorf("sync defaults = %+v", c.Sync)
	}
	if c.Server.Addr != ":8080" || c.Log.Level != "info" {
		t.Errorf("defaults = %+v %+v", c.Server, c.Log)
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tablesync.yaml")
	yaml := `
encryption:
  key: "` + key + `"
  iv: "` + iv + `"
  fields: [email, phone]
sync:
  max_rows: 10
databases:
  - name: prod
    dsn: postgres://prod/db
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TABLESYNC_SYNC_BATCH_SIZE", "7")

	v := viper.New()
	config.SetDefaults(v)
	if err := config.ReadFile(v, path); err != nil {
		t.Fatal(err)
	}
	c, err := config.Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if c.Sync.MaxRows != 10 || c.Sync.BatchSize != 7 {
		t.Errorf("sync = %+v", c.Sync)
	}
	if !c.IsField("EMAIL") || c.IsField("id") {
		t.Errorf("fields = %v", c.Encryption.Fields)
	}
	if got := c.ResolveDSN("prod"); got != "postgres://prod/db" {
		t.Errorf("ResolveDSN(prod) = %q", got)
	}
	if got := c.ResolveDSN("postgres://other"); got != "postgres://other" {
		t.Errorf("ResolveDSN passthrough = %q", got)
	}
}

func TestEnvFieldList(t *testing.T) {
	t.Setenv("TABLESYNC_ENCRYPTION_FIELDS", "email, phone")
	v := viper.New()
	config.SetDefaults(v)
	v.Set("encryption.key", key)
	v.Set("encryption.iv", iv)

	c, err := config.Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Encryption.Fields) != 2 || c.Encryption.Fields[1] != "phone" {
		t.Errorf("fields = %q", c.Encryption.Fields)
	}
}

func TestValidate(t *testing.T) {
	base := func() config.Config {
		return config.Config{
			Encryption: config.EncryptionConfig{Key: key, IV: iv},
			Sync:       config.SyncConfig{MaxRows: 1, BatchSize: 1},
		}
	}
	cases := map[string]func(*config.Config){
		"missing key":   func(c *config.Config) { c.Encryption.Key = "" },
		"short key":     func(c *config.Config) { c.Encryption.Key = "short" },
		"long iv":       func(c *config.Config) { c.Encryption.IV = iv + "x" },
		"zero max rows": func(c *config.Config) { c.Sync.MaxRows = 0 },
		"zero batch":    func(c *config.Config) { c.Sync.BatchSize = 0 },
		"bad format":    func(c *config.Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range cases {
		c := base()
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	c := base()
	if err := c.Validate(); err != nil {
		t.Errorf("valid config: %v", err)
	}

	c.Encryption.Key = "x"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Errorf("short key error = %v", err)
	}
}
