package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "HS256", cfg.JWT.Algorithm)
	require.Equal(t, 30*time.Minute, cfg.TokenTTL())
	require.Equal(t, int64(10<<20), cfg.Upload.MaxFileSize)
	require.Equal(t, []string{".pdf", ".docx", ".txt", ".doc"}, cfg.Upload.AllowedExtensions)
	require.Equal(t, "local", cfg.Storage.Backend)
	require.NotEmpty(t, cfg.JWT.Secret, "dev env gets a placeholder secret")
	require.Empty(t, cfg.AI.APIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("APP_JWT_SECRET", "s3cret")
	t.Setenv("APP_JWT_ACCESSTOKENTTLMIN", "5")
	t.Setenv("APP_UPLOAD_MAXFILESIZE", "1024")
	t.Setenv("APP_UPLOAD_ALLOWEDEXTENSIONS", "PDF, txt")
	t.Setenv("APP_AI_APIKEY", "key")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.JWT.Secret)
	require.Equal(t, 5*time.Minute, cfg.TokenTTL())
	require.Equal(t, int64(1024), cfg.Upload.MaxFileSize)
	require.Equal(t, []string{".pdf", ".txt"}, cfg.Upload.AllowedExtensions)
	require.Equal(t, "key", cfg.AI.APIKey)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  env: prod
jwt:
  secret: from-file
  algorithm: HS512
db:
  driver: sqlite
  dsn: file::memory:
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.App.Env)
	require.Equal(t, "from-file", cfg.JWT.Secret)
	require.Equal(t, "HS512", cfg.JWT.Algorithm)
	require.Equal(t, "sqlite", cfg.DB.Driver)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "missing secret in prod", mutate: func(c *Config) { c.App.Env = "prod"; c.JWT.Secret = "" }, wantErr: true},
		{name: "bad algorithm", mutate: func(c *Config) { c.JWT.Algorithm = "RS256" }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.JWT.AccessTokenTTLMin = 0 }, wantErr: true},
		{name: "bad backend", mutate: func(c *Config) { c.Storage.Backend = "ftp" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				App:     App{Env: "dev"},
				JWT:     JWT{Secret: "x", Algorithm: "HS256", AccessTokenTTLMin: 30},
				Upload:  Upload{MaxFileSize: 1},
				Storage: Storage{Backend: "local"},
			}
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
