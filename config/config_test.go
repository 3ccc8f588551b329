package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ClientID, "")
	t.Setenv(Environment, "")
	t.Setenv(Domain, "")
	t.Setenv(BatchSize, "")
	t.Setenv(TokenCache, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sandbox", cfg.Environment)
	assert.Equal(t, "com", cfg.Domain)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 200, cfg.PageSize)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 5*time.Minute, cfg.TokenMargin)
	assert.False(t, cfg.TokenCache)
	assert.True(t, strings.HasPrefix(cfg.DBPath, DataDir()))
	assert.False(t, cfg.HasCredentials())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(ClientID, "client-id")
	t.Setenv(ClientSecret, "client-secret")
	t.Setenv(RefreshToken, "refresh")
	t.Setenv(Domain, ".eu")
	t.Setenv(BatchSize, "25")
	t.Setenv(TokenCache, "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "client-id", cfg.ClientID)
	assert.Equal(t, "eu", cfg.Domain)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.True(t, cfg.TokenCache)
	assert.True(t, cfg.HasCredentials())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoho.env")
	require.NoError(t, os.WriteFile(path, []byte("ZOHO_BOOKS_ORG_ID=org-42\n"), 0600))

	t.Setenv(BooksOrgID, "")
	require.NoError(t, os.Unsetenv(BooksOrgID))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "org-42", cfg.BooksOrgID)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{BatchSize: 100, PageSize: 200, HTTPTimeout: time.Second, RateLimit: 1}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"page size too large", func(c *Config) { c.PageSize = 201 }},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"negative margin", func(c *Config) { c.TokenMargin = -time.Second }},
		{"zero rate", func(c *Config) { c.RateLimit = 0 }},
	}

	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := Config{ClientSecret: "supersecret"}
	out := cfg.String()
	assert.NotContains(t, out, "supersecret")
	assert.Contains(t, out, "supe****")
}
