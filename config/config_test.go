package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "codecove"},
		Auth:     AuthConfig{Domain: "tenant.example.com", Audience: "https://api.example.com"},
		Storage:  StorageConfig{Backend: "gcs", Bucket: "codecove-files"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_MissingAuthDomain(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Domain = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_MissingBucket(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Bucket = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_UnknownStorageBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = "ftp"
	assert.Error(t, cfg.Validate())
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("AUTH_DOMAIN", "tenant.example.com")
	t.Setenv("AUTH_AUDIENCE", "https://api.example.com")
	t.Setenv("STORAGE_BUCKET", "codecove-files")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("DB_PORT", "5433")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, 5433, cfg.Database.Port)
}

func TestAuthConfig_DerivedURLs(t *testing.T) {
	cfg := AuthConfig{Domain: "tenant.example.com"}
	assert.Equal(t, "https://tenant.example.com/.well-known/jwks.json", cfg.JWKSURL())
	assert.Equal(t, "https://tenant.example.com/", cfg.Issuer())
}
