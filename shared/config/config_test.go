package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "public.yaml", "baas:\n  url: https://demo.supabase.co\n  timeout: 5s\nfeed:\n  page_size: 10\n")
	writeConfig(t, dir, "private.yaml", "baas_key: from-file\n")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://demo.supabase.co", cfg.Public.BaaS.Url)
	assert.Equal(t, 5*time.Second, cfg.Public.BaaS.Timeout)
	assert.Equal(t, 10, cfg.Public.Feed.PageSize)
	assert.Equal(t, 3, cfg.Public.Limits.TitleMinLen, "unset fields keep defaults")
	assert.Equal(t, "images", cfg.Public.Storage.Bucket)
	assert.Equal(t, "from-file", cfg.Private.BaaSKey)
}

func TestLoad_EnvOverridesPrivate(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "public.yaml", "baas:\n  url: https://demo.supabase.co\n")
	writeConfig(t, dir, "private.yaml", "baas_key: from-file\n")
	t.Setenv(EnvBaaSKey, "from-env")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Private.BaaSKey)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "public.yaml", "baas:\n  url: https://demo.supabase.co\n")
	writeConfig(t, dir, ".env", EnvS3SecretKey+"=dotenv-secret\n"+EnvBaaSKey+"=dotenv-key\n")
	t.Cleanup(func() {
		os.Unsetenv(EnvS3SecretKey)
		os.Unsetenv(EnvBaaSKey)
	})

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.Private.BaaSKey)
	assert.Equal(t, "dotenv-secret", cfg.Private.S3SecretKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		public string
	}{
		{"missing url", "feed:\n  page_size: 20\n"},
		{"bad data source", "baas:\n  url: https://x.io\ndata_source: mongo\n"},
		{"pg without host", "baas:\n  url: https://x.io\ndata_source: pg\n"},
		{"s3 without endpoint", "baas:\n  url: https://x.io\nstorage:\n  driver: s3\n"},
		{"redis without url", "baas:\n  url: https://x.io\nsession:\n  driver: redis\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "public.yaml", tt.public)
			writeConfig(t, dir, "private.yaml", "baas_key: k\n")

			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestMustLoad_PanicsWithoutPublic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic due to missing public.yaml, got none")
		}
	}()

	_ = MustLoad(t.TempDir())
}
