package config

import (
	"os"
	"path/filepath"
	"testing"

	"hostelhub/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
app:
  name: "hostelhub-test"
database:
  path: "test.db"
chat:
  rate_limit_messages: 5
admins:
  - "admin-1"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "hostelhub-test" {
		t.Errorf("expected app name hostelhub-test, got %s", cfg.App.Name)
	}
	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}
	if cfg.Chat.RateLimitMessages != 5 {
		t.Errorf("expected chat rate limit 5, got %d", cfg.Chat.RateLimitMessages)
	}
	if len(cfg.Admins) != 1 || cfg.Admins[0] != "admin-1" {
		t.Errorf("expected 1 admin admin-1")
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("TEST_DB_PATH", "env.db")
	yamlContent := `
database:
  path: "${TEST_DB_PATH}"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Database.Path != "env.db" {
		t.Errorf("expected env-expanded database path env.db, got %s", cfg.Database.Path)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{Database: DatabaseConfig{Path: "path"}},
			wantErr: false,
		},
		{
			name:    "missing database path",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name: "auth enabled without keys",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				API:      APIConfig{Enabled: true, Auth: APIAuthConfig{Enabled: true}},
			},
			wantErr: true,
		},
		{
			name: "negative chat limits",
			cfg: Config{
				Database: DatabaseConfig{Path: "path"},
				Chat:     ChatConfig{RateLimitMessages: -1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.App.Name != "hostelhub" {
		t.Errorf("expected default app name hostelhub, got %s", cfg.App.Name)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("expected default API port 8080, got %d", cfg.API.Port)
	}
	if cfg.API.Auth.HeaderAPIKey != "x-api-key" {
		t.Errorf("expected default api key header x-api-key, got %s", cfg.API.Auth.HeaderAPIKey)
	}
	if cfg.Chat.RateLimitMessages != models.ChatRateLimitMessages {
		t.Errorf("expected default chat rate limit %d, got %d", models.ChatRateLimitMessages, cfg.Chat.RateLimitMessages)
	}
	if cfg.Exports.Path != "exports" {
		t.Errorf("expected default exports path, got %s", cfg.Exports.Path)
	}
}
