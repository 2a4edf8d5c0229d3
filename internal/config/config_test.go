package config

import (
	"os"
	"testing"
	"time"
)

// unsetForTest clears key for the duration of the test and restores it after.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_HOST", "SERVER_PORT", "SERVER_SECURE", "APP_ENV", "LOG_LEVEL",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
		"GEMINI_API_KEY", "GEMINI_MODEL", "AI_TIMEOUT", "AI_TEMPERATURE",
		"AI_TOP_K", "AI_TOP_P", "AI_MAX_OUTPUT_TOKENS", "AI_STUB", "AI_RATE_LIMIT",
	} {
		unsetForTest(t, key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected Server.Host to be 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected Server.Port to be 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Secure {
		t.Error("expected Server.Secure to be false")
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("expected development environment, got %s", cfg.Server.Environment)
	}

	if cfg.Database.DBName != "resumebuilder" {
		t.Errorf("expected Database.DBName to be resumebuilder, got %s", cfg.Database.DBName)
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("expected Redis.Port to be 6379, got %d", cfg.Redis.Port)
	}

	if cfg.AI.GeminiAPIKey != "" {
		t.Errorf("expected AI.GeminiAPIKey to be empty, got %q", cfg.AI.GeminiAPIKey)
	}
	if cfg.AI.Timeout != 30*time.Second {
		t.Errorf("expected AI.Timeout to be 30s, got %v", cfg.AI.Timeout)
	}
	if cfg.AI.Temperature != 0.7 {
		t.Errorf("expected AI.Temperature to be 0.7, got %v", cfg.AI.Temperature)
	}
	if cfg.AI.TopK != 40 {
		t.Errorf("expected AI.TopK to be 40, got %d", cfg.AI.TopK)
	}
	if cfg.AI.TopP != 0.9 {
		t.Errorf("expected AI.TopP to be 0.9, got %v", cfg.AI.TopP)
	}
	if cfg.AI.MaxOutputTokens != 300 {
		t.Errorf("expected AI.MaxOutputTokens to be 300, got %d", cfg.AI.MaxOutputTokens)
	}
	if cfg.AI.Stub {
		t.Error("expected AI.Stub to be false")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("SERVER_PORT", "3001")
	t.Setenv("SERVER_SECURE", "true")
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("AI_TIMEOUT", "12s")
	t.Setenv("AI_TEMPERATURE", "0.2")
	t.Setenv("AI_TOP_K", "20")
	t.Setenv("AI_STUB", "true")
	t.Setenv("AI_RATE_LIMIT", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 3001 || !cfg.Server.Secure {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Database.Host != "db.example.com" || cfg.Database.Port != 5433 {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Redis.DB != 2 {
		t.Errorf("expected Redis.DB 2, got %d", cfg.Redis.DB)
	}
	if cfg.AI.GeminiAPIKey != "secret" {
		t.Errorf("expected api key from env, got %q", cfg.AI.GeminiAPIKey)
	}
	if cfg.AI.Timeout != 12*time.Second {
		t.Errorf("expected 12s timeout, got %v", cfg.AI.Timeout)
	}
	if cfg.AI.Temperature != 0.2 || cfg.AI.TopK != 20 {
		t.Errorf("unexpected generation config: %+v", cfg.AI)
	}
	if !cfg.AI.Stub || cfg.AI.RateLimit != 7 {
		t.Errorf("unexpected stub/rate limit: %+v", cfg.AI)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("AI_TIMEOUT", "soon")
	t.Setenv("AI_TOP_P", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
	if cfg.AI.Timeout != 30*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.AI.Timeout)
	}
	if cfg.AI.TopP != 0.9 {
		t.Errorf("expected default top_p, got %v", cfg.AI.TopP)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			AI: AIConfig{
				Timeout:         30 * time.Second,
				Temperature:     0.7,
				TopK:            40,
				TopP:            0.9,
				MaxOutputTokens: 300,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero timeout", func(c *Config) { c.AI.Timeout = 0 }, true},
		{"temperature too high", func(c *Config) { c.AI.Temperature = 2.5 }, true},
		{"top_p zero", func(c *Config) { c.AI.TopP = 0 }, true},
		{"top_k zero", func(c *Config) { c.AI.TopK = 0 }, true},
		{"max tokens zero", func(c *Config) { c.AI.MaxOutputTokens = 0 }, true},
		{"negative rate limit", func(c *Config) { c.AI.RateLimit = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDSNAndAddr(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	if got := d.DSN(); got != "postgres://u:p@h:1/n?sslmode=disable" {
		t.Errorf("unexpected DSN %q", got)
	}
	r := RedisConfig{Host: "r", Port: 2}
	if got := r.Addr(); got != "r:2" {
		t.Errorf("unexpected addr %q", got)
	}
}

func TestLoadClient(t *testing.T) {
	unsetForTest(t, "RESUME_API_TOKEN")
	t.Setenv("RESUME_API_URL", "https://api.example.com")
	t.Setenv("RESUME_API_TIMEOUT", "5s")

	c := LoadClient()
	if c.APIURL != "https://api.example.com" || c.Token != "" || c.Timeout != 5*time.Second {
		t.Fatalf("unexpected client config: %+v", c)
	}
}

func TestSuggestionsPerHour(t *testing.T) {
	tests := []struct {
		env   string
		limit int64
		want  int
	}{
		{"production", 0, 30},
		{"development", 0, 300},
		{"production", 5, 5},
	}
	for _, tt := range tests {
		c := &Config{Server: ServerConfig{Environment: tt.env}, AI: AIConfig{RateLimit: tt.limit}}
		if got := c.SuggestionsPerHour(); got != tt.want {
			t.Errorf("%s/%d: expected %d, got %d", tt.env, tt.limit, tt.want, got)
		}
	}
}
