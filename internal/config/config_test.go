package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGINS", "APP_ENV", "LOG_LEVEL",
		"BRIA_API_KEY", "BRIA_BASE_URL", "BRIA_MODEL_VERSION", "BRIA_TIMEOUT_SECONDS",
		"DOWNLOAD_MAX_BYTES", "SESSION_IDLE_TTL_MINUTES", "PROMPT_PROVIDER",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "Model",
		"ARK_TEMPERATURE", "ARK_TOP_P", "ARK_MAX_TOKENS", "GEMINI_API_KEY", "GEMINI_MODEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if len(cfg.Server.AllowedOrigins) != 0 {
		t.Fatalf("expected no origins, got %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Log.AppEnv != "development" {
		t.Fatalf("unexpected app env %q", cfg.Log.AppEnv)
	}
	if cfg.Studio.RequestTimeout != 60*time.Second || cfg.Studio.SessionIdleTTL != time.Hour {
		t.Fatalf("unexpected studio timeouts: %+v", cfg.Studio)
	}
	if cfg.Studio.DownloadMaxBytes != 20<<20 {
		t.Fatalf("unexpected download limit %d", cfg.Studio.DownloadMaxBytes)
	}
	if cfg.Enhancer.Provider != ProviderService {
		t.Fatalf("unexpected provider %q", cfg.Enhancer.Provider)
	}
	if cfg.AI.Enabled() || cfg.Gemini.Enabled() {
		t.Fatal("optional providers should be disabled without credentials")
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected gemini model %q", cfg.Gemini.Model)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("BRIA_API_KEY", "  token  ")
	t.Setenv("BRIA_TIMEOUT_SECONDS", "5")
	t.Setenv("SESSION_IDLE_TTL_MINUTES", "15")
	t.Setenv("PROMPT_PROVIDER", "Gemini")
	t.Setenv("ARK_API_KEY", "ark")
	t.Setenv("Model", "doubao")
	t.Setenv("ARK_MAX_TOKENS", "256")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Studio.APIKey != "token" {
		t.Fatalf("api key should be trimmed, got %q", cfg.Studio.APIKey)
	}
	if cfg.Studio.RequestTimeout != 5*time.Second || cfg.Studio.SessionIdleTTL != 15*time.Minute {
		t.Fatalf("unexpected durations: %+v", cfg.Studio)
	}
	if cfg.Enhancer.Provider != ProviderGemini {
		t.Fatalf("unexpected provider %q", cfg.Enhancer.Provider)
	}
	if !cfg.AI.Enabled() || cfg.AI.MaxTokens == nil || *cfg.AI.MaxTokens != 256 {
		t.Fatalf("unexpected ai config: %+v", cfg.AI)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"port with space":  {"PORT": "80 80"},
		"timeout not int":  {"BRIA_TIMEOUT_SECONDS": "soon"},
		"timeout zero":     {"BRIA_TIMEOUT_SECONDS": "0"},
		"negative limit":   {"DOWNLOAD_MAX_BYTES": "-1"},
		"ttl zero":         {"SESSION_IDLE_TTL_MINUTES": "0"},
		"unknown provider": {"PROMPT_PROVIDER": "openai"},
		"bad temperature":  {"ARK_TEMPERATURE": "warm"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
