package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
script:
  gemini_model: gemini-1.5-flash
  temperature: 0.7
compose:
  fps: 30
poll:
  interval_sec: 5
publish:
  instagram:
    enabled: true
    graph_base_url: https://graph.facebook.com/v18.0
`

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadReadsYAMLAndEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gk")
	t.Setenv("OPENAI_API_KEY", "ok")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Script.GeminiModel != "gemini-1.5-flash" {
		t.Errorf("gemini model = %q", cfg.Script.GeminiModel)
	}
	if cfg.Compose.FPS != 30 {
		t.Errorf("fps = %d, want explicit 30", cfg.Compose.FPS)
	}
	if cfg.Poll.IntervalSec != 5 {
		t.Errorf("poll interval = %d", cfg.Poll.IntervalSec)
	}
	if cfg.Secrets.GeminiAPIKey != "gk" || cfg.Secrets.OpenAIAPIKey != "ok" {
		t.Error("env secrets not captured")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "script:\n  temperature: 0.5\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Compose.FPS != 24 {
		t.Errorf("default fps = %d, want 24", cfg.Compose.FPS)
	}
	if cfg.Compose.VideoCodec != "libx264" || cfg.Compose.AudioCodec != "aac" {
		t.Errorf("default codecs = %q/%q", cfg.Compose.VideoCodec, cfg.Compose.AudioCodec)
	}
	if cfg.Poll.IntervalSec != 10 || cfg.Poll.MaxWaitSec != 300 {
		t.Errorf("default poll = %d/%d, want 10/300", cfg.Poll.IntervalSec, cfg.Poll.MaxWaitSec)
	}
	if cfg.Script.TargetDurationSec != 30 {
		t.Errorf("default target duration = %d, want 30", cfg.Script.TargetDurationSec)
	}
}

func TestValidateRequiresKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(writeConfig(t, "paths:\n  output: out\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error with no keys set")
	}

	cfg.Secrets.GeminiAPIKey = "gk"
	cfg.Secrets.OpenAIAPIKey = "ok"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate with keys: %v", err)
	}
}

func TestValidateChecksEnabledTargetsOnly(t *testing.T) {
	cfg := &Config{}
	cfg.Secrets.GeminiAPIKey = "gk"
	cfg.Secrets.OpenAIAPIKey = "ok"

	cfg.Publish.Instagram.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for enabled instagram without credentials")
	}

	cfg.Publish.Instagram.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled target should not require credentials: %v", err)
	}
}
