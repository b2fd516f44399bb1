package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("PRE_SECONDS", "2.5")
	t.Setenv("MAX_ALLOWED_RIDERS", "3")
	t.Setenv("CLASS_LABELS", "moto, bare , ok,bad")
	t.Setenv("CLIP_EXT", "mp4")
	t.Setenv("DISPLAY_MODE", "NONE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 8081 {
		t.Errorf("Expected port 8081, got %d", cfg.Port)
	}
	if cfg.PreSeconds != 2.5 {
		t.Errorf("Expected pre seconds 2.5, got %v", cfg.PreSeconds)
	}
	if cfg.MaxAllowedRiders != 3 {
		t.Errorf("Expected 3 riders, got %d", cfg.MaxAllowedRiders)
	}
	if got := strings.Join(cfg.ClassLabels, "|"); got != "moto|bare|ok|bad" {
		t.Errorf("Unexpected labels: %s", got)
	}
	if cfg.ClipExtension != ".mp4" {
		t.Errorf("Expected extension .mp4, got %s", cfg.ClipExtension)
	}
	if cfg.DisplayMode != DisplayNone {
		t.Errorf("Expected display mode none, got %s", cfg.DisplayMode)
	}
}

func TestLoad_InvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != Default().Port {
		t.Errorf("Expected default port, got %d", cfg.Port)
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "helmetwatch.yaml")
	content := `
post_seconds: 3
max_allowed_riders: 1
classes:
  motorcycle: 3
  no_helmet: 2
  proper_helmet: 1
  wrong_helmet: 0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MAX_ALLOWED_RIDERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.PostSeconds != 3 {
		t.Errorf("Expected post seconds from file, got %v", cfg.PostSeconds)
	}
	if cfg.Classes.NoHelmet != 2 || cfg.Classes.WrongHelmet != 0 {
		t.Errorf("Class roles not read from file: %+v", cfg.Classes)
	}
	if cfg.MaxAllowedRiders != 4 {
		t.Errorf("Environment should override file, got %d", cfg.MaxAllowedRiders)
	}
	if cfg.PreSeconds != 5 {
		t.Errorf("Unset keys should keep defaults, got %v", cfg.PreSeconds)
	}
}

func TestLoad_MissingYAMLFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(os.TempDir(), "does-not-exist-helmetwatch.yaml"))

	if _, err := Load(); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative pre window", func(c *Config) { c.PreSeconds = -1 }},
		{"zero fps", func(c *Config) { c.DefaultFPS = 0 }},
		{"threshold above one", func(c *Config) { c.ConfidenceThreshold = 1.5 }},
		{"image size not multiple of 32", func(c *Config) { c.ImageSize = 600 }},
		{"colliding class ids", func(c *Config) { c.Classes.WrongHelmet = c.Classes.NoHelmet }},
		{"class id outside labels", func(c *Config) { c.Classes.WrongHelmet = 9 }},
		{"unknown display", func(c *Config) { c.DisplayMode = "tv" }},
		{"file source without uri", func(c *Config) { c.CameraSource = SourceFile }},
		{"short codec", func(c *Config) { c.ClipCodec = "MJP" }},
		{"capacity below tail", func(c *Config) { c.ViolationLogCapacity = 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestPrePostFrames(t *testing.T) {
	tests := []struct {
		pre, post, fps     float64
		wantPre, wantPost int
	}{
		{5, 5, 30, 150, 150},
		{5, 5, 29.97, 150, 150},
		{2.5, 1, 25, 63, 25},
		{0, 0, 30, 0, 0},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.PreSeconds = tt.pre
		cfg.PostSeconds = tt.post
		if got := cfg.PreFrames(tt.fps); got != tt.wantPre {
			t.Errorf("PreFrames(%v, %v) = %d, expected %d", tt.pre, tt.fps, got, tt.wantPre)
		}
		if got := cfg.PostFrames(tt.fps); got != tt.wantPost {
			t.Errorf("PostFrames(%v, %v) = %d, expected %d", tt.post, tt.fps, got, tt.wantPost)
		}
	}
}
