package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected addr %q, got %q", ":8080", cfg.HTTPAddr)
	}
	if cfg.EpisodesLimit != 12 {
		t.Errorf("expected limit 12, got %d", cfg.EpisodesLimit)
	}
	if cfg.ListRevalidate != 8*time.Hour {
		t.Errorf("expected list revalidate 8h, got %v", cfg.ListRevalidate)
	}
	if cfg.EpisodeRevalidate != 24*time.Hour {
		t.Errorf("expected episode revalidate 24h, got %v", cfg.EpisodeRevalidate)
	}
	if cfg.SessionSecret != devSessionSecret {
		t.Errorf("expected dev secret fallback, got %q", cfg.SessionSecret)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("EPISODES_API_URL", "http://api.test")
	t.Setenv("EPISODES_API_TIMEOUT", "3s")
	t.Setenv("REDIS_HOST", "cache.local")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.EpisodesAPIURL != "http://api.test" {
		t.Errorf("expected api url from env, got %q", cfg.EpisodesAPIURL)
	}
	if cfg.EpisodesAPITimeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", cfg.EpisodesAPITimeout)
	}
	if !cfg.RedisEnabled() || cfg.RedisDB != 2 {
		t.Errorf("expected redis enabled on db 2, got host=%q db=%d", cfg.RedisHost, cfg.RedisDB)
	}
	if cfg.MinioEnabled() {
		t.Error("expected minio disabled without endpoint")
	}
	if cfg.SessionSecret != "s3cret" {
		t.Errorf("expected secret from env, got %q", cfg.SessionSecret)
	}
}

func TestLoad_RequiresSecretOutsideDevMode(t *testing.T) {
	t.Setenv("DEV_MODE", "false")
	t.Setenv("SESSION_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing secret, got nil")
	}
}

func TestLoad_RejectsNonPositiveLimit(t *testing.T) {
	t.Setenv("EPISODES_LIMIT", "0")

	if _, err := Load(); err == nil {
		t.Error("expected error for zero limit, got nil")
	}
}
