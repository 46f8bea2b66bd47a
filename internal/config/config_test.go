package config

import (
	"strings"
	"testing"
)

func TestValidate_DevAllowsMissingSecret(t *testing.T) {
	cfg := &Config{Env: "development", JWTTTLHours: 24, ScheduleVersion: "TR_2026_v1"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	cfg := &Config{Env: "production", JWTTTLHours: 24, ScheduleVersion: "TR_2026_v1"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET in production")
	}
}

func TestValidate_ShortSecretRejected(t *testing.T) {
	cfg := &Config{Env: "production", JWTSecret: "short", JWTTTLHours: 24, ScheduleVersion: "TR_2026_v1"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Fatalf("expected short-secret error, got %v", err)
	}
}

func TestValidate_TTLMustBePositive(t *testing.T) {
	cfg := &Config{Env: "development", JWTTTLHours: 0, ScheduleVersion: "TR_2026_v1"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero TTL")
	}
}

func TestValidate_ScheduleVersionRequired(t *testing.T) {
	cfg := &Config{Env: "development", JWTTTLHours: 24}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty SCHEDULE_VERSION")
	}
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/kg")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("default port = %q", cfg.Port)
	}
	if cfg.JWTTTLHours != 24 {
		t.Errorf("default ttl = %d", cfg.JWTTTLHours)
	}
	if cfg.ScheduleVersion != "TR_2026_v1" {
		t.Errorf("default schedule version = %q", cfg.ScheduleVersion)
	}
	if len(cfg.CORSOrigins) == 0 {
		t.Error("expected default CORS origin")
	}
}
