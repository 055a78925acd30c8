package config

import (
	"strings"
	"testing"
)

func TestValidateDevNeedsNoSecret(t *testing.T) {
	cfg := &Config{Env: "development"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateProductionRequiresSecret(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing AUTH_SECRET to be rejected")
	}

	cfg.AuthSecret = "too-short"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected short AUTH_SECRET to be rejected")
	}
	if !strings.Contains(err.Error(), "32") {
		t.Errorf("error should mention minimum length: %v", err)
	}

	cfg.AuthSecret = strings.Repeat("x", 32)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate with sufficient secret: %v", err)
	}
}

func TestEnvPredicates(t *testing.T) {
	dev := &Config{Env: "development"}
	if !dev.IsDev() || dev.IsProduction() {
		t.Error("development predicates wrong")
	}
	prod := &Config{Env: "production"}
	if prod.IsDev() || !prod.IsProduction() {
		t.Error("production predicates wrong")
	}
	staging := &Config{Env: "staging"}
	if staging.IsDev() || staging.IsProduction() {
		t.Error("staging should be neither dev nor production")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected missing DATABASE_URL to be rejected")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hms_test")
	t.Setenv("ENV", "staging")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("Port = %s, want 8000 default", cfg.Port)
	}
	if cfg.AuthIssuer != "hms" {
		t.Errorf("AuthIssuer = %s, want hms default", cfg.AuthIssuer)
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("pool sizes = %d/%d, want 20/5 defaults", cfg.DBMaxConns, cfg.DBMinConns)
	}
}

func TestLoadSplitsCORSOrigins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hms_test")
	t.Setenv("ENV", "staging")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}
