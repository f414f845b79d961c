package config

import "testing"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/codeheist?sslmode=disable")
	t.Setenv("ADMIN_KEY", "0f8c2a6b")
	t.Setenv("SECRET_KEY", "test-secret")
}

func TestLoadServerDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.ValkeyAddr != "localhost:6379" {
		t.Fatalf("ValkeyAddr = %q, want localhost:6379", cfg.ValkeyAddr)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadServerRequiresPostgresDSN(t *testing.T) {
	setRequired(t)
	t.Setenv("POSTGRES_DSN", "")

	_, err := LoadServer()
	if err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}

func TestLoadServerRequiresAdminKey(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_KEY", "")

	_, err := LoadServer()
	if err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	setRequired(t)
	t.Setenv("VALKEY_ADDR", "valkey:6380")
	t.Setenv("ALLOWED_ORIGINS", "https://heist.example.com,http://localhost:5173")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.ValkeyAddr != "valkey:6380" {
		t.Fatalf("ValkeyAddr = %q", cfg.ValkeyAddr)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("AllowedOrigins = %v, want 2 entries", cfg.AllowedOrigins)
	}
}
