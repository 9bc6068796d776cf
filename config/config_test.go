package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // keep the repo's example config.yaml out of scope

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected address default %q", cfg.Server.Address)
	}
	if cfg.Pipeline.MaxContentChars != 4000 {
		t.Fatalf("unexpected content budget default %d", cfg.Pipeline.MaxContentChars)
	}
	if cfg.Storage.Backend != "file" {
		t.Fatalf("unexpected storage default %q", cfg.Storage.Backend)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  address: ":9090"
llm:
  api_key: file-key
  timeout: 30s
  routing:
    planning: heavy
storage:
  backend: redis
  redis:
    host: localhost
    port: "6379"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("file value not applied: %q", cfg.Server.Address)
	}
	if cfg.LLM.APIKey != "file-key" {
		t.Fatalf("api key not loaded: %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Fatalf("timeout not parsed: %v", cfg.LLM.Timeout)
	}
	if cfg.LLM.Routing.Planning != "heavy" {
		t.Fatalf("routing not loaded: %q", cfg.LLM.Routing.Planning)
	}
	if cfg.Storage.Redis.Addr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.Storage.Redis.Addr())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BRIEFER_LLM_API_KEY", "env-key")
	t.Setenv("BRIEFER_STORAGE_BACKEND", "postgres")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("env override not applied: %q", cfg.LLM.APIKey)
	}
	if cfg.Storage.Backend != "postgres" {
		t.Fatalf("env override not applied: %q", cfg.Storage.Backend)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", DBName: "briefer", User: "app", Password: "pw"}
	dsn, err := p.DSN()
	if err != nil {
		t.Fatal(err)
	}
	want := "postgres://app:pw@db:5432/briefer?sslmode=disable"
	if dsn != want {
		t.Fatalf("got %q, want %q", dsn, want)
	}

	p = PostgresConfig{URL: "postgres://explicit"}
	dsn, err = p.DSN()
	if err != nil || dsn != "postgres://explicit" {
		t.Fatalf("explicit URL must win, got %q, %v", dsn, err)
	}

	if _, err := (PostgresConfig{}).DSN(); err == nil {
		t.Fatal("unconfigured postgres must error")
	}
}
