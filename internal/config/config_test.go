package config

import (
	"testing"
	"time"
)

func TestLoadRequiresJWTKeyPaths(t *testing.T) {
	t.Setenv("JWT_PRIVATE_KEY_PATH", "")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "")
	if _, err := Load(); err == nil {
		t.Fatal("load without jwt key paths must fail")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_PRIVATE_KEY_PATH", "/keys/private.pem")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/keys/public.pem")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("api port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Redis.Addr() != "localhost:6379" {
		t.Errorf("redis addr = %s", cfg.Redis.Addr())
	}
	if cfg.JWT.AccessTTL != 12*time.Hour {
		t.Errorf("access ttl = %v", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Errorf("refresh ttl = %v", cfg.JWT.RefreshTTL)
	}
	if cfg.Auth.LoginLockTTL != 15*time.Minute {
		t.Errorf("login lock ttl = %v", cfg.Auth.LoginLockTTL)
	}
	if cfg.Upload.MaxBytes != 5*1024*1024 {
		t.Errorf("upload max bytes = %d", cfg.Upload.MaxBytes)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_PRIVATE_KEY_PATH", "/keys/private.pem")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/keys/public.pem")
	t.Setenv("API_PORT", "9090")
	t.Setenv("POSTGRES_DB", "recruit_test")
	t.Setenv("JWT_ACCESS_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.API.Port != 9090 {
		t.Errorf("api port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Database.Name != "recruit_test" {
		t.Errorf("database name = %s", cfg.Database.Name)
	}
	if cfg.JWT.AccessTTL != 30*time.Minute {
		t.Errorf("access ttl = %v", cfg.JWT.AccessTTL)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		Name:     "recruit",
		User:     "app",
		Password: "pw",
		SSLMode:  "disable",
	}
	want := "host=db port=5432 user=app password=pw dbname=recruit sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}
