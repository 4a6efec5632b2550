package database

import "testing"

func TestDSN(t *testing.T) {
	cfg := Config{Host: "db.example.com", Port: "3307", User: "alice", Password: "s3cret"}

	want := "alice:s3cret@tcp(db.example.com:3307)/?parseTime=true"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestRedactedOmitsPassword(t *testing.T) {
	cfg := Config{Host: "db.example.com", Port: "3306", User: "alice", Password: "s3cret"}

	got := cfg.Redacted()
	if got != "alice@db.example.com:3306" {
		t.Errorf("Redacted() = %q", got)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DBMOVE_TEST_HOST", "remote")
	t.Setenv("DBMOVE_TEST_PORT", "3310")
	t.Setenv("DBMOVE_TEST_USER", "carol")
	t.Setenv("DBMOVE_TEST_PASSWORD", "pw")

	cfg := LoadConfigFromEnv("DBMOVE_TEST")
	if cfg.Host != "remote" || cfg.Port != "3310" || cfg.User != "carol" || cfg.Password != "pw" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	cfg := LoadConfigFromEnv("DBMOVE_UNSET")
	if cfg.Host != "localhost" || cfg.Port != "3306" || cfg.User != "root" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Password != "" {
		t.Errorf("password should default to empty, got %q", cfg.Password)
	}
}
