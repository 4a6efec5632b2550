package session

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "session.yaml")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Source.Host != "localhost" || s.Source.Port != "3306" || s.Source.Username != "root" {
		t.Errorf("unexpected default source endpoint: %+v", s.Source)
	}
	if s.SavePasswords {
		t.Error("default session must not save passwords")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dbmove", "session.yaml")

	in := Session{
		Source:        Endpoint{Host: "db1.example.com", Port: "3307", Username: "alice", Password: "s3cret", LastDatabase: "shop"},
		Destination:   Endpoint{Host: "db2.example.com", Port: "3306", Username: "bob", Password: "hunter2", LastDatabase: "shop_copy"},
		SavePasswords: true,
	}
	if err := in.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.Source != in.Source {
		t.Errorf("source endpoint mismatch:\n got %+v\nwant %+v", out.Source, in.Source)
	}
	if out.Destination != in.Destination {
		t.Errorf("destination endpoint mismatch:\n got %+v\nwant %+v", out.Destination, in.Destination)
	}
}

func TestSavedPasswordsAreNotPlaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")

	s := Session{
		Source:        Endpoint{Host: "h", Port: "3306", Username: "u", Password: "topsecret"},
		Destination:   Endpoint{Host: "h", Port: "3306", Username: "u"},
		SavePasswords: true,
	}
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read session file: %v", err)
	}
	if strings.Contains(string(raw), "topsecret") {
		t.Error("password stored in plaintext")
	}
	encoded := base64.StdEncoding.EncodeToString([]byte("topsecret"))
	if !strings.Contains(string(raw), encoded) {
		t.Error("password not stored base64-encoded")
	}
}

func TestSaveWithoutPasswordsBlanksThem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")

	s := Session{
		Source:      Endpoint{Host: "h", Port: "3306", Username: "u", Password: "topsecret"},
		Destination: Endpoint{Host: "h", Port: "3306", Username: "u", Password: "alsosecret"},
	}
	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read session file: %v", err)
	}
	for _, secret := range []string{"topsecret", "alsosecret"} {
		if strings.Contains(string(raw), secret) {
			t.Errorf("password %q written despite SavePasswords=false", secret)
		}
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.Source.Password != "" || out.Destination.Password != "" {
		t.Error("passwords must be empty after loading a no-password session")
	}
}

func TestLoadDropsUndecodablePassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")

	content := "source:\n" +
		"  host: h\n" +
		"  port: \"3306\"\n" +
		"  username: u\n" +
		"  password: '%%% not base64 %%%'\n" +
		"  last_database: \"\"\n" +
		"destination:\n" +
		"  host: h\n" +
		"  port: \"3306\"\n" +
		"  username: u\n" +
		"  password: \"\"\n" +
		"  last_database: \"\"\n" +
		"save_passwords: true\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write session file: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Source.Password != "" {
		t.Errorf("undecodable password should be dropped, got %q", s.Source.Password)
	}
}
