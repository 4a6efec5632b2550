// Package session persists the last-used connection settings between runs.
//
// Saved passwords are base64-encoded only to keep them out of casual view;
// this is obfuscation, not encryption, and the session file must not be
// treated as a secret store.
package session

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Endpoint holds the remembered settings for one side of a migration.
type Endpoint struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	LastDatabase string `yaml:"last_database"`
}

// Session is the on-disk state of the tool, passed explicitly into whatever
// needs it rather than held as process-wide globals.
type Session struct {
	Source        Endpoint `yaml:"source"`
	Destination   Endpoint `yaml:"destination"`
	SavePasswords bool     `yaml:"save_passwords"`
}

// Default returns the session used when no file exists yet.
func Default() Session {
	endpoint := Endpoint{Host: "localhost", Port: "3306", Username: "root"}
	return Session{Source: endpoint, Destination: endpoint}
}

// DefaultPath returns the session file location under the user's home
// directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".dbmove", "session.yaml"), nil
}

// Load reads a session from path. A missing file yields the default
// session. Saved passwords are decoded; an undecodable password is dropped
// rather than failing the load.
func Load(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read session file: %w", err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("failed to parse session file: %w", err)
	}

	if s.SavePasswords {
		s.Source.Password = decodePassword(s.Source.Password)
		s.Destination.Password = decodePassword(s.Destination.Password)
	} else {
		s.Source.Password = ""
		s.Destination.Password = ""
	}
	return s, nil
}

// Save writes the session to path, creating parent directories as needed.
// Passwords are encoded when SavePasswords is set and blanked otherwise.
func (s Session) Save(path string) error {
	out := s
	if out.SavePasswords {
		out.Source.Password = encodePassword(out.Source.Password)
		out.Destination.Password = encodePassword(out.Destination.Password)
	} else {
		out.Source.Password = ""
		out.Destination.Password = ""
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func encodePassword(password string) string {
	if password == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(password))
}

func decodePassword(encoded string) string {
	if encoded == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	return string(decoded)
}
