package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Session is the persisted result of a successful login.
type Session struct {
	Token  string `toml:"token"`
	UserID string `toml:"user_id"`
	Name   string `toml:"name"`
	Email  string `toml:"email"`
}

// LoadSession reads the session at path. A missing file yields an empty
// session and no error.
func LoadSession(path string) (*Session, error) {
	s := &Session{}
	if _, err := toml.DecodeFile(path, s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Session{}, nil
		}
		return nil, fmt.Errorf("session: loading %s: %w", path, err)
	}
	return s, nil
}

// SaveSession writes s to path with owner-only permissions.
func SaveSession(path string, s *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("session: %w", err)
	}
	return os.Rename(tmp, path)
}

// ClearSession removes the session file. Clearing a missing session is not
// an error.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}
