package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gcphcp/pkg/logging"
)

const storeSubsystem = "CredentialStore"

// Store reads and writes the credential file. It holds no state besides the
// path and does not guard against concurrent writers.
type Store struct {
	path string
}

// NewStore returns a Store for the credential file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the credential file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored record. A missing file, malformed JSON or a record
// without any token all report false; none of these is an error for callers.
func (s *Store) Load() (*Credentials, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug(storeSubsystem, "No stored credentials found at %s", s.path)
		} else {
			logging.Warn(storeSubsystem, "Failed to read stored credentials: %v", err)
		}
		return nil, false
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		logging.Warn(storeSubsystem, "Failed to load stored credentials: %v", err)
		return nil, false
	}
	if creds.Token == "" && creds.RefreshToken == "" {
		logging.Warn(storeSubsystem, "Stored credentials at %s contain no token", s.path)
		return nil, false
	}

	creds.applyDefaults()
	logging.Debug(storeSubsystem, "Successfully loaded stored credentials")
	return &creds, true
}

// Save writes the record with owner-only permissions. The file is written
// under a temporary name that is already 0600 and then renamed into place, so
// the target path never exists with wider permissions.
func (s *Store) Save(creds *Credentials) error {
	if creds == nil {
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary credentials file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to secure credentials file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to move credentials into place: %w", err)
	}
	// Rename keeps the temp file's mode, but an explicit chmod also covers
	// filesystems that do not.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("failed to secure credentials file: %w", err)
	}

	logging.Debug(storeSubsystem, "Saved credentials to %s", s.path)
	return nil
}

// Delete removes the credential file. Deleting a missing file is not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stored credentials: %w", err)
	}
	return nil
}
