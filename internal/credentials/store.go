// Package credentials persists the storage service key pair on disk. The
// store is read once at startup and written whenever the user re-enters or
// re-verifies keys.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jbrick2070/Archival-Flow/internal/archive"
	"github.com/jbrick2070/Archival-Flow/internal/config"
)

const fileName = "credentials.yaml"

// Record is the persisted credential triple.
type Record struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Verified  bool   `yaml:"verified"`
}

// Pair converts the record into the transport's credential type.
func (r Record) Pair() archive.Credentials {
	return archive.Credentials{AccessKey: r.AccessKey, SecretKey: r.SecretKey}
}

// Present reports whether both keys are stored.
func (r Record) Present() bool {
	return r.Pair().Present()
}

// Load reads the stored record. A missing file yields a zero record, not an
// error.
func Load() (Record, error) {
	path, err := storePath()
	if err != nil {
		return Record{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, nil
		}
		return Record{}, fmt.Errorf("failed to read credential store: %w", err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode credential store: %w", err)
	}
	return rec, nil
}

// Save writes the record with owner-only permissions.
func Save(rec Record) error {
	path, err := storePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode credential store: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential store: %w", err)
	}
	return nil
}

func storePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}
