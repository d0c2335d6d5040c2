package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/roelfdiedericks/notionvox/internal/logging"
)

// DefaultBackupCount is how many previous versions Save keeps.
const DefaultBackupCount = 3

// Save writes cfg to path as indented JSON with 0600 permissions. The file it
// replaces becomes path.bak; older copies shift to path.bak.1, path.bak.2.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	if prev, err := os.ReadFile(path); err == nil {
		rotateBackups(path, DefaultBackupCount)
		if err := os.WriteFile(backupName(path, 0), prev, 0o600); err != nil {
			L_warn("config: backup failed, saving anyway", "path", path, "error", err)
		}
	}

	if err := AtomicWrite(path, append(data, '\n'), 0o600); err != nil {
		return err
	}
	L_debug("config: saved", "path", path)
	return nil
}

func backupName(path string, n int) string {
	if n == 0 {
		return path + ".bak"
	}
	return fmt.Sprintf("%s.bak.%d", path, n)
}

// rotateBackups frees the .bak slot, dropping the oldest of keep copies.
func rotateBackups(path string, keep int) {
	if keep < 1 {
		return
	}
	_ = os.Remove(backupName(path, keep-1))
	for n := keep - 2; n >= 0; n-- {
		if err := os.Rename(backupName(path, n), backupName(path, n+1)); err != nil && !os.IsNotExist(err) {
			L_trace("config: rotate backup", "from", backupName(path, n), "error", err)
		}
	}
}

// AtomicWrite replaces path with data via a synced temp file in the same
// directory, so readers (and the config watcher) never see a partial file.
func AtomicWrite(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".notionvox-*.tmp")
	if err != nil {
		return fmt.Errorf("config: temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("config: replace %s: %w", path, err)
	}
	return nil
}
