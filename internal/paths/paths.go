// Package paths resolves where NotionVox keeps its config, models and scratch
// audio. It imports only the standard library so every package can use it.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the base directory (default ~/.notionvox).
const HomeEnv = "NOTIONVOX_HOME"

// ConfigNames are probed in order, first in the working directory and then
// in the base directory.
var ConfigNames = []string{"notionvox.json", "notionvox.yaml", "notionvox.yml", "notionvox.toml"}

func baseDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return ExpandTilde(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("paths: home directory: %w", err)
	}
	return filepath.Join(home, ".notionvox"), nil
}

// DataPath joins sub onto the base directory.
func DataPath(sub string) (string, error) {
	base, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, sub), nil
}

// ConfigPath finds the config file to load. ("", nil) means none exists,
// which is fine: the environment alone can configure the bot.
func ConfigPath() (string, error) {
	base, err := baseDir()
	if err != nil {
		base = ""
	}
	for _, dir := range []string{".", base} {
		if dir == "" {
			continue
		}
		for _, name := range ConfigNames {
			p := filepath.Join(dir, name)
			if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
				return filepath.Abs(p)
			}
		}
	}
	return "", nil
}

// DefaultConfigPath is where `setup` writes a new config.
func DefaultConfigPath() (string, error) {
	return DataPath(ConfigNames[0])
}

// DefaultMediaDir is the scratch directory for downloaded voice notes. It
// falls back to the OS temp dir on hosts without a home directory.
func DefaultMediaDir() string {
	if dir, err := DataPath("media"); err == nil {
		return dir
	}
	return filepath.Join(os.TempDir(), "notionvox", "media")
}

// EnsureDir creates path with 0750 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("paths: mkdir %s: %w", path, err)
	}
	return nil
}

func EnsureParentDir(file string) error {
	return EnsureDir(filepath.Dir(file))
}

// ExpandTilde replaces a leading "~" or "~/" with the home directory.
// "~user" forms are returned untouched.
func ExpandTilde(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("paths: home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}
