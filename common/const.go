package common

import (
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultCapacity   = 16
	DefaultBufferSize = 1 << 20
	DefaultTimeout    = 10 * time.Second
	DefaultDeadline   = 30 * time.Second
	DefaultUserAgent  = "murl/1.0"
	DefaultOutputDir  = "."
)

// HistoryFileName is the database file created under ConfigDir.
const HistoryFileName = "history.db"

// ConfigDir is the per-user directory murl keeps its state in.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "murl"), nil
}

// HistoryPath resolves the history database location, preferring the
// HistoryDBEnv override.
func HistoryPath() (string, error) {
	if p := os.Getenv(HistoryDBEnv); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, HistoryFileName), nil
}
