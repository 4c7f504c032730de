package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDBName is the catalog file name inside the wcimg directory.
const DefaultDBName = "runs.db"

// GlobalWcimgPath returns the path to the global .wcimg directory.
// On Unix: ~/.wcimg
// On Windows: %USERPROFILE%\.wcimg
func GlobalWcimgPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".wcimg"), nil
}

// DefaultDBPath returns ~/.wcimg/runs.db.
func DefaultDBPath() (string, error) {
	dir, err := GlobalWcimgPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultDBName), nil
}
