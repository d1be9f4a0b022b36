package config

import (
	"os"
	"path/filepath"
)

// homeDir returns the default data directory, mirroring the teacher's
// memory.DefaultConfig() choice of ~/.hoofy — here ~/.agentic-assistant.
func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".agentic-assistant"), nil
}
