package file

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/citeqa/internal/logger"
)

// LoadDotEnv loads .env from the working directory and then from configDir.
// Variables already set in the process environment are never overwritten,
// and missing files are skipped.
func LoadDotEnv(configDir string) error {
	paths := []string{".env"}
	if configDir != "" {
		paths = append(paths, filepath.Join(configDir, ".env"))
	}

	for _, path := range paths {
		err := godotenv.Load(path)
		switch {
		case err == nil:
			logger.Debug("Loaded environment from %s", path)
		case errors.Is(err, fs.ErrNotExist):
			continue
		default:
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}
