package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDirPermissions is used for directories created by the pipeline.
const DefaultDirPermissions = 0755

// CreateDirectoryIfNotExists creates the directory and any missing parents.
func CreateDirectoryIfNotExists(dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ChangeExtension replaces the extension of path with ext (without dot).
// Multi-part extensions such as "description.txt" are allowed.
func ChangeExtension(path, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + "." + ext
}
