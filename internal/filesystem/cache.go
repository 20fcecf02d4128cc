package filesystem

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CachePrefix names the per-item scratch directories created next to media files.
const CachePrefix = ".vidplayer_cache_"

// NewCacheDir creates a scratch directory in the folder holding mediaPath.
func NewCacheDir(mediaPath string) (string, error) {
	dir, err := API().TempDir(filepath.Dir(mediaPath), CachePrefix)
	if err != nil {
		return "", fmt.Errorf("cache: create dir failed: %w", err)
	}
	return dir, nil
}

// RemoveCacheDir deletes a directory created by NewCacheDir. Other paths are left alone.
func RemoveCacheDir(dir string) error {
	if dir == "" || !strings.HasPrefix(filepath.Base(dir), CachePrefix) {
		return nil
	}
	if err := API().RemoveAll(dir); err != nil {
		return fmt.Errorf("cache: remove dir failed: %w", err)
	}
	return nil
}
