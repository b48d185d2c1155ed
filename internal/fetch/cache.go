package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

var DefaultCacheDir = filepath.Join("output", "cache")

// CachePath names the cache file for a page URL under dir.
func CachePath(dir, urlStr string) string {
	if dir == "" {
		dir = DefaultCacheDir
	}
	h := sha256.Sum256([]byte(urlStr))
	return filepath.Join(dir, hex.EncodeToString(h[:])+".html")
}

// LoadCached returns a cached page, or false when none was saved.
func LoadCached(path string) (Result, bool) {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return Result{}, false
	}
	return Result{HTML: string(data), SourceInfo: "cache"}, true
}

func SaveToCache(path string, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0600)
}
