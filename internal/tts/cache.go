package tts

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cache is a content-addressed audio cache on disk. Keys must incorporate
// the spoken text plus every parameter that affects audio output, so that a
// knob change never reuses stale audio.
type Cache struct {
	dir       string
	urlPrefix string
}

// NewCache creates a cache rooted at dir, served publicly under urlPrefix
// (e.g. "/static/cache"). The directory is created if missing.
func NewCache(dir, urlPrefix string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Key hashes the given parts into a cache key.
func Key(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "_")))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the public URL of a cached entry, if present.
func (c *Cache) Lookup(key, ext string) (string, bool) {
	name := key + "." + ext
	if _, err := os.Stat(filepath.Join(c.dir, name)); err != nil {
		return "", false
	}
	return c.urlPrefix + "/" + name, true
}

// Store writes an entry. Failures are returned so callers can log them;
// the generated audio is still usable from the output directory.
func (c *Cache) Store(key, ext string, data []byte) error {
	return os.WriteFile(filepath.Join(c.dir, key+"."+ext), data, 0o644)
}
