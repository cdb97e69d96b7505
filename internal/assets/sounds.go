package assets

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var soundNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// SoundLibrary looks up sound effects stored as <name>.mp3 under a directory.
type SoundLibrary struct {
	dir       string
	urlPrefix string
}

// NewSoundLibrary creates a library rooted at dir. urlPrefix is the public
// path under which the directory is served, e.g. "/static/sounds".
func NewSoundLibrary(dir, urlPrefix string) *SoundLibrary {
	return &SoundLibrary{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

// URL returns the public URL for a sound, or false if the name is invalid
// or no matching file exists.
func (l *SoundLibrary) URL(name string) (string, bool) {
	if !soundNameRe.MatchString(name) {
		return "", false
	}
	if _, err := os.Stat(filepath.Join(l.dir, name+".mp3")); err != nil {
		return "", false
	}
	return l.urlPrefix + "/" + name + ".mp3", true
}

// Exists reports whether a sound with the given name is available.
func (l *SoundLibrary) Exists(name string) bool {
	_, ok := l.URL(name)
	return ok
}

// List returns the names of all available sounds, sorted.
func (l *SoundLibrary) List() []string {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".mp3") {
			names = append(names, strings.TrimSuffix(e.Name(), ".mp3"))
		}
	}
	sort.Strings(names)
	return names
}
