package assets

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var stickerNameRe = regexp.MustCompile(`(?i)^[a-z0-9][a-z0-9_-]{0,63}$`)

// audio extensions in priority order
var stickerAudioExts = []string{"mp3", "wav", "ogg"}

// Sticker is a resolved sticker: an animation URL and an optional audio URL.
type Sticker struct {
	Name     string
	ImageURL string
	AudioURL string
}

// StickerLibrary resolves stickers stored one directory per name.
type StickerLibrary struct {
	dir       string
	urlPrefix string
}

// NewStickerLibrary creates a library rooted at dir. urlPrefix is the public
// path under which the directory is served, e.g. "/static/stickers".
func NewStickerLibrary(dir, urlPrefix string) *StickerLibrary {
	return &StickerLibrary{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

// ValidStickerName reports whether name is a safe sticker identifier.
func ValidStickerName(name string) bool {
	return stickerNameRe.MatchString(name)
}

// Resolve finds the assets for a sticker name. The animation file is
// required (exact sticker.gif preferred, else the lexicographically first
// *.gif); the audio file is optional (sound.<ext> preferred per extension
// priority, else the lexicographically first match within the first
// extension that has any).
func (l *StickerLibrary) Resolve(name string) (Sticker, bool) {
	if !ValidStickerName(name) {
		return Sticker{}, false
	}

	dir := filepath.Join(l.dir, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Sticker{}, false
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	image := pickAsset(files, "sticker.gif", "gif")
	if image == "" {
		return Sticker{}, false
	}

	s := Sticker{
		Name:     name,
		ImageURL: l.urlPrefix + "/" + name + "/" + image,
	}

	for _, ext := range stickerAudioExts {
		if audio := pickAsset(files, "sound."+ext, ext); audio != "" {
			s.AudioURL = l.urlPrefix + "/" + name + "/" + audio
			break
		}
	}

	return s, true
}

// List returns the names of all resolvable stickers, sorted.
func (l *StickerLibrary) List() []string {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, ok := l.Resolve(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// pickAsset returns exact if present, else the first file (files must be
// sorted) with the given extension.
func pickAsset(files []string, exact, ext string) string {
	suffix := "." + ext
	first := ""
	for _, f := range files {
		if f == exact {
			return f
		}
		if first == "" && strings.HasSuffix(f, suffix) {
			first = f
		}
	}
	return first
}
