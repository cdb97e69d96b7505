package tts

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// outputDir writes generated audio files under a public directory.
type outputDir struct {
	dir       string
	urlPrefix string
	clock     clockwork.Clock
}

func newOutputDir(dir, urlPrefix string, clock clockwork.Clock) (*outputDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio output dir: %w", err)
	}
	return &outputDir{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/"), clock: clock}, nil
}

// write stores data under a collision-free name and returns its public URL.
func (o *outputDir) write(username, ext string, data []byte) (string, error) {
	user := unsafeFilenameChars.ReplaceAllString(username, "")
	if user == "" {
		user = "user"
	}
	name := fmt.Sprintf("tts_%s_%s_%s.%s",
		user,
		o.clock.Now().Format("20060102_150405"),
		uuid.NewString()[:8],
		ext,
	)

	if err := os.WriteFile(filepath.Join(o.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}
	return o.urlPrefix + "/" + name, nil
}
