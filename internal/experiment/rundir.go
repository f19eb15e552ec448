package experiment

import (
	"time"

	"github.com/nvandessel/labnote/internal/pathutil"
)

// DefaultRoot is the output root used by RunDir.
const DefaultRoot = "data"

// RunDir returns data/<name>/<local date and time>, e.g.
// "data/gradient-descent/2024.03.09-14h05". Callers may use any directory;
// this is only a naming convention.
func RunDir(name string) string {
	return pathutil.RunDirAt(DefaultRoot, name, time.Now())
}
