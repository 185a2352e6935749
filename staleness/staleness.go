// Package staleness decides whether compiled circuit artifacts are out of date with respect
// to their sources, by comparing modification times.
package staleness

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Pattern is a glob rooted at a literal directory. Dir is never interpreted as a pattern,
// so project paths containing glob metacharacters still match their own files.
type Pattern struct {
	Dir string
	// Glob is slash separated and relative to Dir.
	Glob string
}

// Glob returns the pattern matching glob under dir.
func Glob(dir, glob string) Pattern {
	return Pattern{Dir: dir, Glob: glob}
}

// File returns a pattern matching exactly the file at p.
func File(p string) Pattern {
	return Pattern{Dir: filepath.Dir(p), Glob: escapeMeta(filepath.Base(p))}
}

func (p Pattern) String() string {
	return path.Join(filepath.ToSlash(p.Dir), p.Glob)
}

var metaEscaper = strings.NewReplacer(
	`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`, `{`, `\{`, `}`, `\}`,
)

func escapeMeta(s string) string {
	return metaEscaper.Replace(s)
}

// LatestModTime returns the newest modification time among the files matching p.
// ok is false when nothing matches.
func LatestModTime(p Pattern) (latest time.Time, ok bool, err error) {
	if _, err := os.Stat(p.Dir); err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, errors.Wrapf(err, "stat %s", p.Dir)
	}

	matches, err := doublestar.Glob(os.DirFS(p.Dir), p.Glob, doublestar.WithFilesOnly())
	if err != nil {
		return time.Time{}, false, errors.Wrapf(err, "globbing %s", p)
	}
	for _, match := range matches {
		info, err := os.Stat(filepath.Join(p.Dir, filepath.FromSlash(match)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return time.Time{}, false, errors.Wrapf(err, "stat %s", match)
		}
		if !ok || info.ModTime().After(latest) {
			latest = info.ModTime()
			ok = true
		}
	}
	return latest, ok, nil
}

// NeedsRebuild reports whether the artifacts matching artifacts must be rebuilt from the
// sources matching sources. It is true when there are no artifacts, when there are no
// sources, or when the newest source is strictly newer than the newest artifact.
func NeedsRebuild(sources, artifacts Pattern) (bool, error) {
	artifactTime, ok, err := LatestModTime(artifacts)
	if err != nil || !ok {
		return true, err
	}
	sourceTime, ok, err := LatestModTime(sources)
	if err != nil || !ok {
		return true, err
	}
	return sourceTime.After(artifactTime), nil
}
