package symlinks

import (
	"strings"

	"github.com/arthur-debert/webinstall/pkg/filesystem"
	"github.com/arthur-debert/webinstall/pkg/logging"
	"github.com/arthur-debert/webinstall/pkg/types"
	"github.com/rs/zerolog"
)

// Resolver links assets to system-installed replacements
type Resolver struct {
	fs         types.FS
	candidates types.SymlinkCandidates
	logger     zerolog.Logger
}

// NewResolver creates a resolver over the given candidate table
func NewResolver(fsys types.FS, candidates types.SymlinkCandidates) *Resolver {
	if candidates == nil {
		candidates = types.SymlinkCandidates{}
	}
	return &Resolver{
		fs:         fsys,
		candidates: candidates,
		logger:     logging.GetLogger("symlinks"),
	}
}

// Resolve tries the candidates registered under baseName. On the first
// existing one it replaces dest with a symlink to it and returns the link
// target. It returns false when nothing resolved, leaving dest untouched.
func (r *Resolver) Resolve(baseName, dest string) (string, bool, error) {
	return r.resolve(r.candidates[baseName], dest)
}

// ResolveList is Resolve with an explicit candidate list
func (r *Resolver) ResolveList(candidates []string, dest string) (string, bool, error) {
	return r.resolve(candidates, dest)
}

func (r *Resolver) resolve(candidates []string, dest string) (string, bool, error) {
	for _, candidate := range candidates {
		path, ok := r.expand(candidate)
		if !ok {
			continue
		}
		if _, err := r.fs.Stat(path); err != nil {
			continue
		}
		if err := filesystem.ReplaceWithSymlink(r.fs, path, dest); err != nil {
			return "", false, err
		}
		r.logger.Info().Str("dest", dest).Str("target", path).Msg("Symlinked from system copy")
		return path, true, nil
	}
	return "", false, nil
}

// expand turns a candidate into a concrete path. Patterns resolve to their
// first match; a pattern without matches is skipped.
func (r *Resolver) expand(candidate string) (string, bool) {
	if candidate == "" {
		return "", false
	}
	if !IsPattern(candidate) {
		return candidate, true
	}
	matches, err := r.fs.Glob(candidate)
	if err != nil {
		r.logger.Warn().Err(err).Str("pattern", candidate).Msg("Invalid symlink candidate pattern")
		return "", false
	}
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// IsPattern reports whether a candidate contains a glob metacharacter
func IsPattern(candidate string) bool {
	return strings.ContainsAny(candidate, "*?[")
}
