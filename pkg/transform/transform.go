// Package transform downgrades block-scoped declarations in scripts to
// their function-scoped form so older browsers can load them.
//
// The rewrite is purely textual and anchored at the start of each line.
// It does not understand strings, comments or template literals, and it
// drops the indentation of every line it rewrites. Consumers rely on this
// exact output, so it must stay a line-oriented substitution.
package transform

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/arthur-debert/webinstall/pkg/errors"
	"github.com/arthur-debert/webinstall/pkg/filesystem"
	"github.com/arthur-debert/webinstall/pkg/logging"
	"github.com/arthur-debert/webinstall/pkg/types"
	"github.com/rs/zerolog"
)

// Rule rewrites the start of a line
type Rule struct {
	Pattern *regexp.Regexp
	Replace string
}

// DefaultRules are tried in order; the first match wins for a line
var DefaultRules = []Rule{
	{regexp.MustCompile(`^\s*for\s*\(\s*let\s+`), "for(var "},
	{regexp.MustCompile(`^\s*let\s+`), "var "},
	{regexp.MustCompile(`^\s*for\s*\(\s*const\s+`), "for(var "},
	{regexp.MustCompile(`^\s*const\s+`), "var "},
}

// Source is the effective input for the stages after the transform
type Source struct {
	// Path is either the original file or a rewritten temporary sibling
	Path string
	// Transformed is true when Path is a temporary sibling
	Transformed bool

	fs types.FS
}

// Cleanup removes the temporary sibling, if any. It is safe to call more
// than once.
func (s *Source) Cleanup() error {
	if !s.Transformed {
		return nil
	}
	if err := filesystem.RemoveIfExists(s.fs, s.Path); err != nil {
		return err
	}
	s.Transformed = false
	return nil
}

// Transformer applies the rules to script and entry point assets
type Transformer struct {
	fs         types.FS
	rules      []Rule
	entryPoint string
	tempSuffix string
	logger     zerolog.Logger
}

// New creates a transformer with DefaultRules
func New(fsys types.FS, entryPoint, tempSuffix string) *Transformer {
	return &Transformer{
		fs:         fsys,
		rules:      DefaultRules,
		entryPoint: entryPoint,
		tempSuffix: tempSuffix,
		logger:     logging.GetLogger("transform"),
	}
}

// Applies reports whether the asset is subject to the rewrite
func (t *Transformer) Applies(asset types.Asset) bool {
	if asset.Type == "js" {
		return true
	}
	return t.entryPoint != "" && strings.HasSuffix(asset.RelPath, t.entryPoint)
}

// Prepare returns the effective source for an asset. When the rewrite
// changes the content, the new text is written next to the original with
// the temp suffix and the caller must call Cleanup once done with it.
func (t *Transformer) Prepare(asset types.Asset) (*Source, error) {
	src := &Source{Path: asset.SourcePath, fs: t.fs}
	if !t.Applies(asset) {
		return src, nil
	}

	original, err := t.fs.ReadFile(asset.SourcePath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", asset.SourcePath)
	}
	rewritten := t.Rewrite(original)
	if bytes.Equal(original, rewritten) {
		return src, nil
	}

	tmp := asset.SourcePath + t.tempSuffix
	if err := t.fs.WriteFile(tmp, rewritten, filesystem.FileMode); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", tmp)
	}
	if err := filesystem.Normalize(t.fs, tmp); err != nil {
		_ = t.fs.Remove(tmp)
		return nil, err
	}
	t.logger.Debug().Str("path", asset.RelPath).Msg("Downgraded declarations")
	src.Path = tmp
	src.Transformed = true
	return src, nil
}

// Rewrite applies the rules line by line. Line terminators are kept as
// they are, so content without matches comes back byte-identical.
func (t *Transformer) Rewrite(data []byte) []byte {
	lines := bytes.SplitAfter(data, []byte("\n"))
	var out bytes.Buffer
	out.Grow(len(data))
	for _, line := range lines {
		out.Write(t.RewriteLine(line))
	}
	return out.Bytes()
}

// RewriteLine applies the first matching rule to a single line. A
// trailing line terminator is never part of the match.
func (t *Transformer) RewriteLine(line []byte) []byte {
	body := bytes.TrimRight(line, "\r\n")
	eol := line[len(body):]
	for _, rule := range t.rules {
		if loc := rule.Pattern.FindIndex(body); loc != nil {
			rewritten := make([]byte, 0, len(line))
			rewritten = append(rewritten, rule.Replace...)
			rewritten = append(rewritten, body[loc[1]:]...)
			return append(rewritten, eol...)
		}
	}
	return line
}
