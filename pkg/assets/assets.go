// Package assets discovers the files of a source tree that the installer
// carries through the pipeline.
package assets

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/webinstall/pkg/errors"
	"github.com/arthur-debert/webinstall/pkg/logging"
	"github.com/arthur-debert/webinstall/pkg/types"
)

// Classifier reports whether the asset at a relative path is a
// configuration file
type Classifier func(relPath string) bool

// Enumerate returns every regular file under root, grouped by directory
// relative to root. Directories come in traversal order and files are
// sorted within each directory. Files ending with tempSuffix are leftovers
// of an interrupted run and are skipped. isConfig, when not nil, marks the
// configuration assets.
//
// A symlinked root is followed; symlinks below it are not.
func Enumerate(fsys types.FS, root, tempSuffix string, isConfig Classifier) ([]types.AssetGroup, error) {
	logger := logging.GetLogger("assets")

	info, err := fsys.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceNotFound, "source tree %s not found", root)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrSourceNotFound, "source tree %s is not a directory", root)
	}
	walkRoot, err := fsys.EvalSymlinks(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceNotFound, "failed to resolve source tree %s", root)
	}

	var groups []types.AssetGroup
	index := make(map[string]int)

	err = fsys.WalkDir(walkRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if rel == "." {
				rel = ""
			}
			index[rel] = len(groups)
			groups = append(groups, types.AssetGroup{Dir: rel})
			return nil
		}
		if !d.Type().IsRegular() {
			logger.Debug().Str("path", rel).Msg("Skipping non-regular file")
			return nil
		}
		if tempSuffix != "" && strings.HasSuffix(rel, tempSuffix) {
			logger.Debug().Str("path", rel).Msg("Skipping temporary file")
			return nil
		}
		dir := filepath.Dir(rel)
		if dir == "." {
			dir = ""
		}
		i := index[dir]
		asset := types.NewAsset(root, rel)
		if isConfig != nil && isConfig(rel) {
			asset = types.NewConfigAsset(root, rel)
		}
		groups[i].Assets = append(groups[i].Assets, asset)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to walk %s", root)
	}

	// empty directories carry nothing to install
	result := groups[:0]
	for _, g := range groups {
		if len(g.Assets) == 0 {
			continue
		}
		sort.Slice(g.Assets, func(i, j int) bool {
			return g.Assets[i].RelPath < g.Assets[j].RelPath
		})
		result = append(result, g)
	}

	logger.Debug().Str("root", root).Int("directories", len(result)).Msg("Enumerated source tree")
	return result, nil
}
