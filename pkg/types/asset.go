package types

import (
	"path/filepath"
	"strings"
)

// Asset is a single file of the source tree destined for installation.
// Assets are discovered once per run and never mutated afterwards.
type Asset struct {
	// RelPath identifies the asset, relative to the source root
	RelPath string `json:"path"`
	// SourcePath is the absolute path of the file in the source tree
	SourcePath string `json:"source"`
	// Type is the file extension without the leading dot
	Type string `json:"type"`
	// IsConfig marks assets diverted to the configuration directory
	IsConfig bool `json:"config,omitempty"`
}

// NewAsset builds an asset from its source root and relative path
func NewAsset(sourceRoot, relPath string) Asset {
	return Asset{
		RelPath:    relPath,
		SourcePath: filepath.Join(sourceRoot, relPath),
		Type:       FileType(relPath),
	}
}

// NewConfigAsset builds an asset that is diverted to the configuration
// directory
func NewConfigAsset(sourceRoot, relPath string) Asset {
	a := NewAsset(sourceRoot, relPath)
	a.IsConfig = true
	return a
}

// BaseName returns the file name of the asset
func (a Asset) BaseName() string {
	return filepath.Base(a.RelPath)
}

// FileType derives an asset type from a file name
func FileType(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}

// AssetGroup holds the assets found in one directory of the source tree
type AssetGroup struct {
	// Dir is relative to the source root, empty for the root itself
	Dir    string
	Assets []Asset
}

// InstallTarget is where an asset ends up
type InstallTarget struct {
	// Dest is root + install dir + relative path
	Dest string
	// ConfigDest receives the content of configuration assets
	ConfigDest string
	// LinkTarget is what Dest points at for configuration assets. It
	// carries no root prefix so staged trees link to the final location.
	LinkTarget string
}

// SymlinkCandidates maps an asset base name to an ordered list of
// system-installed paths or glob patterns that may replace it
type SymlinkCandidates map[string][]string
