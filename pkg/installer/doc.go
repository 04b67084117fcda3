// Package installer carries every asset of a source tree into the install
// layout.
//
// Each asset goes through the same sequence, one asset at a time:
//
//	Discovered -> SymlinkCheck -> Symlinked                      -> Done
//	                           -> ConfigDiverted                 -> Done
//	                           -> Transform -> MinifyOrCopy -> Compress -> Done
//
// Configuration files skip the symlink check so their content reaches the
// config directory verbatim; the install location then links to it.
// Assets that resolve to a system copy become symlinks and nothing else
// happens to them.
//
// Every run deletes and recreates what it writes: destinations, links and
// compressed siblings. Running it twice over the same tree yields the same
// result, and an interrupted run is repaired by running it again.
package installer
