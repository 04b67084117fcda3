// Package symlinks replaces vendored assets with links to copies that a
// distribution ships separately.
//
// Candidates are registered per base name as an ordered list of paths or
// glob patterns:
//
//	[[symlinks]]
//	name = "jquery.js"
//	candidates = [
//	  "/usr/share/javascript/jquery/jquery.js",
//	  "/usr/share/javascript/jquery/*/jquery.js",
//	]
//
// The first candidate that resolves to an existing path wins. A pattern
// is any candidate containing a glob metacharacter anywhere, including
// the first position; it resolves to its first match in lexical order.
package symlinks
