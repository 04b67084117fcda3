// Package config builds the immutable configuration of an install run.
//
// Values are layered with koanf, later sources overriding earlier ones:
//
//  1. embedded defaults (embedded/defaults.toml)
//  2. platform defaults derived from a Platform value
//  3. a user file: --config, $XDG_CONFIG_HOME/webinstall/config.toml or
//     webinstall.toml / webinstall.yaml in the working directory
//  4. WEBINSTALL_* environment variables
//  5. command line overrides
//
// Platform captures every piece of ambient state (OS, $PATH, working
// directory, $JAVA) once, so nothing downstream reads the environment.
//
// Symlink candidates are arrays of tables keyed by name because asset
// names contain dots, which koanf uses as its key delimiter:
//
//	[[symlinks]]
//	name = "jquery.js"
//	candidates = ["/usr/share/javascript/jquery/jquery.js"]
package config
