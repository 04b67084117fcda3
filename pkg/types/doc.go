// Package types defines the data model shared by the install pipeline:
// assets discovered in the source tree, their resolved install targets,
// the tool availability probed once per run and the per-asset outcomes
// collected into a Report. It also declares the FS abstraction every
// stage performs its filesystem work through.
package types
