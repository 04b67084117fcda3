// Package filesystem provides the OS implementation of types.FS and the
// small set of idempotent file primitives the installer builds on:
// remove-then-recreate copies, symlink replacement and permission
// normalization.
package filesystem
