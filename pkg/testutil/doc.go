// Package testutil provides utilities for testing the install pipeline.
//
// Key components:
//   - TestEnvironment: an isolated source tree and install root in a temp
//     directory, with a ready Config pointing at them
//   - FakeRunner: a tools.Runner that scripts external tool behavior
//   - Snapshot: a content hash of a directory tree, symlinks included
//
// All test data should be defined inline, not in external files.
package testutil
