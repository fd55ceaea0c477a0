// Package testutil provides helpers for testing sdeploy components.
//
// Key components:
//   - WriteTree / ReadTree: declare and compare file trees inline
//   - MakeZip: build zip fixtures, including hostile entry names
//   - FailingFs: an afero.Fs wrapper that injects errors per operation and path
//
// Usage guidelines:
//   - Pipeline tests run on afero.NewMemMapFs(); only CLI and watcher tests
//     touch the real filesystem, always below t.TempDir()
//   - All test data should be defined inline, not in external files
package testutil
