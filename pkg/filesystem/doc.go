// Package filesystem provides the tree operations the deploy pipeline is
// built from: recursive copy, emptying a directory in place, and listing
// files. Everything works against an afero.Fs, so the same code runs on the
// OS filesystem in production and on an in-memory filesystem in tests.
package filesystem
