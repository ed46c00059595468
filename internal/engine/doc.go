// Package engine walks a directory tree, fingerprints each file, reuses
// cached verdicts for unchanged files and matches the rest against the
// signature store. Scans are cancellable at two checkpoints only: between
// files and between pattern signatures within one file. This package is
// internal; external consumers should use the facade in pkg/core.
package engine
