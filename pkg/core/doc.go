// Package core provides a small, stable facade over hexward's internal engine
// for external integrations. It re-exports a narrow API surface so that other
// tools can depend on a stable import path without importing internal
// packages.
//
// Example:
//
//	cfg := core.Config{HashDB: "main.hdb", PatternDB: "main.ndb"}
//	rep, err := core.Scan(ctx, cfg, ".")
//	if err != nil { /* handle */ }
//	_ = core.MarshalReport(os.Stdout, rep)
package core
