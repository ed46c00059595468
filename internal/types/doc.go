// Package types holds the verdict model shared by the signature store, the
// scan cache, the engine and the remediation helpers.
package types
