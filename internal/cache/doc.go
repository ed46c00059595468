// Package cache persists per-path scan verdicts so repeat scans only match
// files whose contents changed. It also keeps the last scan report next to
// the cache for later remediation.
package cache
