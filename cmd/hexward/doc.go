// Package hexward provides the command-line interface for the hexward
// scanner. It configures subcommands (scan, fix, cache, etc.), parses flags,
// and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/hexward/hexward/cmd/hexward"
//	func main() { hexward.Execute() }
package hexward
