// Package signatures loads the hash and pattern signature databases and
// matches file contents against them.
//
// Hash databases hold one `md5:size:name` entry per line. Pattern databases
// hold colon-delimited lines with the malware name in field 0 and a wildcard
// hex pattern in field 3. Patterns are compiled once into regular expressions
// that run over the lowercase hex encoding of a file, so match ranges are
// expressed in hex-character offsets.
package signatures
