package signatures

import (
	"errors"
	"regexp"
	"strings"
)

// wildcard tokens expand over whole bytes, i.e. pairs of hex digits.
var wildcards = strings.NewReplacer(
	"*", "(?:..)*",
	"?", ".",
	"-", ",",
	"{", "(?:..){",
)

// openLowerBound rewrites `{,n}` to `{0,n}`; RE2 reads the former literally.
var openLowerBound = regexp.MustCompile(`\{,`)

// Rewrite translates a wildcard hex pattern into regular expression syntax
// without compiling it.
func Rewrite(pattern string) string {
	expr := wildcards.Replace(strings.ToLower(strings.TrimSpace(pattern)))
	return openLowerBound.ReplaceAllString(expr, "{0,")
}

// Matcher finds a compiled wildcard pattern in hex text. Matches may only
// start and end on a byte boundary, i.e. an even hex offset.
type Matcher struct {
	loose   *regexp.Regexp
	aligned *regexp.Regexp
}

// Compile turns a wildcard hex pattern into a Matcher.
func Compile(pattern string) (*Matcher, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, errors.New("empty pattern")
	}
	expr := Rewrite(pattern)
	loose, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	aligned, err := regexp.Compile(`^(?:..)*?(` + expr + `)(?:..)*$`)
	if err != nil {
		return nil, err
	}
	return &Matcher{loose: loose, aligned: aligned}, nil
}

// Find returns the hex offsets of the leftmost byte-aligned match, or nil.
func (m *Matcher) Find(hexContent string) []int {
	// Without any match there is no aligned one; the unanchored scan is cheap.
	if !m.loose.MatchString(hexContent) {
		return nil
	}
	loc := m.aligned.FindStringSubmatchIndex(hexContent)
	if loc == nil {
		return nil
	}
	return loc[2:4]
}
