// Package ignore reads .hexwardignore files: one glob per line, '#' starts a
// comment, a trailing '/' limits a rule to directories and a leading '/'
// anchors it to the scan root. A rule that matches a directory excludes
// everything beneath it.
package ignore

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// FileName is looked up in the scan root.
const FileName = ".hexwardignore"

type rule struct {
	pattern  string
	dirOnly  bool
	anchored bool
}

// Matcher holds the rules of one ignore file. The nil Matcher matches
// nothing.
type Matcher struct {
	rules []rule
}

// Load reads an ignore file.
func Load(path string) (*Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads rules from r.
func Parse(r io.Reader) (*Matcher, error) {
	m := &Matcher{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ru := rule{pattern: line}
		if strings.HasSuffix(ru.pattern, "/") {
			ru.dirOnly = true
			ru.pattern = strings.TrimRight(ru.pattern, "/")
		}
		if strings.HasPrefix(ru.pattern, "/") {
			ru.anchored = true
			ru.pattern = strings.TrimLeft(ru.pattern, "/")
		}
		if ru.pattern != "" {
			m.rules = append(m.rules, ru)
		}
	}
	return m, sc.Err()
}

// Len returns the number of rules.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

// Match reports whether the file at rel (relative to the scan root) is
// ignored.
func (m *Matcher) Match(rel string) bool { return m.match(rel, false) }

// MatchDir reports whether the directory at rel is ignored.
func (m *Matcher) MatchDir(rel string) bool { return m.match(rel, true) }

func (m *Matcher) match(rel string, isDir bool) bool {
	if m == nil || len(m.rules) == 0 {
		return false
	}
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "./")
	segs := strings.Split(rel, "/")
	for _, r := range m.rules {
		for i := 1; i <= len(segs); i++ {
			if r.dirOnly && i == len(segs) && !isDir {
				continue
			}
			if r.matches(segs[:i]) {
				return true
			}
		}
	}
	return false
}

func (r rule) matches(segs []string) bool {
	if r.anchored || strings.Contains(r.pattern, "/") {
		ok, _ := doublestar.Match(r.pattern, strings.Join(segs, "/"))
		return ok
	}
	ok, _ := doublestar.Match(r.pattern, segs[len(segs)-1])
	return ok
}

// Append ensures pattern is present in root's ignore file, creating the
// file if needed. Idempotent.
func Append(root, pattern string) error {
	path := filepath.Join(root, FileName)
	existing := map[string]bool{}
	if f, err := os.Open(path); err == nil {
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			existing[strings.TrimSpace(sc.Text())] = true
		}
		_ = f.Close()
	}
	if existing[pattern] {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(pattern + "\n")
	return err
}
