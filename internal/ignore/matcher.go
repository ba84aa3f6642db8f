// Package ignore matches vault paths against gitignore-style patterns.
//
// Patterns follow https://git-scm.com/docs/gitignore: '#' comments, '!'
// negation, trailing '/' for directories only, leading or inner '/' to
// anchor at the base directory, '*', '?', '[...]' and '**'. The last
// matching pattern decides.
package ignore

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Matcher holds compiled patterns. Safe for concurrent use.
type Matcher struct {
	mu    sync.RWMutex
	rules []rule
}

type rule struct {
	source   string
	re       *regexp.Regexp
	negate   bool
	dirOnly  bool
	anchored bool
	base     string // slash-separated directory the pattern is relative to
}

// New returns a Matcher holding the given root-level patterns.
func New(patterns ...string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		m.Add(p, "")
	}
	return m
}

// Add compiles one pattern line relative to base ("" for the vault root).
// Blank lines and comments are ignored.
func (m *Matcher) Add(line, base string) {
	r, ok := parseRule(line, filepath.ToSlash(base))
	if !ok {
		return
	}
	m.mu.Lock()
	m.rules = append(m.rules, r)
	m.mu.Unlock()
}

// AddFrom reads pattern lines from r.
func (m *Matcher) AddFrom(r io.Reader, base string) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m.Add(sc.Text(), base)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read ignore patterns: %w", err)
	}
	return nil
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rules)
}

// Match reports whether rel, a path relative to the vault root, is ignored.
func (m *Matcher) Match(rel string, isDir bool) bool {
	ignored, _ := m.decide(rel, isDir)
	return ignored
}

// decide returns the verdict of the last matching rule and whether any rule matched.
func (m *Matcher) decide(rel string, isDir bool) (ignored, matched bool) {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return false, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rules {
		if r.matches(rel, isDir) {
			ignored, matched = !r.negate, true
		}
	}
	return ignored, matched
}

func (r rule) matches(rel string, isDir bool) bool {
	if r.base != "" {
		if !strings.HasPrefix(rel, r.base+"/") {
			return false
		}
		rel = strings.TrimPrefix(rel, r.base+"/")
	}

	parts := strings.Split(rel, "/")
	for i := range parts {
		last := i == len(parts)-1
		if last && r.dirOnly && !isDir {
			continue
		}
		prefix := strings.Join(parts[:i+1], "/")
		if r.re.MatchString(prefix) {
			return true
		}
		if !r.anchored && r.re.MatchString(parts[i]) {
			return true
		}
	}
	return false
}

func parseRule(line, base string) (rule, bool) {
	keepTrailingSpace := strings.HasSuffix(line, `\ `)
	p := strings.TrimSpace(line)
	if p == "" || strings.HasPrefix(p, "#") {
		return rule{}, false
	}

	r := rule{source: p, base: strings.Trim(base, "/")}
	switch {
	case strings.HasPrefix(p, `\#`), strings.HasPrefix(p, `\!`):
		p = p[1:]
	case strings.HasPrefix(p, "!"):
		r.negate = true
		p = p[1:]
	}
	if keepTrailingSpace && strings.HasSuffix(p, `\`) {
		p = strings.TrimSuffix(p, `\`) + " "
	}
	if strings.HasSuffix(p, "/") {
		r.dirOnly = true
		p = strings.TrimSuffix(p, "/")
	}
	if strings.HasPrefix(p, "/") {
		r.anchored = true
		p = strings.TrimPrefix(p, "/")
	}
	if strings.Contains(p, "/") && !strings.HasPrefix(p, "*") {
		r.anchored = true
	}
	if p == "" {
		return rule{}, false
	}

	re, err := regexp.Compile("^" + globToRegexp(p) + "$")
	if err != nil {
		return rule{}, false
	}
	r.re = re
	return r, true
}

// globToRegexp translates a gitignore glob to a regular expression body.
func globToRegexp(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			double := i+1 < len(glob) && glob[i+1] == '*'
			switch {
			case double && i+2 < len(glob) && glob[i+2] == '/':
				b.WriteString("(?:.*/)?")
				i += 2
			case double && (i == 0 || glob[i-1] == '/'):
				b.WriteString(".*")
				i++
			default:
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 1
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(string(glob[i])))
			} else {
				b.WriteString(`\\`)
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}

// Chain evaluates matchers in order, shallowest directory first. The last
// matching rule across the whole chain decides.
type Chain []*Matcher

// Match reports whether rel is ignored by the chain.
func (c Chain) Match(rel string, isDir bool) bool {
	ignored := false
	for _, m := range c {
		if m == nil {
			continue
		}
		if v, ok := m.decide(rel, isDir); ok {
			ignored = v
		}
	}
	return ignored
}

// baseOf returns the slash-separated directory of a relative path, "" at the root.
func baseOf(rel string) string {
	dir := path.Dir(filepath.ToSlash(rel))
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
