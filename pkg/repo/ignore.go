package repo

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// IgnoreChecker decides whether a path is excluded from tracking. It
// understands the common .gitignore subset: literal names, * and ?
// globs, ** globstars, trailing-slash directory patterns, and !
// negation with last-match-wins. The .git directory is always ignored.
type IgnoreChecker struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern  string
	negated  bool
	dirOnly  bool
	hasSlash bool // pattern contains a slash, so match against full path
	regex    *regexp.Regexp
}

// NewIgnoreChecker creates an IgnoreChecker for the given repository
// root, loading .gitignore from it when present.
func NewIgnoreChecker(repoRoot string) *IgnoreChecker {
	ic := &IgnoreChecker{
		patterns: []ignorePattern{
			{pattern: ".git", dirOnly: true},
		},
	}

	f, err := os.Open(filepath.Join(repoRoot, ".gitignore"))
	if err == nil {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if p := parseIgnoreLine(scanner.Text()); p != nil {
				ic.patterns = append(ic.patterns, *p)
			}
		}
	}
	return ic
}

// parseIgnoreLine parses a single .gitignore line. Returns nil for
// blanks and comments.
func parseIgnoreLine(line string) *ignorePattern {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	p := &ignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	line = strings.TrimPrefix(line, "/")
	p.hasSlash = strings.Contains(line, "/")
	p.pattern = line
	if strings.Contains(line, "**") {
		if re, err := regexp.Compile(globToRegex(line)); err == nil {
			p.regex = re
		}
	}
	return p
}

// IsIgnored checks whether a repo-relative forward-slash path should be
// ignored. Last matching pattern wins.
func (ic *IgnoreChecker) IsIgnored(path string) bool {
	path = filepath.ToSlash(path)
	ignored := false
	for i := range ic.patterns {
		if ic.patterns[i].matches(path) {
			ignored = !ic.patterns[i].negated
		}
	}
	return ignored
}

// matches checks the given path against one pattern.
func (p *ignorePattern) matches(path string) bool {
	// Directory patterns match the directory itself and everything
	// beneath it.
	if p.dirOnly {
		if path == p.pattern || strings.HasPrefix(path, p.pattern+"/") {
			return true
		}
		if !p.hasSlash {
			// An unanchored dir pattern also matches nested directories.
			for _, seg := range strings.Split(path, "/") {
				if matched, _ := filepath.Match(p.pattern, seg); matched {
					return true
				}
			}
		}
		return false
	}

	if p.hasSlash {
		return p.match(path)
	}
	return p.match(pathBase(path))
}

func (p *ignorePattern) match(target string) bool {
	if p.regex != nil {
		return p.regex.MatchString(target)
	}
	matched, _ := filepath.Match(p.pattern, target)
	return matched
}

func pathBase(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// globToRegex translates a ** pattern into an anchored regexp: ** spans
// path segments, * and ? stay within one.
func globToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if ch == '*' {
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					b.WriteString("(?:.*/)?")
					i += 2
				} else {
					b.WriteString(".*")
					i++
				}
				continue
			}
			b.WriteString("[^/]*")
			continue
		}
		if ch == '?' {
			b.WriteString("[^/]")
			continue
		}
		if strings.ContainsRune(`.+()|[]{}^$\`, rune(ch)) {
			b.WriteByte('\\')
		}
		b.WriteByte(ch)
	}
	b.WriteString("$")
	return b.String()
}
