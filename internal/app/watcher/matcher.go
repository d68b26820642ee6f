package watcher

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"loglens/internal/app/errors"
)

// Matcher checks whether file paths belong to the watched log set
type Matcher interface {
	Match(path string) bool
	SkipDir(dirPath string) bool
}

// matcher implements the Matcher interface
type matcher struct {
	patterns []glob.Glob
	ignores  []glob.Glob
}

// NewMatcher compiles include and ignore glob patterns
func NewMatcher(includes, ignores []string) (Matcher, error) {
	m := &matcher{
		patterns: make([]glob.Glob, 0, len(includes)*2),
		ignores:  make([]glob.Glob, 0, len(ignores)*2),
	}

	for _, p := range expandPatterns(includes) {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.ErrInvalidGlob
		}

		m.patterns = append(m.patterns, g)
	}

	for _, p := range expandPatterns(ignores) {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.ErrInvalidGlob
		}

		m.ignores = append(m.ignores, g)
	}

	return m, nil
}

// expandPatterns expands patterns starting with **/ to also match at root level
func expandPatterns(patterns []string) []string {
	expanded := make([]string, 0, len(patterns)*2)

	for _, p := range patterns {
		expanded = append(expanded, p)

		if strings.HasPrefix(p, "**/") {
			expanded = append(expanded, strings.TrimPrefix(p, "**/"))
		}
	}

	return expanded
}

// Match returns true if the path matches any include pattern and is not ignored
func (m *matcher) Match(path string) bool {
	path = normalizePath(path)

	for _, ignore := range m.ignores {
		if ignore.Match(path) {
			return false
		}
	}

	for _, pattern := range m.patterns {
		if pattern.Match(path) {
			return true
		}
	}

	return false
}

// SkipDir returns true if a directory is covered by an ignore pattern
// and its whole subtree can be pruned from the walk.
func (m *matcher) SkipDir(dirPath string) bool {
	probe := normalizePath(dirPath + "/_probe")

	for _, ignore := range m.ignores {
		if ignore.Match(probe) {
			return true
		}
	}

	return false
}

// normalizePath converts path separators and removes leading ./
func normalizePath(path string) string {
	path = filepath.ToSlash(path)

	return strings.TrimPrefix(path, "./")
}
