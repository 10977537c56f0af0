package scene

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/gobwas/glob"
)

// RegexPrefix selects a regular expression instead of a glob for an actor pattern.
// Regular expressions must match the whole actor name.
const RegexPrefix = "re:"

// regexTimeout bounds a single regexp2 match, which backtracks.
const regexTimeout = 100 * time.Millisecond

// Matcher tests actor names against a compiled pattern.
type Matcher interface {
	// Match reports whether name is selected by the pattern.
	//
	// Parameters:
	//   - name: the actor name
	//
	// Returns:
	//   - bool: true when the name matches
	Match(name string) bool
}

type globMatcher struct {
	g glob.Glob
}

func (m globMatcher) Match(name string) bool {
	return m.g.Match(name)
}

type regexMatcher struct {
	re *regexp2.Regexp
}

// Match treats a match timeout as no match.
func (m regexMatcher) Match(name string) bool {
	ok, err := m.re.MatchString(name)
	return err == nil && ok
}

// CompilePattern compiles an actor pattern. Patterns are shell globs ("enemy_*", "*",
// "{player,boss}", "[ab]?") unless prefixed with RegexPrefix.
//
// Parameters:
//   - pattern: the pattern source
//
// Returns:
//   - Matcher: the compiled matcher
//   - error: the compile error
func CompilePattern(pattern string) (Matcher, error) {
	if expr, ok := strings.CutPrefix(pattern, RegexPrefix); ok {
		re, err := regexp2.Compile("^(?:"+expr+")$", regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("failed to compile regex: %w", err)
		}
		re.MatchTimeout = regexTimeout
		return regexMatcher{re: re}, nil
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile glob: %w", err)
	}
	return globMatcher{g: g}, nil
}

// patternCache keeps compiled matchers by pattern source for the life of a scene.
type patternCache struct {
	matchers map[string]Matcher
}

func newPatternCache() *patternCache {
	return &patternCache{matchers: make(map[string]Matcher)}
}

func (c *patternCache) get(pattern string) (Matcher, error) {
	if m, ok := c.matchers[pattern]; ok {
		return m, nil
	}
	m, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	c.matchers[pattern] = m
	return m, nil
}
