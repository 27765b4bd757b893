// Package filter narrows search results with rsync-style include and
// exclude glob rules evaluated against volume paths.
package filter

import "strings"

// Rule represents a single include or exclude filter rule.
type Rule struct {
	Pattern *compiledPattern
	Include bool // true=include, false=exclude
}

// Chain holds an ordered list of filter rules. The zero value and a nil
// *Chain both include everything.
type Chain struct {
	rules []Rule
}

// NewChain creates an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude adds an exclude rule for the given pattern.
func (c *Chain) AddExclude(pattern string) error {
	return c.add(pattern, false)
}

// AddInclude adds an include rule for the given pattern.
func (c *Chain) AddInclude(pattern string) error {
	return c.add(pattern, true)
}

func (c *Chain) add(pattern string, include bool) error {
	cp, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Pattern: cp, Include: include})
	return nil
}

// Empty reports whether the chain has no rules.
func (c *Chain) Empty() bool {
	return c == nil || len(c.rules) == 0
}

// Match returns true if path should be INCLUDED. path is a full volume
// path such as `C:\Users\alice\notes.txt`; isDir marks directories.
func (c *Chain) Match(path string, isDir bool) bool {
	if c.Empty() {
		return true
	}

	volume, rel := splitVolume(path)

	// First matching rule wins.
	for _, rule := range c.rules {
		if rule.Pattern.match(volume, rel, isDir) {
			return rule.Include
		}
	}

	// No match → include (default).
	return true
}

// splitVolume separates the drive label from the rest of path and returns
// the rest with forward slashes.
func splitVolume(path string) (volume, rel string) {
	volume, rel, _ = strings.Cut(path, `\`)
	if !strings.HasSuffix(volume, ":") {
		return "", strings.ReplaceAll(path, `\`, "/")
	}
	return volume, strings.ReplaceAll(rel, `\`, "/")
}
