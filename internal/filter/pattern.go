package filter

import (
	"regexp"
	"strings"
)

// compiledPattern is a compiled glob pattern that can match paths.
type compiledPattern struct {
	re       *regexp.Regexp
	original string
	volume   string // "D:" when the pattern names a drive
	anchored bool   // pattern starts at the volume root
	dirOnly  bool   // pattern ends with /
}

// compilePattern converts an rsync-style glob into a case-insensitive
// matcher. Backslashes are accepted as separators. A leading drive label
// ("D:/build/") restricts the pattern to that volume and anchors it.
func compilePattern(pattern string) (*compiledPattern, error) {
	cp := &compiledPattern{original: pattern}
	pattern = strings.ReplaceAll(pattern, `\`, "/")

	if len(pattern) >= 2 && pattern[1] == ':' && isDriveLetter(pattern[0]) {
		cp.volume = strings.ToUpper(pattern[:2])
		cp.anchored = true
		pattern = strings.TrimPrefix(pattern[2:], "/")
	}

	// Trailing / means directory-only.
	if strings.HasSuffix(pattern, "/") {
		cp.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	// Leading / means anchored to the volume root.
	if strings.HasPrefix(pattern, "/") {
		cp.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	} else if strings.Contains(pattern, "/") {
		// Contains a / but doesn't start with /: still anchored per rsync rules.
		cp.anchored = true
	}

	reStr := globToRegex(pattern)
	if cp.anchored {
		reStr = "^" + reStr + "$"
	} else {
		// Basename or any path suffix.
		reStr = "(^|/)" + reStr + "$"
	}

	// NTFS names compare case-insensitively.
	re, err := regexp.Compile("(?i)" + reStr)
	if err != nil {
		return nil, err
	}
	cp.re = re
	return cp, nil
}

// match tests whether rel, a slash-separated path below volume, matches.
func (cp *compiledPattern) match(volume, rel string, isDir bool) bool {
	if cp.dirOnly && !isDir {
		return false
	}
	if cp.volume != "" && !strings.EqualFold(cp.volume, volume) {
		return false
	}
	return cp.re.MatchString(rel)
}

func isDriveLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// globToRegex converts a glob pattern to a regex string.
//
//nolint:gocyclo,revive // cognitive-complexity: character-by-character glob parser
func globToRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch c {
		case '*':
			switch {
			case strings.HasPrefix(pattern[i:], "**/"):
				b.WriteString("(.*/)?")
				i += 3
			case strings.HasPrefix(pattern[i:], "**"):
				b.WriteString(".*")
				i += 2
			default:
				b.WriteString("[^/]*")
				i++
			}
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			end, cls, ok := charClass(pattern, i)
			if !ok {
				b.WriteString(regexp.QuoteMeta("["))
				i++
				continue
			}
			b.WriteString("[" + cls + "]")
			i = end + 1
		case '.', '(', ')', '+', '{', '}', '^', '$', '|':
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// charClass parses the bracket expression starting at pattern[i] and
// returns the index of its closing bracket and its regex body.
func charClass(pattern string, i int) (end int, cls string, ok bool) {
	j := i + 1
	if j < len(pattern) && pattern[j] == '!' {
		j++
	}
	if j < len(pattern) && pattern[j] == ']' {
		j++
	}
	for j < len(pattern) && pattern[j] != ']' {
		j++
	}
	if j >= len(pattern) {
		return 0, "", false
	}
	cls = pattern[i+1 : j]
	if strings.HasPrefix(cls, "!") {
		cls = "^" + cls[1:]
	}
	return j, cls, true
}
