package index

import (
	"iter"
	"slices"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Match is one search hit. Start and End are byte offsets of the matched
// text within Name, in the name's original case.
type Match struct {
	ID    uint64
	Path  string
	Name  string
	Start int
	End   int
	Dir   bool
}

// Prefix returns the part of the name before the match.
func (m Match) Prefix() string { return m.Name[:m.Start] }

// Matched returns the matched part of the name.
func (m Match) Matched() string { return m.Name[m.Start:m.End] }

// Suffix returns the part of the name after the match.
func (m Match) Suffix() string { return m.Name[m.End:] }

// Split divides Path into the text before the match, the match itself and
// the text after it, for highlighting.
func (m Match) Split() (before, matched, after string) {
	base := len(m.Path) - len(m.Name)
	return m.Path[:base+m.Start], m.Path[base+m.Start : base+m.End], m.Path[base+m.End:]
}

// Search returns every entry whose name contains query, ignoring case.
// Only the final name component is matched, never the directories above it.
// A name also matches when query and name agree after NFC normalization, so
// composed and decomposed accents find each other.
// Entries whose path cannot be rebuilt are skipped. The sequence holds a
// read lock while it is being ranged over and may be ranged over again for
// a fresh scan; order follows map iteration.
func (x *Index) Search(query string) iter.Seq[Match] {
	raw := foldRunes(query)
	composed := foldRunes(norm.NFC.String(query))
	return func(yield func(Match) bool) {
		if len(raw) == 0 {
			return
		}
		x.mu.RLock()
		defer x.mu.RUnlock()
		for id, e := range x.entries {
			start, end, ok := matchName(e.Name, raw, composed)
			if !ok {
				continue
			}
			path, ok := x.pathLocked(id)
			if !ok {
				continue
			}
			m := Match{ID: id, Path: path, Name: e.Name, Start: start, End: end, Dir: e.Dir}
			if !yield(m) {
				return
			}
		}
	}
}

func foldRunes(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, unicode.ToLower(r))
	}
	return out
}

// indexFold finds the first occurrence of needle (already lower-cased) in s
// and returns its byte span in s.
func indexFold(s string, needle []rune) (start, end int, ok bool) {
	for i := 0; i < len(s); {
		if n, ok := hasFoldPrefix(s[i:], needle); ok {
			return i, i + n, true
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return 0, 0, false
}

func hasFoldPrefix(s string, needle []rune) (int, bool) {
	j := 0
	for _, want := range needle {
		if j >= len(s) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(s[j:])
		if unicode.ToLower(r) != want {
			return 0, false
		}
		j += size
	}
	return j, true
}

// matchName looks for the query in name as stored, then in name's NFC form.
// Offsets always refer to name as stored.
func matchName(name string, raw, composed []rune) (start, end int, ok bool) {
	if start, end, ok = indexFold(name, raw); ok {
		return start, end, true
	}
	if norm.NFC.IsNormalString(name) {
		if slices.Equal(raw, composed) {
			return 0, 0, false
		}
		return indexFold(name, composed)
	}
	return indexFoldNFC(name, composed)
}

// indexFoldNFC matches needle against the NFC form of name and widens the
// hit to whole normalization segments of the original bytes.
func indexFoldNFC(name string, needle []rune) (start, end int, ok bool) {
	var buf []byte
	normAt := []int{0} // segment boundaries in buf
	origAt := []int{0} // the same boundaries in name
	for pos := 0; pos < len(name); {
		n := norm.NFC.NextBoundaryInString(name[pos:], true)
		if n <= 0 {
			n = len(name) - pos
		}
		buf = norm.NFC.AppendString(buf, name[pos:pos+n])
		pos += n
		normAt = append(normAt, len(buf))
		origAt = append(origAt, pos)
	}

	s, e, ok := indexFold(string(buf), needle)
	if !ok {
		return 0, 0, false
	}
	i, exact := slices.BinarySearch(normAt, s)
	if !exact {
		i--
	}
	j, _ := slices.BinarySearch(normAt, e)
	return origAt[i], origAt[j], true
}
