package index_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ffd/internal/index"
)

func collect(idx *index.Index, q string) []index.Match {
	return slices.Collect(idx.Search(q))
}

func TestSearch_ReportExample(t *testing.T) {
	t.Parallel()

	idx := index.New("C:", 1)
	idx.Insert(1, 0, "Report.DOCX", false)

	got := collect(idx, "report")
	require.Len(t, got, 1)
	m := got[0]
	assert.Equal(t, `C:\Report.DOCX`, m.Path)
	assert.Equal(t, 0, m.Start)
	assert.Equal(t, 6, m.End)
	assert.Equal(t, "Report", m.Matched())
	assert.Equal(t, "", m.Prefix())
	assert.Equal(t, ".DOCX", m.Suffix())
}

func TestSearch_MatchesNameOnly(t *testing.T) {
	t.Parallel()

	idx := build(tree)
	got := collect(idx, "alice")
	require.Len(t, got, 1, "descendants of alice do not match on their path")
	assert.Equal(t, uint64(11), got[0].ID)
}

func TestSearch_OffsetsInOriginalCase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, query     string
		before, matched string
	}{
		{"Quarterly-REPORT-final.pdf", "report", "Quarterly-", "REPORT"},
		{"ÜBERSICHT Ärger.txt", "ärger", "ÜBERSICHT ", "Ärger"},
		{"年度报告.xlsx", "报告", "年度", "报告"},
		{"ABC", "abc", "", "ABC"},
		{"xxabcabc", "ABC", "xx", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			idx := index.New("D:", 1)
			idx.Insert(1, 5, tt.name, false)

			got := collect(idx, tt.query)
			require.Len(t, got, 1)
			m := got[0]
			assert.Equal(t, tt.before, m.Prefix())
			assert.Equal(t, tt.matched, m.Matched())

			before, matched, after := m.Split()
			assert.Equal(t, `D:\`+tt.before, before)
			assert.Equal(t, tt.matched, matched)
			assert.Equal(t, m.Path, before+matched+after)
		})
	}
}

func TestSearch_NoMatch(t *testing.T) {
	t.Parallel()

	idx := build(tree)
	assert.Empty(t, collect(idx, "missing"))
	assert.Empty(t, collect(idx, ""), "empty query yields nothing")
}

func TestSearch_ComposedAndDecomposedNames(t *testing.T) {
	t.Parallel()

	idx := index.New("C:", 2)
	idx.Insert(1, 5, "caf\u00e9.txt", false)  // composed é
	idx.Insert(2, 5, "Cafe\u0301.txt", false) // e + combining acute

	tests := []struct {
		name  string
		query string
		want  map[uint64]string // id -> matched text
	}{
		{"decomposed query", "e\u0301", map[uint64]string{1: "\u00e9", 2: "e\u0301"}},
		{"composed query", "\u00e9", map[uint64]string{1: "\u00e9", 2: "e\u0301"}},
		{"whole word decomposed", "cafe\u0301", map[uint64]string{1: "caf\u00e9", 2: "Cafe\u0301"}},
		{"ascii prefix of decomposed name", "cafe", map[uint64]string{2: "Cafe"}},
		{"suffix after accent", "\u0301.TXT", map[uint64]string{2: "\u0301.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := map[uint64]string{}
			for _, m := range collect(idx, tt.query) {
				got[m.ID] = m.Matched()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearch_SkipsUnresolvablePaths(t *testing.T) {
	t.Parallel()

	idx := index.New("C:", 0)
	idx.Insert(1, 2, "loop-a", true)
	idx.Insert(2, 1, "loop-b", true)
	idx.Insert(3, 5, "loop-c", false)

	got := collect(idx, "loop")
	require.Len(t, got, 1)
	assert.Equal(t, `C:\loop-c`, got[0].Path)
}

func TestSearch_LazyAndRestartable(t *testing.T) {
	t.Parallel()

	idx := build(tree)
	seq := idx.Search("o")

	n := 0
	for range seq {
		n++
		break
	}
	assert.Equal(t, 1, n)

	all := slices.Collect(seq)
	// Documents, Report.DOCX, bob, notes.txt
	assert.Len(t, all, 4)

	idx.Insert(16, 14, "todo.md", false)
	assert.Len(t, slices.Collect(seq), 5, "each range is a fresh scan")
}
