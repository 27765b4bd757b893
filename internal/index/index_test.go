package index_test

import (
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/ffd/internal/index"
)

type node struct {
	id, parent uint64
	name       string
}

// tree is C:\Users\alice\Documents\Report.DOCX plus a sibling branch.
var tree = []node{
	{10, 5, "Users"},
	{11, 10, "alice"},
	{12, 11, "Documents"},
	{13, 12, "Report.DOCX"},
	{14, 10, "bob"},
	{15, 14, "notes.txt"},
}

func build(nodes []node) *index.Index {
	idx := index.New("C:", len(nodes))
	for _, n := range nodes {
		idx.Insert(n.id, n.parent, n.name, false)
	}
	return idx
}

// expectedPath walks the node list directly, independent of the index.
func expectedPath(nodes []node, id uint64) string {
	byID := make(map[uint64]node, len(nodes))
	for _, n := range nodes {
		byID[n.id] = n
	}
	var parts []string
	for n, ok := byID[id]; ok; n, ok = byID[n.parent] {
		parts = append(parts, n.name)
	}
	parts = append(parts, "C:")
	slices.Reverse(parts)
	return strings.Join(parts, `\`)
}

func TestPathOf(t *testing.T) {
	t.Parallel()

	idx := build(tree)
	p, ok := idx.PathOf(13)
	require.True(t, ok)
	assert.Equal(t, `C:\Users\alice\Documents\Report.DOCX`, p)

	p, ok = idx.PathOf(10)
	require.True(t, ok)
	assert.Equal(t, `C:\Users`, p)

	_, ok = idx.PathOf(999)
	assert.False(t, ok)
}

func TestPathOf_IndependentOfInsertionOrder(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		nodes := slices.Clone(tree)
		rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
		idx := build(nodes)
		for _, n := range tree {
			p, ok := idx.PathOf(n.id)
			require.True(t, ok)
			assert.Equal(t, expectedPath(tree, n.id), p)
		}
	}
}

func TestPathOf_FollowsMutations(t *testing.T) {
	t.Parallel()

	idx := build(tree)
	live := slices.Clone(tree)

	// Move alice's Documents under bob, then rename bob.
	idx.Insert(12, 14, "Documents", false)
	live[2].parent = 14
	idx.Insert(14, 10, "robert", false)
	live[4].name = "robert"
	// Delete notes.txt.
	idx.Remove(15)
	live = slices.DeleteFunc(live, func(n node) bool { return n.id == 15 })

	for _, n := range live {
		p, ok := idx.PathOf(n.id)
		require.True(t, ok)
		assert.Equal(t, expectedPath(live, n.id), p)
	}
	p, _ := idx.PathOf(13)
	assert.Equal(t, `C:\Users\robert\Documents\Report.DOCX`, p)
}

func TestPathOf_CycleGuard(t *testing.T) {
	t.Parallel()

	idx := index.New("C:", 0)
	idx.Insert(1, 2, "a", true)
	idx.Insert(2, 3, "b", true)
	idx.Insert(3, 1, "c", true)
	idx.Insert(4, 1, "leaf", false)
	idx.Insert(7, 7, "self", true)

	for _, id := range []uint64{1, 2, 3, 4, 7} {
		_, ok := idx.PathOf(id)
		assert.False(t, ok, "id %d", id)
	}
}

func TestPathOf_DepthBound(t *testing.T) {
	t.Parallel()

	idx := index.New("C:", index.MaxDepth+1)
	for i := uint64(1); i <= index.MaxDepth; i++ {
		idx.Insert(i, i-1, "d", true)
	}
	p, ok := idx.PathOf(index.MaxDepth)
	require.True(t, ok, "a chain of exactly MaxDepth names resolves")
	assert.Equal(t, index.MaxDepth, strings.Count(p, `\`))

	idx.Insert(index.MaxDepth+1, index.MaxDepth, "d", true)
	_, ok = idx.PathOf(index.MaxDepth + 1)
	assert.False(t, ok)
}

func TestInsert_Idempotent(t *testing.T) {
	t.Parallel()

	once := build(tree)
	twice := build(tree)
	twice.Insert(13, 12, "Report.DOCX", false)

	assert.Equal(t, once.Len(), twice.Len())
	assert.Equal(t, once.Digest(), twice.Digest())
}

func TestDigest_DetectsChanges(t *testing.T) {
	t.Parallel()

	a := build(tree)
	b := build(tree)
	assert.Equal(t, a.Digest(), b.Digest())

	b.Insert(13, 12, "report.docx", false)
	assert.NotEqual(t, a.Digest(), b.Digest())

	b.Insert(13, 12, "Report.DOCX", true)
	assert.NotEqual(t, a.Digest(), b.Digest(), "directory flag is part of the digest")
}

func TestRemove(t *testing.T) {
	t.Parallel()

	idx := build(tree)
	e, ok := idx.Remove(15)
	require.True(t, ok)
	assert.Equal(t, "notes.txt", e.Name)

	_, ok = idx.Remove(15)
	assert.False(t, ok)
	assert.Equal(t, len(tree)-1, idx.Len())
}

func TestUpdate_Journal(t *testing.T) {
	t.Parallel()

	idx := build(tree)
	require.NoError(t, idx.Update(func(w *index.Writer) error {
		w.Reset(9, 1000)
		w.Insert(1, 5, "fresh", false)
		return nil
	}))
	id, cursor := idx.Journal()
	assert.Equal(t, uint64(9), id)
	assert.Equal(t, int64(1000), cursor)
	assert.Equal(t, 1, idx.Len())

	require.NoError(t, idx.Update(func(w *index.Writer) error { return w.Advance(1000) }))
	require.NoError(t, idx.Update(func(w *index.Writer) error { return w.Advance(2000) }))
	err := idx.Update(func(w *index.Writer) error { return w.Advance(1500) })
	require.ErrorIs(t, err, index.ErrCursorRegression)
	_, cursor = idx.Journal()
	assert.Equal(t, int64(2000), cursor)
}

func TestConcurrentUpdateAndSearch(t *testing.T) {
	t.Parallel()

	idx := build(tree)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 200 {
			_ = idx.Update(func(w *index.Writer) error {
				w.Insert(uint64(1000+i), 11, "temp.txt", false)
				w.Remove(uint64(1000 + i))
				return nil
			})
		}
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			for m := range idx.Search("report") {
				assert.Equal(t, uint64(13), m.ID)
			}
		}
	}()
	wg.Wait()
}

func TestInsert_MatchesUpdate(t *testing.T) {
	t.Parallel()

	direct := index.New("C:", 0)
	direct.Insert(1, 5, "a.txt", false)
	direct.Insert(2, 5, "b", true)
	direct.Remove(1)

	batched := index.New("C:", 0)
	require.NoError(t, batched.Update(func(w *index.Writer) error {
		w.Insert(1, 5, "a.txt", false)
		w.Insert(2, 5, "b", true)
		w.Remove(1)
		return nil
	}))

	assert.Equal(t, batched.Digest(), direct.Digest())
}

func TestWriter_Replace(t *testing.T) {
	t.Parallel()

	idx := build(tree)
	staged := index.New("C:", 0)
	require.NoError(t, staged.Update(func(w *index.Writer) error {
		w.Reset(7, 4096)
		w.Insert(1, 5, "fresh.txt", false)
		return nil
	}))

	require.NoError(t, idx.Update(func(w *index.Writer) error {
		w.Replace(staged)
		return nil
	}))

	assert.Equal(t, 1, idx.Len())
	id, cursor := idx.Journal()
	assert.Equal(t, uint64(7), id)
	assert.Equal(t, int64(4096), cursor)
	path, ok := idx.PathOf(1)
	require.True(t, ok)
	assert.Equal(t, `C:\fresh.txt`, path)
}
