package index

import (
	"slices"
	"strings"
)

// PathOf rebuilds the full path of id by walking parent links up to the
// first parent the index does not know (the volume root). It returns false
// if id is absent or the walk exceeds MaxDepth.
func (x *Index) PathOf(id uint64) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.pathLocked(id)
}

func (x *Index) pathLocked(id uint64) (string, bool) {
	e, ok := x.entries[id]
	if !ok {
		return "", false
	}

	names := make([]string, 0, 16)
	names = append(names, e.Name)
	for cur := e.Parent; ; {
		p, ok := x.entries[cur]
		if !ok {
			break
		}
		if len(names) == MaxDepth {
			return "", false
		}
		names = append(names, p.Name)
		cur = p.Parent
	}

	names = append(names, x.root)
	slices.Reverse(names)
	return strings.Join(names, Separator), true
}

// PathOf is Index.PathOf for use inside Update.
func (w *Writer) PathOf(id uint64) (string, bool) {
	return w.x.pathLocked(id)
}
