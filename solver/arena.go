package solver

// This file deals with the clause arena: long clauses are addressed through
// stable offsets rather than pointers, so that watchers and reasons can be
// copied freely while clause bodies move or shrink in place. Offset 0 is the
// null offset.

type arena struct {
	clauses []*Clause          // Clause bodies, indexed by offset - 1.
	offsets map[*Clause]uint32 // Reverse lookup for detach and reattach.
}

func newArena() arena {
	return arena{offsets: make(map[*Clause]uint32)}
}

// alloc registers c and returns its stable offset. A clause that is already
// in the arena (detached then reattached after an in-place shrink) keeps its
// original offset and number.
func (a *arena) alloc(c *Clause) uint32 {
	if off, ok := a.offsets[c]; ok {
		return off
	}
	a.clauses = append(a.clauses, c)
	off := uint32(len(a.clauses))
	c.num = off - 1
	a.offsets[c] = off
	return off
}

// offset returns the stable offset of c, or 0 if c never entered the arena.
func (a *arena) offset(c *Clause) uint32 {
	return a.offsets[c]
}

// pointer returns the clause stored at the given offset.
func (a *arena) pointer(off uint32) *Clause {
	return a.clauses[off-1]
}
