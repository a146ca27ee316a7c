package solver

import (
	"fmt"
	"sort"
	"strings"
)

// A watcher is a small tagged record stored in a literal's watchlist.
// Binary and ternary clauses live entirely inside their watchers; long
// clauses are referenced through their arena offset together with a cached
// blocker literal used as a fast satisfiability probe.
type watchKind uint8

const (
	wBinary = watchKind(iota)
	wTernary
	wLong
)

type watcher struct {
	kind     watchKind
	learnt   bool  // Binary only: learnt or core clause.
	watchNum uint8 // Long only: which of the clause's two watches this is.
	other    Lit   // Binary: the other lit. Ternary: first other lit. Long: blocker.
	other2   Lit   // Ternary only: second other lit.
	offset   uint32
}

// AttachBinary inserts the binary clause {a, b} in the watchlists. In each
// list the new watcher is swapped in front of the first non-binary entry, so
// binaries stay front-loaded at attach time.
func (s *Solver) AttachBinary(a, b Lit, learnt bool) {
	if a.Var() == b.Var() {
		panic("attach of a binary clause over a single variable")
	}
	s.checkAttachable(a)
	s.checkAttachable(b)
	if s.CheckAttach {
		if s.value(a) != Indet {
			panic("attach of a binary clause whose first literal is bound")
		}
		if s.value(b) == Sat {
			panic("attach of a binary clause whose second literal is true")
		}
	}
	s.pushBinWatch(a.Negation(), watcher{kind: wBinary, other: b, learnt: learnt})
	s.pushBinWatch(b.Negation(), watcher{kind: wBinary, other: a, learnt: learnt})
}

// pushBinWatch appends w and swaps it past the leading binaries into the
// first non-binary slot.
func (s *Solver) pushBinWatch(l Lit, w watcher) {
	ws := append(s.watches[l], w)
	for i := range ws {
		if ws[i].kind != wBinary {
			ws[i], ws[len(ws)-1] = ws[len(ws)-1], ws[i]
			break
		}
	}
	s.watches[l] = ws
}

// AttachClause inserts c in the watchlists, watching positions w0 and w1.
// Size-3 clauses are stored inline as three ternary watchers and never reach
// the arena; longer clauses get an arena offset, a meta record and two Long
// watchers whose blocker is the clause's middle literal.
func (s *Solver) AttachClause(c *Clause, w0, w1 int) {
	if c.Len() < 3 {
		panic("attach of a short clause: binary clauses use AttachBinary")
	}
	if c.Get(w0).Var() == c.Get(w1).Var() {
		panic("attach with both watches on a single variable")
	}
	for i := 0; i < c.Len(); i++ {
		s.checkAttachable(c.Get(i))
	}
	if s.CheckAttach {
		if s.value(c.Get(w0)) != Indet {
			panic("attach of a clause whose first watch is bound")
		}
		if s.value(c.Get(w1)) == Sat {
			panic("attach of a clause whose second watch is true")
		}
	}
	if c.Len() == 3 {
		l0, l1, l2 := c.Get(0), c.Get(1), c.Get(2)
		s.watches[l0.Negation()] = append(s.watches[l0.Negation()], watcher{kind: wTernary, other: l1, other2: l2})
		s.watches[l1.Negation()] = append(s.watches[l1.Negation()], watcher{kind: wTernary, other: l0, other2: l2})
		s.watches[l2.Negation()] = append(s.watches[l2.Negation()], watcher{kind: wTernary, other: l0, other2: l1})
		return
	}
	offset := s.arena.alloc(c)
	for int(c.num) >= len(s.meta) {
		s.meta = append(s.meta, clauseMeta{})
	}
	s.meta[c.num] = clauseMeta{watched: [2]uint16{uint16(w0), uint16(w1)}}
	// The blocker is the lit in the middle. No deeper reason: any lit from
	// the clause works.
	blocker := c.Get(c.Len() / 2)
	neg0 := c.Get(w0).Negation()
	neg1 := c.Get(w1).Negation()
	s.watches[neg0] = append(s.watches[neg0], watcher{kind: wLong, offset: offset, other: blocker, watchNum: 0})
	s.watches[neg1] = append(s.watches[neg1], watcher{kind: wLong, offset: offset, other: blocker, watchNum: 1})
}

func (s *Solver) checkAttachable(l Lit) {
	if s.varData[l.Var()].elim == elimFully {
		panic("attach of a clause over an eliminated variable")
	}
}

// Detach removes c's presence from the watchlists. A clause that has been
// shrunk in place to 3 literals may still be watched as a long clause: the
// Long watchlists are checked first and the ternary removal is only used
// when no Long watcher exists for c's offset.
func (s *Solver) Detach(c *Clause) {
	offset := s.arena.offset(c)
	if c.Len() == 3 {
		found := false
		for i := 0; offset != 0 && i < 3 && !found; i++ {
			found = s.findLongWatch(c.Get(i).Negation(), offset)
		}
		if !found {
			s.removeTriWatch(c.Get(0).Negation(), c.Get(1), c.Get(2))
			s.removeTriWatch(c.Get(1).Negation(), c.Get(0), c.Get(2))
			s.removeTriWatch(c.Get(2).Negation(), c.Get(0), c.Get(1))
			return
		}
		// Recently shrunk: both Long watchers sit among the three lists.
		removed := 0
		for i := 0; i < 3; i++ {
			removed += s.tryRemoveLongWatch(c.Get(i).Negation(), offset)
		}
		if removed != 2 {
			panic("shrunk clause was not watched twice")
		}
		return
	}
	meta := s.meta[c.num]
	s.removeLongWatch(c.Get(int(meta.watched[0])).Negation(), offset)
	s.removeLongWatch(c.Get(int(meta.watched[1])).Negation(), offset)
}

// findLongWatch tells whether a Long watcher for the given offset is present
// in l's watchlist.
func (s *Solver) findLongWatch(l Lit, offset uint32) bool {
	for _, w := range s.watches[l] {
		if w.kind == wLong && w.offset == offset {
			return true
		}
	}
	return false
}

// removeLongWatch removes the Long watcher matching offset from l's
// watchlist. The watcher must be present.
func (s *Solver) removeLongWatch(l Lit, offset uint32) {
	if s.tryRemoveLongWatch(l, offset) == 0 {
		panic("long watcher not found during detach")
	}
}

// tryRemoveLongWatch removes the Long watcher matching offset from l's
// watchlist if present, and reports how many entries were removed (0 or 1).
func (s *Solver) tryRemoveLongWatch(l Lit, offset uint32) int {
	ws := s.watches[l]
	for i, w := range ws {
		if w.kind == wLong && w.offset == offset {
			copy(ws[i:], ws[i+1:])
			s.watches[l] = ws[:len(ws)-1]
			return 1
		}
	}
	return 0
}

// removeTriWatch removes the ternary watcher matching the payload (o1, o2)
// from l's watchlist. Ternaries are not keyed by offset, hence the payload
// comparison. The watcher must be present.
func (s *Solver) removeTriWatch(l Lit, o1, o2 Lit) {
	ws := s.watches[l]
	for i, w := range ws {
		if w.kind == wTernary && w.other == o1 && w.other2 == o2 {
			copy(ws[i:], ws[i+1:])
			s.watches[l] = ws[:len(ws)-1]
			return
		}
	}
	panic("ternary watcher not found during detach")
}

// watcherSorter sorts a watchlist by type (Binary < Ternary < Long), then by
// payload within each type. Maintenance passes rely on contiguous type
// regions; propagation itself does not.
type watcherSorter struct {
	ws []watcher
}

func (s *watcherSorter) Len() int { return len(s.ws) }

func (s *watcherSorter) Less(i, j int) bool {
	wi, wj := s.ws[i], s.ws[j]
	if wi.kind != wj.kind {
		return wi.kind < wj.kind
	}
	switch wi.kind {
	case wBinary:
		return wi.other < wj.other || (wi.other == wj.other && !wi.learnt && wj.learnt)
	case wTernary:
		return wi.other < wj.other || (wi.other == wj.other && wi.other2 < wj.other2)
	default:
		return wi.offset < wj.offset
	}
}

func (s *watcherSorter) Swap(i, j int) { s.ws[i], s.ws[j] = s.ws[j], s.ws[i] }

// SortWatches sorts every watchlist by type then payload.
func (s *Solver) SortWatches() {
	for i := range s.watches {
		if len(s.watches[i]) > 1 {
			sort.Sort(&watcherSorter{s.watches[i]})
		}
	}
	s.logger.Debug("sorted watchlists")
}

// CountBinClauses counts the attached binary clauses, learnt and/or
// non-learnt ones.
func (s *Solver) CountBinClauses(alsoLearnt, alsoNonLearnt bool) int {
	num := 0
	for _, ws := range s.watches {
		for _, w := range ws {
			if w.kind != wBinary {
				continue
			}
			if w.learnt {
				if alsoLearnt {
					num++
				}
			} else if alsoNonLearnt {
				num++
			}
		}
	}
	if num%2 != 0 {
		panic("asymmetric binary watchlists")
	}
	return num / 2
}

// BinWatchSize returns the number of binary watchers in lit's watchlist,
// optionally including learnt ones.
func (s *Solver) BinWatchSize(lit Lit, alsoLearnt bool) int {
	num := 0
	for _, w := range s.watches[lit] {
		if w.kind == wBinary && (alsoLearnt || !w.learnt) {
			num++
		}
	}
	return num
}

// WatchListString returns a readable representation of the clauses
// containing lit, i.e. of the watchlist of ~lit.
func (s *Solver) WatchListString(lit Lit) string {
	var sb strings.Builder
	for _, w := range s.watches[lit.Negation()] {
		switch w.kind {
		case wBinary:
			fmt.Fprintf(&sb, "bin: %d , %d learnt: %t\n", lit.Int(), w.other.Int(), w.learnt)
		case wTernary:
			fmt.Fprintf(&sb, "tri: %d , %d , %d\n", lit.Int(), w.other.Int(), w.other2.Int())
		case wLong:
			fmt.Fprintf(&sb, "cla: %d\n", w.offset)
		}
	}
	return sb.String()
}
