package solver

// Standard unit propagation over the watched-literals index. The watchlist
// of the literal being propagated is rewritten in place with a read cursor i
// and a write cursor j <= i: kept entries are copied forward, entries
// relocated to another watchlist are dropped.

// Propagate drains the trail starting from the propagation cursor and binds
// every forced literal. It returns the conflicting reason, or the empty
// Reason if quiescence was reached. A conflict at level 0 makes the whole
// formula unsatisfiable and clears the ok flag.
func (s *Solver) Propagate() Reason {
	confl := NoReason()
	for s.qhead < len(s.trail) && confl.IsNone() {
		p := s.trail[s.qhead]
		s.qhead++
		ws := s.watches[p]
		s.Stats.BogoProps += uint64(len(ws)/4 + 1)
		i, j := 0, 0
		n := len(ws)
		for ; i < n; i++ {
			s.lookahead(ws, i, n)
			w := ws[i]
			switch w.kind {
			case wBinary:
				ws[j] = w
				j++
				if !s.propBin(w, p, &confl) {
					i++
				}
			case wTernary:
				ws[j] = w
				j++
				if !s.propTri(w, p, &confl) {
					i++
				}
			case wLong:
				if !s.propLong(ws, i, &j, p, &confl) {
					i++
				}
			}
			if !confl.IsNone() {
				break
			}
		}
		// On conflict, the remaining entries are kept verbatim.
		for ; i < n; i++ {
			ws[j] = ws[i]
			j++
		}
		s.watches[p] = ws[:j]
	}
	if !confl.IsNone() && s.DecisionLevel() == 0 {
		s.ok = false
	}
	return confl
}

// lookahead peeks 3 entries ahead and touches the clause body of an
// upcoming Long watcher whose blocker is not already true, so that it is
// warm when the read cursor reaches it.
func (s *Solver) lookahead(ws []watcher, i, n int) {
	if i2 := i + 3; i2 < n && ws[i2].kind == wLong && s.value(ws[i2].other) != Sat {
		prefetchSink = s.arena.pointer(ws[i2].offset)
	}
}

// prefetchSink defeats dead-store elimination of the lookahead read.
var prefetchSink *Clause

// propBin propagates through a binary watcher. It returns false iff a
// conflict was met; the failing binary lit is remembered for diagnostics.
func (s *Solver) propBin(w watcher, p Lit, confl *Reason) bool {
	switch s.value(w.other) {
	case Indet:
		s.Stats.PropsBin++
		s.Enqueue(w.other, BinaryReason(p.Negation()))
	case Unsat:
		*confl = BinaryReason(p.Negation())
		s.failBinLit = w.other
		s.qhead = len(s.trail)
		return false
	}
	return true
}

// propTri propagates through a ternary watcher representing the clause
// {~p, other, other2}.
func (s *Solver) propTri(w watcher, p Lit, confl *Reason) bool {
	val := s.value(w.other)
	if val == Sat {
		return true
	}
	val2 := s.value(w.other2)
	switch {
	case val == Indet && val2 == Unsat:
		s.Stats.PropsTri++
		s.Enqueue(w.other, TernaryReason(p.Negation(), w.other2))
	case val == Unsat && val2 == Indet:
		s.Stats.PropsTri++
		s.Enqueue(w.other2, TernaryReason(p.Negation(), w.other))
	case val == Unsat && val2 == Unsat:
		*confl = TernaryReason(p.Negation(), w.other2)
		s.failBinLit = w.other
		s.qhead = len(s.trail)
		return false
	}
	return true
}

// propLong propagates through a Long watcher. The entry is either kept
// (copied to the write cursor), or dropped because the watch relocated to
// another literal's list. Returns false iff a conflict was met.
func (s *Solver) propLong(ws []watcher, i int, j *int, p Lit, confl *Reason) bool {
	w := ws[i]
	if s.value(w.other) == Sat { // Blocker is true: clause is sat.
		ws[*j] = w
		(*j)++
		return true
	}
	s.Stats.BogoProps += 4
	c := s.arena.pointer(w.offset)
	meta := &s.meta[c.num]
	wn := w.watchNum
	if c.Get(int(meta.watched[wn])) != p.Negation() {
		panic("long watcher out of sync with clause meta")
	}
	other := c.Get(int(meta.watched[1-wn]))
	if s.value(other) == Sat { // Other watch is true: clause is sat.
		ws[*j] = w
		(*j)++
		return true
	}
	// Look for a new watch among the non-watched positions.
	size := c.Len()
	for k := 0; k < size; k++ {
		if k == int(meta.watched[0]) || k == int(meta.watched[1]) {
			continue
		}
		if s.value(c.Get(k)) != Unsat {
			meta.watched[wn] = uint16(k)
			meta.numLitVisited += uint64(k)
			s.Stats.BogoProps += uint64(k / 10)
			neg := c.Get(k).Negation()
			s.watches[neg] = append(s.watches[neg], watcher{kind: wLong, offset: w.offset, other: other, watchNum: wn})
			return true // Entry relocated: not copied forward.
		}
	}
	meta.numLitVisited += uint64(size)
	s.Stats.BogoProps += uint64(size / 10)

	// No new watch: the clause is unit or falsified.
	ws[*j] = w
	(*j)++
	meta.numPropAndConfl++
	if s.value(other) == Unsat {
		*confl = LongReason(w.offset, 1-wn)
		s.qhead = len(s.trail)
		return false
	}
	if c.Learnt() {
		s.Stats.PropsLongRed++
	} else {
		s.Stats.PropsLongIrred++
	}
	c.Stats.PropsMade++
	s.Enqueue(other, LongReason(w.offset, 1-wn))
	return true
}

// PropagateNonLearntBin propagates restricted to non-learnt binary
// watchers. Preprocessing uses it to compute the core binary implication
// closure cheaply. Watchlists are not rewritten.
func (s *Solver) PropagateNonLearntBin() Reason {
	confl := NoReason()
	for s.qhead < len(s.trail) {
		p := s.trail[s.qhead]
		s.qhead++
		for _, w := range s.watches[p] {
			if w.kind != wBinary || w.learnt {
				continue
			}
			if !s.propBin(w, p, &confl) {
				if s.DecisionLevel() == 0 {
					s.ok = false
				}
				return confl
			}
		}
	}
	return NoReason()
}
