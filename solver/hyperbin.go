package solver

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Full propagation, used during failed-literal probing at decision level 1.
// It prefers non-learnt binary implications, reconstructs implication
// ancestry, synthesizes hyper-binary clauses and collects binaries made
// redundant by them.

// A BinaryClause is a two-literal clause together with its learnt flag.
// PropagateFull reports redundant and synthesized binaries as values of this
// type.
type BinaryClause struct {
	Lit1, Lit2 Lit
	Learnt     bool
}

func (b BinaryClause) String() string {
	return fmt.Sprintf("{%d, %d} learnt: %t", b.Lit1.Int(), b.Lit2.Int(), b.Learnt)
}

// NeedToAddBinClauses returns the hyper-binary clauses synthesized by the
// last PropagateFull call. The caller attaches them after backtracking the
// probe.
func (s *Solver) NeedToAddBinClauses() []BinaryClause {
	return s.needToAddBinClause
}

// PropagateFull propagates the single probe literal currently enqueued at
// decision level 1, preferring non-learnt binaries over learnt ones over
// everything else. Binaries rendered redundant by a second implication path
// or by a synthesized hyper-binary are inserted into useless. It returns
// LitUndef when the probe succeeded, or the failed literal computed by the
// conflict analyzer when it did not.
func (s *Solver) PropagateFull(useless map[BinaryClause]bool) Lit {
	if s.DecisionLevel() != 1 || len(s.trail)-s.trailLim[0] != 1 {
		panic("full propagation requires exactly one enqueued probe at level 1")
	}

	root := s.trail[s.qhead]
	s.probe = root
	s.propData[root.Var()] = propData{ancestor: LitUndef}
	s.logger.WithField("probe", root.Int()).Debug("full propagation started")

	nlBinQHead := s.qhead
	lBinQHead := s.qhead
	s.needToAddBinClause = s.needToAddBinClause[:0]

	for {
		// Phase a: non-learnt binaries, always drained first so that the
		// ancestry stays in the non-learnt core when possible.
		for nlBinQHead < len(s.trail) {
			p := s.trail[nlBinQHead]
			nlBinQHead++
			s.Stats.BogoProps++
			for _, w := range s.watches[p] {
				if w.kind != wBinary || w.learnt {
					continue
				}
				if confl := s.propBinComplex(p, w, useless); !confl.IsNone() {
					return s.failProbe(confl)
				}
			}
		}

		// Phase b: learnt binaries. Any enqueue jumps back to phase a.
		restart := false
		for lBinQHead < len(s.trail) && !restart {
			p := s.trail[lBinQHead]
			s.Stats.BogoProps++
			s.enqueuedSomething = false
			for _, w := range s.watches[p] {
				if w.kind != wBinary || !w.learnt {
					continue
				}
				if confl := s.propBinComplex(p, w, useless); !confl.IsNone() {
					return s.failProbe(confl)
				}
				if s.enqueuedSomething {
					restart = true
					break
				}
			}
			if !restart {
				lBinQHead++
			}
		}
		if restart {
			continue
		}

		// Phase c: ternary and long watchers, with unit derivations routed
		// through hyper-binary synthesis. Any enqueue jumps back to phase a.
		progressed := false
		for s.qhead < len(s.trail) {
			p := s.trail[s.qhead]
			s.Stats.BogoProps++
			s.enqueuedSomething = false
			confl := NoReason()
			ws := s.watches[p]
			i, j := 0, 0
			n := len(ws)
			for ; i < n; i++ {
				w := ws[i]
				switch w.kind {
				case wBinary:
					ws[j] = w
					j++
					continue
				case wTernary:
					ws[j] = w
					j++
					if !s.propTriComplex(w, p, &confl) || s.enqueuedSomething {
						i++
					}
				case wLong:
					if !s.propLongComplex(ws, i, &j, p, &confl) || s.enqueuedSomething {
						i++
					}
				}
				if !confl.IsNone() || s.enqueuedSomething {
					break
				}
			}
			for ; i < n; i++ {
				ws[j] = ws[i]
				j++
			}
			s.watches[p] = ws[:j]
			if !confl.IsNone() {
				return s.failProbe(confl)
			}
			if s.enqueuedSomething {
				progressed = true
				break
			}
			s.qhead++
		}
		if progressed {
			continue
		}
		break
	}
	s.logger.WithField("probe", root.Int()).Debug("full propagation finished")
	return LitUndef
}

// failProbe hands the conflict to the analyzer and returns the failed
// literal. Without an injected analyzer the probe itself is reported.
func (s *Solver) failProbe(confl Reason) Lit {
	s.Stats.FailedProbes++
	s.logger.WithField("probe", s.probe.Int()).Debug("probe failed")
	if s.AnalyzeFail != nil {
		return s.AnalyzeFail(confl)
	}
	return s.probe
}

// enqueueComplex binds lit during full propagation, remembering its
// implication ancestor.
func (s *Solver) enqueueComplex(lit, ancestor Lit, learntStep bool) {
	s.Enqueue(lit, BinaryReason(ancestor.Negation()))
	s.propData[lit.Var()] = propData{ancestor: ancestor, learntStep: learntStep}
	s.enqueuedSomething = true
}

// propBinComplex propagates through one binary watcher in full mode. A
// literal reached through a non-root edge is re-anchored to the probe and
// the corresponding hyper-binary clause is queued. When the literal is
// already bound within the probe, a second implication path has been found
// and one of the two edges is retired per the RemoveWhich policy.
func (s *Solver) propBinComplex(p Lit, w watcher, useless map[BinaryClause]bool) Reason {
	lit := w.other
	switch s.value(lit) {
	case Indet:
		s.Stats.PropsBin++
		if p == s.probe {
			s.enqueueComplex(lit, p, w.learnt)
			return NoReason()
		}
		// Lazy hyper-binary resolution: lit is implied transitively, so
		// {~probe, lit} subsumes the chain leading to it.
		dom := s.rootAncestor(p)
		s.needToAddBinClause = append(s.needToAddBinClause, BinaryClause{Lit1: dom.Negation(), Lit2: lit, Learnt: true})
		s.Stats.HyperBinAdded++
		s.enqueueComplex(lit, dom, w.learnt)
		s.propData[lit.Var()].hyperBin = true
	case Unsat:
		s.failBinLit = lit
		return BinaryReason(p.Negation())
	default: // Sat
		if lit == s.probe || s.varData[lit.Var()].level == 0 {
			break // The probe itself or a level-0 fact; nothing to reconcile.
		}
		remove := s.removeWhich(lit, p, w.learnt)
		pd := &s.propData[lit.Var()]
		switch remove {
		case p:
			// The recorded edge (~ancestor, lit) loses to the new one.
			// If the recorded edge was a queued hyper-binary, it is left
			// alone: the later subsumption pass retires it.
			if !pd.hyperBin {
				useless[BinaryClause{Lit1: pd.ancestor.Negation(), Lit2: lit, Learnt: pd.learntStep}] = true
				s.Stats.UselessBinFound++
			}
			pd.ancestor = p
			pd.learntStep = w.learnt
			pd.hyperBin = false
			pd.hyperBinNotAdded = false
		case lit:
			useless[BinaryClause{Lit1: p.Negation(), Lit2: lit, Learnt: w.learnt}] = true
			s.Stats.UselessBinFound++
		}
	}
	return NoReason()
}

// removeWhich applies the injected policy, or the default one: prefer
// retiring learnt edges, then deeper ancestries.
func (s *Solver) removeWhich(lit, p Lit, learnt bool) Lit {
	if s.RemoveWhich != nil {
		return s.RemoveWhich(lit, p, learnt)
	}
	pd := s.propData[lit.Var()]
	if pd.learntStep != learnt {
		if pd.learntStep {
			return p // The recorded edge is learnt, the new one is core.
		}
		return lit
	}
	dNew := s.ancestorDepth(p) + 1
	dOld := s.ancestorDepth(pd.ancestor) + 1
	switch {
	case dNew < dOld:
		return p
	case dOld < dNew:
		return lit
	default:
		return LitUndef
	}
}

// ancestorDepth returns the number of edges between l and the probe.
func (s *Solver) ancestorDepth(l Lit) int {
	depth := 0
	for a := s.propData[l.Var()].ancestor; a != LitUndef; a = s.propData[a.Var()].ancestor {
		depth++
	}
	return depth
}

// rootAncestor walks l's ancestry up to the probe.
func (s *Solver) rootAncestor(l Lit) Lit {
	for s.propData[l.Var()].ancestor != LitUndef {
		l = s.propData[l.Var()].ancestor
	}
	return l
}

// propTriComplex is the ternary arm of full propagation: unit derivations
// go through hyper-binary synthesis instead of a plain enqueue.
func (s *Solver) propTriComplex(w watcher, p Lit, confl *Reason) bool {
	val := s.value(w.other)
	if val == Sat {
		return true
	}
	val2 := s.value(w.other2)
	switch {
	case val == Indet && val2 == Unsat:
		s.Stats.PropsTri++
		s.addHyperBin(w.other, p.Negation(), w.other2)
	case val == Unsat && val2 == Indet:
		s.Stats.PropsTri++
		s.addHyperBin(w.other2, p.Negation(), w.other)
	case val == Unsat && val2 == Unsat:
		*confl = TernaryReason(p.Negation(), w.other2)
		s.failBinLit = w.other
		s.qhead = len(s.trail)
		return false
	}
	return true
}

// propLongComplex is the long-clause arm of full propagation.
func (s *Solver) propLongComplex(ws []watcher, i int, j *int, p Lit, confl *Reason) bool {
	w := ws[i]
	if s.value(w.other) == Sat {
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
	if s.value(other) == Sat {
		ws[*j] = w
		(*j)++
		return true
	}
	size := c.Len()
	for k := 0; k < size; k++ {
		if k == int(meta.watched[0]) || k == int(meta.watched[1]) {
			continue
		}
		if s.value(c.Get(k)) != Unsat {
			meta.watched[wn] = uint16(k)
			meta.numLitVisited += uint64(k)
			neg := c.Get(k).Negation()
			s.watches[neg] = append(s.watches[neg], watcher{kind: wLong, offset: w.offset, other: other, watchNum: wn})
			return true
		}
	}
	meta.numLitVisited += uint64(size)
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
	s.addHyperBinLong(other, c)
	return true
}

// addHyperBinLong synthesizes a hyper-binary for a unit derivation from a
// long clause: every literal of c except lit is false.
func (s *Solver) addHyperBinLong(lit Lit, c *Clause) {
	falsified := make([]Lit, 0, c.Len()-1)
	for i := 0; i < c.Len(); i++ {
		if q := c.Get(i); q != lit {
			falsified = append(falsified, q)
		}
	}
	s.addHyperBinLits(lit, falsified)
}

// addHyperBin synthesizes a hyper-binary for a unit derivation from a
// ternary clause with false literals q1 and q2.
func (s *Solver) addHyperBin(lit, q1, q2 Lit) {
	s.addHyperBinLits(lit, []Lit{q1, q2})
}

// addHyperBinLits computes the dominator of the falsified reason literals in
// the implication tree anchored at the probe, queues the hyper-binary
// {~dominator, lit} when at least two reason literals are bound within the
// probe and their dominator is not the probe, and enqueues lit below its
// dominator. With at most one such literal nothing is queued.
func (s *Solver) addHyperBinLits(lit Lit, falsified []Lit) {
	ancestors := make([]Lit, 0, len(falsified))
	for _, q := range falsified {
		if s.varData[q.Var()].level != 0 {
			ancestors = append(ancestors, q.Negation())
		}
	}
	dom := LitUndef
	notAdded := false
	switch len(ancestors) {
	case 0:
		// All antecedents are level-0 facts; lit is in effect a new fact.
		dom = s.probe
		notAdded = true
	case 1:
		// The derivation is already binary-shaped; nothing new to record.
		dom = ancestors[0]
		notAdded = true
	default:
		dom = s.deepestCommonAncestor(ancestors)
		if dom == s.probe {
			notAdded = true
		} else {
			s.needToAddBinClause = append(s.needToAddBinClause, BinaryClause{Lit1: dom.Negation(), Lit2: lit, Learnt: true})
			s.Stats.HyperBinAdded++
			s.logger.WithFields(logrus.Fields{
				"dominator": dom.Int(),
				"implied":   lit.Int(),
			}).Debug("hyper-binary synthesized")
		}
	}
	s.enqueueComplex(lit, dom, true)
	pd := &s.propData[lit.Var()]
	pd.hyperBin = true
	pd.hyperBinNotAdded = notAdded
}

// deepestCommonAncestor folds the pairwise lowest common ancestor over the
// given literals' ancestry chains. The probe anchors every chain, so a
// common ancestor always exists.
func (s *Solver) deepestCommonAncestor(lits []Lit) Lit {
	dom := lits[0]
	for _, l := range lits[1:] {
		dom = s.commonAncestor(dom, l)
	}
	return dom
}

// commonAncestor marks x's chain in the seen bitmap, then walks y upward
// until it hits a marked literal.
func (s *Solver) commonAncestor(x, y Lit) Lit {
	for l := x; l != LitUndef; l = s.propData[l.Var()].ancestor {
		s.seen[l] = 1
	}
	anc := y
	for s.seen[anc] != 1 {
		anc = s.propData[anc.Var()].ancestor
	}
	for l := x; l != LitUndef; l = s.propData[l.Var()].ancestor {
		s.seen[l] = 0
	}
	return anc
}
