package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probe opens level 1 and enqueues l as the probe literal.
func probe(s *Solver, l Lit) {
	s.NewDecisionLevel()
	s.Enqueue(l, DecisionReason())
}

func TestHyperBinChain(t *testing.T) {
	s := newTestSolver(t, 4)
	s.AttachBinary(IntToLit(-1), IntToLit(2), false)
	s.AttachBinary(IntToLit(-2), IntToLit(3), false)
	s.AttachBinary(IntToLit(-3), IntToLit(4), false)

	probe(s, IntToLit(1))
	useless := make(map[BinaryClause]bool)
	failed := s.PropagateFull(useless)
	require.Equal(t, LitUndef, failed)
	assert.Equal(t, lits(1, 2, 3, 4), s.Trail())
	// Deep implications are re-anchored to the probe.
	assert.Equal(t, IntToLit(1), s.propData[IntToLit(4).Var()].ancestor)
	assert.Contains(t, s.NeedToAddBinClauses(), BinaryClause{Lit1: IntToLit(-1), Lit2: IntToLit(4), Learnt: true})
}

func TestProbeFail(t *testing.T) {
	s := newTestSolver(t, 2)
	s.AttachBinary(IntToLit(-1), IntToLit(2), false)
	s.AttachBinary(IntToLit(-1), IntToLit(-2), false)

	var got Reason
	s.AnalyzeFail = func(confl Reason) Lit {
		got = confl
		l, _ := confl.IsBinary()
		return l
	}
	probe(s, IntToLit(1))
	useless := make(map[BinaryClause]bool)
	failed := s.PropagateFull(useless)
	assert.Equal(t, IntToLit(-1), failed)
	l, ok := got.IsBinary()
	require.True(t, ok, "expected a binary conflict, got %v", got)
	assert.Equal(t, IntToLit(-1), l)
	assert.Equal(t, uint64(1), s.Stats.FailedProbes)
}

func TestProbeFailDefaultAnalyzer(t *testing.T) {
	s := newTestSolver(t, 2)
	s.AttachBinary(IntToLit(-1), IntToLit(2), false)
	s.AttachBinary(IntToLit(-1), IntToLit(-2), false)
	probe(s, IntToLit(1))
	failed := s.PropagateFull(make(map[BinaryClause]bool))
	assert.Equal(t, IntToLit(1), failed)
}

// Two implication paths to the same literal: the deeper edge is retired.
func TestRemoveWhichRetiresDeeperEdge(t *testing.T) {
	s := newTestSolver(t, 4)
	s.AttachBinary(IntToLit(-1), IntToLit(2), false)
	s.AttachBinary(IntToLit(-1), IntToLit(3), false)
	s.AttachBinary(IntToLit(-2), IntToLit(4), false)
	s.AttachBinary(IntToLit(-3), IntToLit(4), false)

	probe(s, IntToLit(1))
	useless := make(map[BinaryClause]bool)
	failed := s.PropagateFull(useless)
	require.Equal(t, LitUndef, failed)
	require.Equal(t, Sat, s.Value(IntToLit(4)))
	// +4 was re-anchored to the probe when first reached; the second edge
	// is deeper and gets retired.
	assert.True(t,
		useless[BinaryClause{Lit1: IntToLit(-2), Lit2: IntToLit(4), Learnt: false}] ||
			useless[BinaryClause{Lit1: IntToLit(-3), Lit2: IntToLit(4), Learnt: false}],
		"expected one of the two edges to 4 in useless, got %v", useless)
	assert.Equal(t, uint64(1), s.Stats.UselessBinFound)
}

// A policy override is honored.
func TestRemoveWhichOverride(t *testing.T) {
	s := newTestSolver(t, 3)
	s.AttachBinary(IntToLit(-1), IntToLit(2), false)
	s.AttachBinary(IntToLit(-1), IntToLit(3), false)
	s.AttachBinary(IntToLit(-2), IntToLit(3), false)
	s.RemoveWhich = func(lit, p Lit, learnt bool) Lit { return LitUndef }

	probe(s, IntToLit(1))
	useless := make(map[BinaryClause]bool)
	require.Equal(t, LitUndef, s.PropagateFull(useless))
	assert.Empty(t, useless)
}

// A ternary unit whose false literals both stem directly from the probe:
// the dominator is the probe and no clause is synthesized for it.
func TestHyperBinTernaryDominatorIsProbe(t *testing.T) {
	s := newTestSolver(t, 4)
	s.AttachBinary(IntToLit(-1), IntToLit(2), false)
	s.AttachBinary(IntToLit(-1), IntToLit(3), false)
	s.AttachClause(NewClause(lits(-2, -3, 4)), 0, 1)

	probe(s, IntToLit(1))
	useless := make(map[BinaryClause]bool)
	require.Equal(t, LitUndef, s.PropagateFull(useless))
	require.Equal(t, Sat, s.Value(IntToLit(4)))
	pd := s.propData[IntToLit(4).Var()]
	assert.Equal(t, IntToLit(1), pd.ancestor)
	assert.True(t, pd.hyperBin)
	assert.True(t, pd.hyperBinNotAdded)
	assert.NotContains(t, s.NeedToAddBinClauses(), BinaryClause{Lit1: IntToLit(-1), Lit2: IntToLit(4), Learnt: true})
}

// A dominator strictly between the probe and the implied literal yields a
// synthesized hyper-binary.
func TestHyperBinTernaryDominator(t *testing.T) {
	s := newTestSolver(t, 9)
	s.AttachBinary(IntToLit(-1), IntToLit(2), false)
	// Ternary whose only non-fact antecedent is +2: +5 hangs below +2.
	s.AttachClause(NewClause(lits(-2, 9, 5)), 0, 1)
	// Both antecedents of +6 meet at +2.
	s.AttachClause(NewClause(lits(-5, -2, 6)), 0, 1)

	// var 9 is a level-0 fact.
	s.Enqueue(IntToLit(-9), DecisionReason())
	require.True(t, s.Propagate().IsNone())

	probe(s, IntToLit(1))
	useless := make(map[BinaryClause]bool)
	require.Equal(t, LitUndef, s.PropagateFull(useless))
	require.Equal(t, Sat, s.Value(IntToLit(5)))
	require.Equal(t, Sat, s.Value(IntToLit(6)))

	pd5 := s.propData[IntToLit(5).Var()]
	assert.Equal(t, IntToLit(2), pd5.ancestor)
	assert.True(t, pd5.hyperBinNotAdded)

	pd6 := s.propData[IntToLit(6).Var()]
	assert.Equal(t, IntToLit(2), pd6.ancestor)
	assert.False(t, pd6.hyperBinNotAdded)
	assert.Contains(t, s.NeedToAddBinClauses(), BinaryClause{Lit1: IntToLit(-2), Lit2: IntToLit(6), Learnt: true})
}

// A unit derivation from a long clause goes through hyper-binary synthesis
// as well.
func TestHyperBinLongClause(t *testing.T) {
	s := newTestSolver(t, 5)
	s.AttachBinary(IntToLit(-1), IntToLit(2), false)
	s.AttachBinary(IntToLit(-1), IntToLit(3), false)
	s.AttachBinary(IntToLit(-1), IntToLit(4), false)
	s.AttachClause(NewClause(lits(-2, -3, -4, 5)), 0, 1)

	probe(s, IntToLit(1))
	useless := make(map[BinaryClause]bool)
	require.Equal(t, LitUndef, s.PropagateFull(useless))
	require.Equal(t, Sat, s.Value(IntToLit(5)))
	assert.Equal(t, IntToLit(1), s.propData[IntToLit(5).Var()].ancestor)
}

// Learnt binaries only fire once non-learnt ones are exhausted, keeping the
// ancestry in the non-learnt core.
func TestNonLearntBinariesFirst(t *testing.T) {
	s := newTestSolver(t, 3)
	s.AttachBinary(IntToLit(-1), IntToLit(3), true) // learnt shortcut
	s.AttachBinary(IntToLit(-1), IntToLit(2), false)
	s.AttachBinary(IntToLit(-2), IntToLit(3), false)

	probe(s, IntToLit(1))
	useless := make(map[BinaryClause]bool)
	require.Equal(t, LitUndef, s.PropagateFull(useless))
	require.Equal(t, Sat, s.Value(IntToLit(3)))
	// +3 was reached through the non-learnt chain, not the learnt edge.
	assert.False(t, s.propData[IntToLit(3).Var()].learntStep)
}

func TestPropagateNonLearntBin(t *testing.T) {
	s := newTestSolver(t, 3)
	s.AttachBinary(IntToLit(-1), IntToLit(2), true) // learnt: must not fire
	s.AttachBinary(IntToLit(-1), IntToLit(3), false)
	s.NewDecisionLevel()
	s.Enqueue(IntToLit(1), DecisionReason())
	confl := s.PropagateNonLearntBin()
	require.True(t, confl.IsNone())
	assert.Equal(t, Indet, s.Value(IntToLit(2)))
	assert.Equal(t, Sat, s.Value(IntToLit(3)))
}

func TestPropagateFullRequiresProbe(t *testing.T) {
	s := newTestSolver(t, 2)
	assert.Panics(t, func() { s.PropagateFull(make(map[BinaryClause]bool)) })
}
