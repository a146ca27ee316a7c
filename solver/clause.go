package solver

import "fmt"

// ClauseStats is the per-clause statistics record consumed by the
// clause-lifetime scoring oracle. The propagation engine only maintains
// PropsMade and the visitation counters in clauseMeta; the remaining fields
// are written by the outer loop (conflict analysis, reduceDB passes).
type ClauseStats struct {
	Glue                    uint32
	OrigGlue                uint32
	GlueBeforeMinim         uint32
	GlueHistLong            float64
	IntroducedAtConflict    uint64
	LastTouched             uint64
	PropsMade               uint64
	SumPropsMade            uint64
	ConflictsMade           uint64
	SumUIP1Used             uint64
	DiscountedPropsMade     float64
	DiscountedUIP1Used3     float64
	NumAntecedents          uint32
	NumTotalLitsAntecedents uint32
	NumResolutionsHistLT    uint32
	TTLStats                float64
}

// A Clause is a list of Lit, associated with stats used by the
// clause-lifetime predictor.
type Clause struct {
	lits []Lit
	// flags' bits are as follow:
	// leftmost bit: learnt flag.
	// second bit: ternary-resolvent flag (several stats are undefined then).
	flags uint32
	num   uint32 // Clause number, set when the clause enters the arena.
	Stats ClauseStats
}

const (
	learntMask     uint32 = 1 << 31
	ternaryResMask uint32 = 1 << 30
)

// NewClause returns a clause whose lits are given as an argument.
func NewClause(lits []Lit) *Clause {
	return &Clause{lits: lits}
}

// NewLearntClause returns a new clause marked as learnt.
func NewLearntClause(lits []Lit) *Clause {
	return &Clause{lits: lits, flags: learntMask}
}

// Learnt returns true iff c was a learnt clause.
func (c *Clause) Learnt() bool {
	return c.flags&learntMask == learntMask
}

// SetTernaryResolvent marks c as a ternary resolvent. Original glue and the
// antecedent stats are undefined for such clauses.
func (c *Clause) SetTernaryResolvent() {
	c.flags |= ternaryResMask
}

// IsTernaryResolvent returns true iff c was produced by ternary resolution.
func (c *Clause) IsTernaryResolvent() bool {
	return c.flags&ternaryResMask == ternaryResMask
}

// Len returns the nb of lits in the clause.
func (c *Clause) Len() int {
	return len(c.lits)
}

// First returns the first lit from the clause.
func (c *Clause) First() Lit {
	return c.lits[0]
}

// Second returns the second lit from the clause.
func (c *Clause) Second() Lit {
	return c.lits[1]
}

// Get returns the ith literal from the clause.
func (c *Clause) Get(i int) Lit {
	return c.lits[i]
}

// Set sets the ith literal of the clause.
func (c *Clause) Set(i int, l Lit) {
	c.lits[i] = l
}

// swap swaps the ith and jth lits from the clause.
func (c *Clause) swap(i, j int) {
	c.lits[i], c.lits[j] = c.lits[j], c.lits[i]
}

// Shrink reduces the length of the clause, by removing all lits
// starting from position newLen. The clause must be detached first and
// reattached afterwards so that the watch invariants are re-established.
func (c *Clause) Shrink(newLen int) {
	c.lits = c.lits[:newLen]
}

// CNF returns a DIMACS CNF representation of the clause.
func (c *Clause) CNF() string {
	res := ""
	for _, lit := range c.lits {
		res += fmt.Sprintf("%d ", lit.Int())
	}
	return fmt.Sprintf("%s0", res)
}
