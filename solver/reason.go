package solver

import "fmt"

// A Reason explains why a literal was bound: not at all, by a decision, or
// by a binary, ternary or long clause. Long clauses are referenced by their
// stable arena offset, never by pointer. A non-empty Reason is also how
// propagation reports a conflict.
type reasonKind uint8

const (
	reasonNone = reasonKind(iota)
	reasonDecision
	reasonBinary
	reasonTernary
	reasonLong
)

// Reason is a compact tagged record. The zero value means "no reason"
// (equivalently: no conflict).
type Reason struct {
	kind     reasonKind
	lit1     Lit // Binary and ternary: the negation of the propagating lit.
	lit2     Lit // Ternary only: the other false lit.
	offset   uint32
	watchNum uint8 // Long only: which watch became the asserting one.
}

// NoReason returns the empty reason.
func NoReason() Reason {
	return Reason{}
}

// DecisionReason marks a literal bound by a decision (or a probe).
func DecisionReason() Reason {
	return Reason{kind: reasonDecision}
}

// BinaryReason records propagation through the binary clause {l, enqueued}.
func BinaryReason(l Lit) Reason {
	return Reason{kind: reasonBinary, lit1: l}
}

// TernaryReason records propagation through the ternary clause
// {l1, l2, enqueued}.
func TernaryReason(l1, l2 Lit) Reason {
	return Reason{kind: reasonTernary, lit1: l1, lit2: l2}
}

// LongReason records propagation through the arena clause at the given
// offset, watchNum telling which of its two watches asserted.
func LongReason(offset uint32, watchNum uint8) Reason {
	return Reason{kind: reasonLong, offset: offset, watchNum: watchNum}
}

// IsNone is true iff r carries no information. When returned by a
// propagation call, it means no conflict arose.
func (r Reason) IsNone() bool {
	return r.kind == reasonNone
}

// IsBinary is true iff r is a binary-clause reason. The returned lit is the
// false literal of that clause.
func (r Reason) IsBinary() (Lit, bool) {
	return r.lit1, r.kind == reasonBinary
}

// IsTernary is true iff r is a ternary-clause reason. The returned lits are
// the two false literals of that clause.
func (r Reason) IsTernary() (Lit, Lit, bool) {
	return r.lit1, r.lit2, r.kind == reasonTernary
}

// IsLong is true iff r is a long-clause reason.
func (r Reason) IsLong() (uint32, uint8, bool) {
	return r.offset, r.watchNum, r.kind == reasonLong
}

func (r Reason) String() string {
	switch r.kind {
	case reasonNone:
		return "none"
	case reasonDecision:
		return "decision"
	case reasonBinary:
		return fmt.Sprintf("bin{%d}", r.lit1.Int())
	case reasonTernary:
		return fmt.Sprintf("tri{%d,%d}", r.lit1.Int(), r.lit2.Int())
	case reasonLong:
		return fmt.Sprintf("cla{%d,%d}", r.offset, r.watchNum)
	default:
		panic("invalid reason kind")
	}
}
