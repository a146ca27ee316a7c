package solver

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrTooManyVars is returned by NewVar when 2^30 variables already exist.
var ErrTooManyVars = errors.New("too many variables")

// Stats are counters about the propagation process.
// They are provided for information purpose only.
type Stats struct {
	Propagations    uint64 // How many literals were bound, decisions included
	PropsBin        uint64 // ... through binary clauses
	PropsTri        uint64 // ... through ternary clauses
	PropsLongIrred  uint64 // ... through long non-learnt clauses
	PropsLongRed    uint64 // ... through long learnt clauses
	BogoProps       uint64 // Rough, platform-independent effort counter
	HyperBinAdded   uint64 // Hyper-binary clauses synthesized during probing
	UselessBinFound uint64 // Binary clauses found redundant during probing
	FailedProbes    uint64 // Probes that ended in a conflict
}

// Elimination status of a variable. Attach tolerates none and
// queued-for-replacement; a fully eliminated variable must not appear in any
// attached clause.
type elimStatus byte

const (
	elimNone = elimStatus(iota)
	elimQueuedReplacer
	elimFully
)

// varData groups what the engine knows about a bound variable.
type varData struct {
	level  decLevel
	reason Reason
	elim   elimStatus
}

// propData records how a literal was implied during the current probe.
type propData struct {
	ancestor         Lit
	learntStep       bool
	hyperBin         bool
	hyperBinNotAdded bool
}

// clauseMeta is the side record of a long arena clause: the two positions
// inside the clause that currently serve as watches, plus visitation
// counters. Watchers are copied frequently during compaction; keeping the
// positions here means a watch relocation only touches this record and the
// two Long watchers.
type clauseMeta struct {
	watched         [2]uint16
	numPropAndConfl uint32
	numLitVisited   uint64
}

// A Solver holds the propagation state: assignment, trail, watchlists and
// clause arena. It is the main data structure. A Solver is not safe for
// concurrent use; all operations run on the caller's goroutine.
type Solver struct {
	// AnalyzeFail is the conflict analyzer invoked by PropagateFull when a
	// probe fails. When nil, the failed probe literal itself is returned.
	AnalyzeFail func(confl Reason) Lit
	// RemoveWhich decides, when a second binary implication path to lit is
	// discovered during probing, which edge to retire: the recorded ancestor
	// edge (return p), the current edge (return lit), or neither (LitUndef).
	// When nil, a depth-and-learntness policy is used.
	RemoveWhich func(lit, p Lit, learnt bool) Lit
	// CheckAttach makes attach operations assert that attachment does not
	// violate a currently-asserting watch. Off by default.
	CheckAttach bool

	nbVars  int
	ok      bool // False once a level-0 conflict was met.
	assigns []Status
	varData []varData
	watches [][]watcher
	arena   arena
	meta    []clauseMeta

	trail    []Lit
	trailLim []int
	qhead    int

	// Auxiliary per-literal bitmaps, shared with conflict analysis.
	seen  []byte
	seen2 []byte

	// Probing state.
	propData           []propData
	probe              Lit
	failBinLit         Lit
	enqueuedSomething  bool
	needToAddBinClause []BinaryClause

	Stats  Stats
	logger logrus.FieldLogger
}

// New makes an empty solver. Variables are added with NewVar. A nil logger
// falls back to the logrus standard logger.
func New(logger logrus.FieldLogger) *Solver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Solver{
		ok:         true,
		arena:      newArena(),
		failBinLit: LitUndef,
		probe:      LitUndef,
		logger:     logger,
	}
}

// Ok is false once a conflict was met at level 0: the formula is
// unsatisfiable and further propagation is pointless.
func (s *Solver) Ok() bool {
	return s.ok
}

// NbVars returns the number of variables created so far.
func (s *Solver) NbVars() int {
	return s.nbVars
}

// NewVar appends a fresh variable and grows every index accordingly.
func (s *Solver) NewVar() (Var, error) {
	v := Var(s.nbVars)
	if v >= maxVars {
		return VarUndef, errors.Wrapf(ErrTooManyVars, "cannot create variable %d", v)
	}
	s.nbVars++
	s.assigns = append(s.assigns, Indet)
	s.varData = append(s.varData, varData{reason: NoReason()})
	s.propData = append(s.propData, propData{ancestor: LitUndef})
	s.watches = append(s.watches, nil, nil)
	s.seen = append(s.seen, 0, 0)
	s.seen2 = append(s.seen2, 0, 0)
	return v, nil
}

// MustNewVar is NewVar for callers that treat capacity exhaustion as fatal.
func (s *Solver) MustNewVar() Var {
	v, err := s.NewVar()
	if err != nil {
		panic(err)
	}
	return v
}

// value returns whether the literal is made true (Sat) or false (Unsat) by
// the current assignment, or Indet if it is unbound.
func (s *Solver) value(l Lit) Status {
	assign := s.assigns[l.Var()]
	if assign == Indet {
		return Indet
	}
	if (assign == Sat) == l.IsPositive() {
		return Sat
	}
	return Unsat
}

// Value is the exported version of value.
func (s *Solver) Value(l Lit) Status {
	return s.value(l)
}

// Level returns the decision level v was bound at. Only meaningful while v
// is bound.
func (s *Solver) Level(v Var) int {
	return int(s.varData[v].level)
}

// Reason returns the reason v was bound for.
func (s *Solver) Reason(v Var) Reason {
	return s.varData[v].reason
}

// DecisionLevel returns the current decision level.
func (s *Solver) DecisionLevel() int {
	return len(s.trailLim)
}

// NewDecisionLevel opens a new decision level.
func (s *Solver) NewDecisionLevel() {
	s.trailLim = append(s.trailLim, len(s.trail))
}

// Enqueue binds lit with the given reason at the current decision level and
// schedules it for propagation. The literal must be unbound.
func (s *Solver) Enqueue(lit Lit, from Reason) {
	if s.assigns[lit.Var()] != Indet {
		panic("enqueue of a bound literal")
	}
	if lit.IsPositive() {
		s.assigns[lit.Var()] = Sat
	} else {
		s.assigns[lit.Var()] = Unsat
	}
	s.varData[lit.Var()].level = decLevel(s.DecisionLevel())
	s.varData[lit.Var()].reason = from
	s.trail = append(s.trail, lit)
	s.Stats.Propagations++
}

// CancelUntil undoes all bindings made at levels > lvl and rewinds the
// propagation cursor.
func (s *Solver) CancelUntil(lvl int) {
	if s.DecisionLevel() <= lvl {
		return
	}
	bound := s.trailLim[lvl]
	for i := len(s.trail) - 1; i >= bound; i-- {
		v := s.trail[i].Var()
		s.assigns[v] = Indet
		s.varData[v].level = 0
		s.varData[v].reason = NoReason()
		s.propData[v] = propData{ancestor: LitUndef}
	}
	s.trail = s.trail[:bound]
	s.trailLim = s.trailLim[:lvl]
	s.qhead = bound
}

// Trail returns the current assignment stack, in enqueue order. The returned
// slice is owned by the solver.
func (s *Solver) Trail() []Lit {
	return s.trail
}

// FailBinLit returns the other literal of the binary clause that raised the
// last binary or ternary conflict, for diagnostics.
func (s *Solver) FailBinLit() Lit {
	return s.failBinLit
}

// Unitaries returns the literals bound before the first decision, i.e the
// facts known at level 0.
func (s *Solver) Unitaries() []Lit {
	if s.DecisionLevel() == 0 {
		return nil
	}
	unitaries := make([]Lit, s.trailLim[0])
	copy(unitaries, s.trail[:s.trailLim[0]])
	return unitaries
}
