/*
Package solver implements the propagation core of a CDCL SAT solver: the
watched-literals index, the assignment trail, unit propagation and the
failed-literal probing mode with hyper-binary resolution.

The package does not search. The embedding CDCL loop creates variables,
attaches clauses and drives propagation:

	s := solver.New(nil)
	for i := 0; i < 3; i++ {
		s.MustNewVar()
	}
	a, b, c := solver.IntToLit(1), solver.IntToLit(2), solver.IntToLit(3)
	s.AttachBinary(a.Negation(), b, false)
	s.AttachClause(solver.NewClause([]solver.Lit{a.Negation(), b.Negation(), c}), 0, 1)

	s.NewDecisionLevel()
	s.Enqueue(a, solver.DecisionReason())
	if confl := s.Propagate(); !confl.IsNone() {
		// hand confl to conflict analysis
	}

Binary and ternary clauses live entirely inside the watchlists; clauses of
four or more literals are stored in an arena and referenced by stable
offsets. Watchers carry a blocker literal so that a satisfied clause is
detected without touching its body.

PropagateFull is the probing-time variant: it exhausts non-learnt binary
implications first, reconstructs implication ancestry, synthesizes
hyper-binary clauses and reports binaries made redundant by them.
*/
package solver
