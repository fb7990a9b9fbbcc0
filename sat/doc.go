/*
Package sat exposes an incremental SAT solver through a small,
stateful and safe API. The conflict-driven search itself lives behind
the narrow engine boundary (see the engine and core packages); this
package contributes the contract that makes incremental use of such an
engine safe: literal validation, the solver state machine, and the
bridge between Go closures and the engine's function-pointer hooks.

Literals are non-zero integers exactly as in the DIMACS format: the
magnitude names a variable, the sign its polarity. A minimal session
looks like this:

	s := sat.New()
	defer s.Release()
	s.AddClause(1, 2)
	s.AddClause(-1, 2)
	status, _ := s.Solve()   // sat.Satisfiable
	value, _ := s.Value(2)   // sat.True

Solving under assumptions is a single call: the assumptions hold for
exactly that call and are consumed afterwards. When the verdict is
Unsatisfiable, Failed reports which assumptions were involved:

	status, _ = s.SolveWith(-2)  // sat.Unsatisfiable
	failed, _ := s.Failed(-2)    // true

Searches can be bounded cooperatively with SetTerminate, SetTimeout,
SolveContext or engine limits; an aborted call returns Unknown, which
is a valid outcome rather than an error. Learned clauses can be
observed with SetLearn. Both callback kinds run synchronously on the
goroutine that called Solve, and a panic inside either is contained at
the bridge, aborting the call with ErrCallbackFailed instead of
unwinding into the engine.
*/
package sat
