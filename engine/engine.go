package engine

// Result codes returned by Solve, Simplify and Status.
// They follow the usual SAT solver convention, also used as process
// exit codes by competition solvers.
const (
	// Unknown means no verdict was reached: the search was terminated
	// by a callback or hit a resource limit.
	Unknown = 0
	// Satisfiable means a model was found.
	Satisfiable = 10
	// Unsatisfiable means the formula was proven unsatisfiable.
	Unsatisfiable = 20
)

// A TerminateFunc is polled by the engine during search.
// The data argument is the opaque context value given at registration.
// A nonzero return value asks the engine to abort the current solve.
type TerminateFunc func(data uintptr) int32

// A LearnFunc is invoked by the engine once per learned clause.
// The clause buffer is zero-terminated and only valid for the duration
// of the call; the data argument is the opaque context value given at
// registration.
type LearnFunc func(data uintptr, clause []int32)

// Engine is the narrow contract an incremental solver engine must
// satisfy to be driven by the sat package. It mirrors the shape of the
// IPASIR C interface: literals are non-zero DIMACS integers, clauses
// are streamed literal by literal and closed with a 0 sentinel, and
// callbacks are plain functions bound to an opaque context value.
//
// Engines are single-owner: exactly one Solver drives an Engine for
// its whole lifetime, and at most one call is in flight at any time.
type Engine interface {
	// Add appends a literal to the clause under construction, or
	// commits the clause when lit is 0.
	Add(lit int32)
	// Assume registers an assumption for the next Solve call only.
	Assume(lit int32)
	// Constrain appends a literal to the one-shot constraint clause
	// for the next Solve call, or closes it when lit is 0.
	Constrain(lit int32)
	// Solve runs the search and returns one of the result codes.
	// Assumptions and constraints are consumed whether or not a
	// verdict was reached.
	Solve() int
	// Val reports the value of a variable in the last model. It
	// returns the positive variable index if the variable is true,
	// the negated index if it is false, and 0 when the model does not
	// determine it. Only meaningful right after Solve returned
	// Satisfiable.
	Val(lit int32) int32
	// Failed reports whether the given assumption literal was used in
	// the proof of unsatisfiability of the last Solve call. Only
	// meaningful right after Solve returned Unsatisfiable.
	Failed(lit int32) int32
	// ConstraintFailed reports whether the one-shot constraint clause
	// was used in the proof of unsatisfiability of the last Solve
	// call.
	ConstraintFailed() int32
	// SetTerminate installs fn as the cooperative-cancellation hook,
	// bound to the opaque data value. A nil fn clears the hook.
	SetTerminate(data uintptr, fn TerminateFunc)
	// SetLearn installs fn as the learned-clause observer, bound to
	// the opaque data value. Only clauses of at most maxLen literals
	// are reported; shorter limits are enforced by the engine, not by
	// the caller. A nil fn clears the hook.
	SetLearn(data uintptr, maxLen int32, fn LearnFunc)
	// SetOption sets a named engine option. It reports whether the
	// name was recognized.
	SetOption(name string, val int) bool
	// Configure applies a named option preset. It reports whether the
	// name was recognized.
	Configure(name string) bool
	// Limit sets a named resource limit for the next Solve call only.
	// It reports whether the name was recognized.
	Limit(name string, val int) bool
	// Simplify runs preprocessing without search and returns one of
	// the result codes.
	Simplify() int
	// Freeze marks the variable of lit as needed by future calls.
	Freeze(lit int32)
	// Melt undoes one Freeze of the variable of lit.
	Melt(lit int32)
	// Vars returns the maximum variable index seen so far.
	Vars() int32
	// Active returns the number of active variables.
	Active() int64
	// Irredundant returns the number of irredundant clauses.
	Irredundant() int64
	// Status returns the result code of the last Solve call, or
	// Unknown if the clause database changed since.
	Status() int
	// Signature identifies the engine and its version.
	Signature() string
	// Release frees the engine. The engine must not be used
	// afterwards; callbacks must have been cleared before.
	Release()
}

// DimacsReader is implemented by engines that can load a problem from
// a DIMACS CNF file. Loading is only valid on an empty engine.
type DimacsReader interface {
	// ReadDimacs parses the file at path and returns the maximum
	// variable index of the problem. In strict mode, header and
	// clause counts must match exactly.
	ReadDimacs(path string, strict bool) (int32, error)
}

// DimacsWriter is implemented by engines that can dump their clause
// database to a DIMACS CNF file.
type DimacsWriter interface {
	// WriteDimacs writes the problem to the file at path. The header
	// declares at least minMaxVar variables.
	WriteDimacs(path string, minMaxVar int32) error
}
