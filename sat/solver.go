package sat

import (
	"context"
	"math"
	"runtime/cgo"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/incrsat/incrsat/core"
	"github.com/incrsat/incrsat/engine"
)

// Solver is a safe incremental façade over a solver engine. It tracks
// which queries are legal in which state, validates literals before
// they reach the engine, and bridges the user's callbacks to the
// engine's function-pointer hooks.
//
// A Solver exclusively owns its engine: the engine handle is created
// on construction and released exactly once by Release. A Solver is
// not safe for concurrent use; at most one call may be in flight at
// any time, and callbacks run on the goroutine that called Solve.
// Callbacks must not call back into the Solver.
type Solver struct {
	eng      engine.Engine
	status   Status
	released bool

	cb       *callbackState
	handle   cgo.Handle
	maxLearn int
	timeout  time.Duration

	assumed []int32 // assumptions of the most recent solve call

	logger logrus.FieldLogger
}

// New returns a fresh solver backed by the built-in engine, with no
// clauses, an Unknown status and no callbacks.
func New() *Solver {
	return NewWithEngine(core.New())
}

// NewWithEngine returns a fresh solver driving the given engine. The
// solver takes ownership: the engine must not be shared or used
// directly afterwards.
func NewWithEngine(eng engine.Engine) *Solver {
	s := &Solver{eng: eng, cb: &callbackState{}}
	s.handle = cgo.NewHandle(s.cb)
	return s
}

// WithConfig returns a fresh solver set up with the named option
// preset, such as "plain", "sat" or "unsat".
func WithConfig(config string) (*Solver, error) {
	s := New()
	if err := s.Configure(config); err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

// SetLogger installs a logger for debug-level solve tracing. The
// solver is silent when no logger is set.
func (s *Solver) SetLogger(logger logrus.FieldLogger) {
	s.logger = logger
}

func validateLit(l int32) error {
	if l == 0 || l == math.MinInt32 {
		return errors.Wrapf(ErrInvalidLiteral, "literal %d", l)
	}
	return nil
}

// AddClause adds a clause to the solver. Literals are non-zero DIMACS
// integers; the empty clause is accepted and makes the problem
// unsatisfiable. The status reverts to Unknown because the search
// space changed.
func (s *Solver) AddClause(lits ...int32) error {
	if s.released {
		return ErrReleased
	}
	for _, l := range lits {
		if err := validateLit(l); err != nil {
			return err
		}
	}
	for _, l := range lits {
		s.eng.Add(l)
	}
	s.eng.Add(0) // the boundary appends the sentinel, callers never see it
	s.status = Unknown
	return nil
}

// Solve searches for a model of the added clauses. It blocks the
// calling goroutine until a verdict is reached or the search is
// aborted by a terminator, a deadline or an engine limit, in which
// case the result is Unknown. An Unknown result is not an error.
func (s *Solver) Solve() (Status, error) {
	return s.solve(nil, nil)
}

// SolveWith is Solve under assumptions: each literal is treated as
// forced true for this single call. Assumptions are consumed whether
// or not a verdict is reached and never persist to the next call.
func (s *Solver) SolveWith(assumptions ...int32) (Status, error) {
	return s.solve(nil, assumptions)
}

// SolveContext is SolveWith with cooperative cancellation: the
// context is polled through the termination hook and cancelling it
// aborts the search. The context error is returned when the abort was
// caused by the cancellation.
func (s *Solver) SolveContext(ctx context.Context, assumptions ...int32) (Status, error) {
	return s.solve(ctx, assumptions)
}

func (s *Solver) solve(ctx context.Context, assumptions []int32) (Status, error) {
	if s.released {
		return Unknown, ErrReleased
	}
	for _, l := range assumptions {
		if err := validateLit(l); err != nil {
			return Unknown, err
		}
	}
	s.status = Unknown
	s.cb.err = nil
	s.cb.ctx = ctx
	if s.timeout > 0 {
		s.cb.deadline = time.Now().Add(s.timeout)
	}
	s.install()
	defer func() {
		// No bridge state persists across calls.
		s.cb.ctx = nil
		s.cb.deadline = time.Time{}
	}()
	for _, l := range assumptions {
		s.eng.Assume(l)
	}
	s.assumed = append(s.assumed[:0], assumptions...)
	if s.logger != nil {
		s.logger.WithField("assumptions", len(assumptions)).Debug("solve started")
	}
	res := s.eng.Solve()
	if err := s.cb.err; err != nil {
		s.cb.err = nil
		if s.logger != nil {
			s.logger.WithError(err).Debug("solve aborted by a failing callback")
		}
		// The verdict cannot be trusted after a callback failure.
		return Unknown, err
	}
	switch res {
	case engine.Satisfiable:
		s.status = Satisfiable
	case engine.Unsatisfiable:
		s.status = Unsatisfiable
	case engine.Unknown:
		s.status = Unknown
	default:
		return Unknown, errors.Wrapf(ErrEngineFailure, "unexpected solve result %d", res)
	}
	if s.logger != nil {
		s.logger.WithField("status", s.status).Debug("solve finished")
	}
	if s.status == Unknown && ctx != nil && ctx.Err() != nil {
		return Unknown, ctx.Err()
	}
	return s.status, nil
}

// Status returns the verdict of the most recent solve attempt.
func (s *Solver) Status() Status {
	return s.status
}

// Value returns the value of the given literal in the current model.
// It requires a Satisfiable status and fails with ErrInvalidQuery
// otherwise; a literal the model does not constrain is reported as
// Undetermined.
func (s *Solver) Value(l int32) (Assignment, error) {
	if s.released {
		return Undetermined, ErrReleased
	}
	if err := validateLit(l); err != nil {
		return Undetermined, err
	}
	if s.status != Satisfiable {
		return Undetermined, errors.Wrapf(ErrInvalidQuery, "value(%d) requires a satisfiable verdict, status is %s", l, s.status)
	}
	v := s.eng.Val(l)
	if v == 0 {
		return Undetermined, nil
	}
	if (v > 0) == (l > 0) {
		return True, nil
	}
	return False, nil
}

// Failed reports whether the given literal is part of why the problem
// is unsatisfiable under the assumptions of the most recent SolveWith
// call. It requires an Unsatisfiable status and a literal that was
// actually assumed in that call; it fails with ErrInvalidQuery
// otherwise.
func (s *Solver) Failed(l int32) (bool, error) {
	if s.released {
		return false, ErrReleased
	}
	if err := validateLit(l); err != nil {
		return false, err
	}
	if s.status != Unsatisfiable {
		return false, errors.Wrapf(ErrInvalidQuery, "failed(%d) requires an unsatisfiable verdict, status is %s", l, s.status)
	}
	assumed := false
	for _, a := range s.assumed {
		if a == l {
			assumed = true
			break
		}
	}
	if !assumed {
		return false, errors.Wrapf(ErrInvalidQuery, "literal %d was not assumed in the last solve call", l)
	}
	return s.eng.Failed(l) == 1, nil
}

// Constrain adds a constraint clause that must hold during the next
// solve call only. The empty constraint forces that call to be
// unsatisfiable.
func (s *Solver) Constrain(lits ...int32) error {
	if s.released {
		return ErrReleased
	}
	for _, l := range lits {
		if err := validateLit(l); err != nil {
			return err
		}
	}
	for _, l := range lits {
		s.eng.Constrain(l)
	}
	s.eng.Constrain(0)
	s.status = Unknown
	return nil
}

// ConstraintFailed reports whether the constraint clause of the most
// recent solve call was part of the unsatisfiability proof. It
// requires an Unsatisfiable status.
func (s *Solver) ConstraintFailed() (bool, error) {
	if s.released {
		return false, ErrReleased
	}
	if s.status != Unsatisfiable {
		return false, errors.Wrapf(ErrInvalidQuery, "constraint failed requires an unsatisfiable verdict, status is %s", s.status)
	}
	return s.eng.ConstraintFailed() == 1, nil
}

// SetTerminate installs a termination predicate. The engine polls it
// at bounded intervals during solve calls, on the calling goroutine;
// returning true requests a cooperative abort and makes the call
// return Unknown. The predicate must not call back into the Solver.
func (s *Solver) SetTerminate(fn func() bool) {
	if s.released {
		return
	}
	s.cb.terminate = fn
	s.install()
}

// ClearTerminate removes the termination predicate.
func (s *Solver) ClearTerminate() {
	if s.released {
		return
	}
	s.cb.terminate = nil
	s.install()
}

// SetLearn installs an observer invoked once per learned clause of at
// most maxLen literals; longer clauses are skipped by the engine.
// The clause buffer is only valid for the duration of the call; the
// observer must copy it to keep it. The observer must not call back
// into the Solver.
func (s *Solver) SetLearn(maxLen int, fn func(clause []int32)) {
	if s.released {
		return
	}
	if maxLen < 0 {
		maxLen = 0
	}
	s.maxLearn = maxLen
	s.cb.learn = fn
	s.install()
}

// ClearLearn removes the learned-clause observer.
func (s *Solver) ClearLearn() {
	if s.released {
		return
	}
	s.cb.learn = nil
	s.maxLearn = 0
	s.install()
}

// SetTimeout bounds every subsequent solve call to the given duration,
// measured from the start of the call. The bound is cooperative: the
// engine notices it at its next termination poll. A zero duration
// removes the bound.
func (s *Solver) SetTimeout(d time.Duration) {
	if s.released {
		return
	}
	s.timeout = d
	s.install()
}

// install synchronizes the engine-side registrations with the current
// callbacks. The termination trampoline is installed whenever anything
// may need to abort a search: a user predicate, a deadline, a context,
// or a learn observer whose failure must stop the engine.
func (s *Solver) install() {
	needTerminate := s.cb.terminate != nil || s.timeout > 0 || s.cb.learn != nil || s.cb.ctx != nil
	if needTerminate {
		s.eng.SetTerminate(uintptr(s.handle), terminateTrampoline)
	} else {
		s.eng.SetTerminate(0, nil)
	}
	if s.cb.learn != nil {
		s.eng.SetLearn(uintptr(s.handle), int32(s.maxLearn), learnTrampoline)
	} else {
		s.eng.SetLearn(0, 0, nil)
	}
}

// Set sets a named engine option. It fails with ErrUnknownOption when
// the engine rejects the name.
func (s *Solver) Set(name string, val int) error {
	if s.released {
		return ErrReleased
	}
	if !s.eng.SetOption(name, val) {
		return errors.Wrapf(ErrUnknownOption, "option %q", name)
	}
	return nil
}

// Configure applies a named option preset. It fails with
// ErrUnknownOption when the engine rejects the name.
func (s *Solver) Configure(name string) error {
	if s.released {
		return ErrReleased
	}
	if !s.eng.Configure(name) {
		return errors.Wrapf(ErrUnknownOption, "configuration %q", name)
	}
	return nil
}

// SetLimit sets a named resource limit for the next solve call only,
// such as "conflicts" or "decisions". It fails with ErrUnknownOption
// when the engine rejects the name.
func (s *Solver) SetLimit(name string, val int) error {
	if s.released {
		return ErrReleased
	}
	if !s.eng.Limit(name, val) {
		return errors.Wrapf(ErrUnknownOption, "limit %q", name)
	}
	return nil
}

// Simplify runs preprocessing without search, like Solve with a pure
// preprocessing budget. The resulting status follows the same rules
// as Solve.
func (s *Solver) Simplify() (Status, error) {
	if s.released {
		return Unknown, ErrReleased
	}
	switch res := s.eng.Simplify(); res {
	case engine.Satisfiable:
		s.status = Satisfiable
	case engine.Unsatisfiable:
		s.status = Unsatisfiable
	case engine.Unknown:
		s.status = Unknown
	default:
		return Unknown, errors.Wrapf(ErrEngineFailure, "unexpected simplify result %d", res)
	}
	return s.status, nil
}

// Freeze marks the variable of the literal as needed by future calls.
func (s *Solver) Freeze(l int32) error {
	if s.released {
		return ErrReleased
	}
	if err := validateLit(l); err != nil {
		return err
	}
	s.eng.Freeze(l)
	return nil
}

// Melt undoes one Freeze of the variable of the literal.
func (s *Solver) Melt(l int32) error {
	if s.released {
		return ErrReleased
	}
	if err := validateLit(l); err != nil {
		return err
	}
	s.eng.Melt(l)
	return nil
}

// MaxVariable returns the maximum variable index known to the engine.
func (s *Solver) MaxVariable() int32 {
	if s.released {
		return 0
	}
	return s.eng.Vars()
}

// NumVariables returns the number of active variables.
func (s *Solver) NumVariables() int64 {
	if s.released {
		return 0
	}
	return s.eng.Active()
}

// NumClauses returns the number of irredundant clauses.
func (s *Solver) NumClauses() int64 {
	if s.released {
		return 0
	}
	return s.eng.Irredundant()
}

// Signature identifies the engine behind the solver.
func (s *Solver) Signature() string {
	if s.released {
		return ""
	}
	return s.eng.Signature()
}

// ReadDimacs loads a DIMACS CNF problem into a fresh solver and
// returns its number of variables. It fails with ErrInvalidQuery when
// clauses were already added, and with ErrUnsupported when the engine
// has no DIMACS support. Engine-reported parse errors are surfaced
// verbatim.
func (s *Solver) ReadDimacs(path string) (int32, error) {
	if s.released {
		return 0, ErrReleased
	}
	if s.eng.Vars() != 0 {
		return 0, errors.Wrap(ErrInvalidQuery, "read dimacs requires an empty solver")
	}
	dr, ok := s.eng.(engine.DimacsReader)
	if !ok {
		return 0, errors.Wrap(ErrUnsupported, "read dimacs")
	}
	vars, err := dr.ReadDimacs(path, false)
	if err != nil {
		return 0, errors.Wrap(err, "read dimacs")
	}
	s.status = Unknown
	return vars, nil
}

// WriteDimacs writes the problem to a DIMACS CNF file. It fails with
// ErrUnsupported when the engine has no DIMACS support.
func (s *Solver) WriteDimacs(path string) error {
	if s.released {
		return ErrReleased
	}
	dw, ok := s.eng.(engine.DimacsWriter)
	if !ok {
		return errors.Wrap(ErrUnsupported, "write dimacs")
	}
	if err := dw.WriteDimacs(path, 0); err != nil {
		return errors.Wrap(err, "write dimacs")
	}
	return nil
}

// Release clears both callback registrations and then releases the
// engine handle, in that order, so the engine can never invoke a
// stale trampoline during its own teardown. Release is idempotent;
// every other operation fails with ErrReleased afterwards.
func (s *Solver) Release() {
	if s.released {
		return
	}
	s.released = true
	s.eng.SetTerminate(0, nil)
	s.eng.SetLearn(0, 0, nil)
	s.handle.Delete()
	s.eng.Release()
}
