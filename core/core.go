package core

import (
	"github.com/incrsat/incrsat/engine"
)

// Engine is the built-in incremental solver. It implements
// engine.Engine with a conflict-driven clause-learning search: two
// watched literals per clause, first-UIP conflict analysis, Luby
// restarts and phase saving. Assumption handling follows the usual
// incremental discipline: assumptions are decided before any free
// variable, and an assumption that cannot hold yields the set of
// assumptions involved in the contradiction.
//
// An Engine is not safe for concurrent use. It is normally driven
// through sat.Solver rather than directly.
type Engine struct {
	ok       bool // false once the empty clause has been derived
	status   int
	released bool

	maxVar int32 // highest variable index seen so far

	clauses []*clause
	watches [][]int32 // for each literal, indices of clauses watching it

	recorded [][]int32 // committed input clauses, kept for WriteDimacs
	used     []bool    // per var: occurs in an input clause

	assign   []int8  // per var: 1 true, -1 false, 0 unassigned
	level    []int32 // per var: decision level of the assignment
	reason   []int32 // per var: index of the implying clause, or -1
	phase    []int8  // per var: saved polarity from the last assignment
	activity []float64
	varInc   float64
	frozen   []int32 // per var: freeze count

	trail    []lit
	trailLim []int32
	qhead    int

	addBuf []int32 // clause under construction via Add
	conBuf []int32 // constraint clause under construction via Constrain
	conSet bool    // a constraint clause was closed for the next solve
	conSel int32   // activation literal of the installed constraint

	assumptions []lit
	failed      map[int32]bool // assumption literals in the last unsat core
	conFailed   bool

	model []int8 // last satisfying assignment, per var

	termData  uintptr
	termFn    engine.TerminateFunc
	learnData uintptr
	learnFn   engine.LearnFunc
	learnMax  int32

	// Per-call limits. Negative means no limit.
	limConflicts int
	limDecisions int
	limTerminate int

	opts map[string]int

	stats stats
}

type stats struct {
	conflicts int64
	decisions int64
	restarts  int64
	learned   int64
}

// Recognized option names with their default values. Unknown names are
// rejected so that misconfiguration surfaces instead of being ignored.
var defaultOptions = map[string]int{
	"verbose":    0,
	"quiet":      0,
	"seed":       0,
	"phase":      1,
	"restart":    1,
	"restartint": 100,
	"elim":       1,
	"subsume":    1,
	"walk":       1,
	"lucky":      1,
}

// New returns a fresh engine with no clauses.
func New() *Engine {
	opts := make(map[string]int, len(defaultOptions))
	for k, v := range defaultOptions {
		opts[k] = v
	}
	return &Engine{
		ok:           true,
		status:       engine.Unknown,
		varInc:       1,
		limConflicts: -1,
		limDecisions: -1,
		limTerminate: 0,
		opts:         opts,
	}
}

// ensureVar grows the variable-indexed structures up to CNF variable v.
func (e *Engine) ensureVar(v int32) {
	for e.maxVar < v {
		e.assign = append(e.assign, 0)
		e.level = append(e.level, 0)
		e.reason = append(e.reason, -1)
		e.phase = append(e.phase, 0)
		e.activity = append(e.activity, 0)
		e.frozen = append(e.frozen, 0)
		e.used = append(e.used, false)
		e.watches = append(e.watches, nil, nil)
		e.maxVar++
	}
}

// valueLit returns 1 if l is true under the current assignment, -1 if
// it is false and 0 if its variable is unassigned.
func (e *Engine) valueLit(l lit) int8 {
	a := e.assign[l.v()]
	if a == 0 {
		return 0
	}
	if (a == 1) == l.pos() {
		return 1
	}
	return -1
}

// Add implements engine.Engine.
func (e *Engine) Add(l int32) {
	if l == 0 {
		buf := e.addBuf
		e.addBuf = e.addBuf[:0]
		e.commit(buf, true)
		return
	}
	e.addBuf = append(e.addBuf, l)
}

// Assume implements engine.Engine.
func (e *Engine) Assume(l int32) {
	e.status = engine.Unknown
	e.ensureVar(abs(l))
	e.assumptions = append(e.assumptions, intToLit(l))
}

// Constrain implements engine.Engine.
func (e *Engine) Constrain(l int32) {
	e.status = engine.Unknown
	if l == 0 {
		e.conSet = true
		return
	}
	e.ensureVar(abs(l))
	e.conBuf = append(e.conBuf, l)
}

// commit normalizes a finished clause and installs it. Tautologies and
// clauses already satisfied at the root level are dropped; root-false
// literals are removed. Committing the empty clause makes the formula
// permanently unsatisfiable. When record is true the clause counts as
// part of the input problem.
func (e *Engine) commit(ints []int32, record bool) {
	e.status = engine.Unknown
	if record {
		cp := make([]int32, len(ints))
		copy(cp, ints)
		e.recorded = append(e.recorded, cp)
		for _, i := range ints {
			e.ensureVar(abs(i))
			e.used[abs(i)-1] = true
		}
	}
	if !e.ok {
		return
	}
	seen := make(map[lit]bool, len(ints))
	lits := make([]lit, 0, len(ints))
	for _, i := range ints {
		e.ensureVar(abs(i))
		l := intToLit(i)
		if seen[l.neg()] {
			return // tautology
		}
		if seen[l] {
			continue
		}
		switch e.valueLit(l) {
		case 1:
			return // satisfied at root level
		case -1:
			continue // false at root level
		}
		seen[l] = true
		lits = append(lits, l)
	}
	switch len(lits) {
	case 0:
		e.ok = false
	case 1:
		e.uncheckedEnqueue(lits[0], -1)
	default:
		idx := int32(len(e.clauses))
		e.clauses = append(e.clauses, &clause{lits: lits})
		e.watches[lits[0]] = append(e.watches[lits[0]], idx)
		e.watches[lits[1]] = append(e.watches[lits[1]], idx)
	}
}

// SetTerminate implements engine.Engine.
func (e *Engine) SetTerminate(data uintptr, fn engine.TerminateFunc) {
	e.termData = data
	e.termFn = fn
}

// SetLearn implements engine.Engine.
func (e *Engine) SetLearn(data uintptr, maxLen int32, fn engine.LearnFunc) {
	e.learnData = data
	e.learnMax = maxLen
	e.learnFn = fn
}

// SetOption implements engine.Engine.
func (e *Engine) SetOption(name string, val int) bool {
	if _, ok := e.opts[name]; !ok {
		return false
	}
	e.opts[name] = val
	return true
}

// Configure implements engine.Engine. The presets mirror the usual
// ones: "default" restores defaults, "plain" disables inprocessing,
// "sat" and "unsat" bias the search towards the respective verdict.
func (e *Engine) Configure(name string) bool {
	switch name {
	case "default":
		for k, v := range defaultOptions {
			e.opts[k] = v
		}
	case "plain":
		e.opts["elim"] = 0
		e.opts["subsume"] = 0
		e.opts["walk"] = 0
		e.opts["lucky"] = 0
	case "sat":
		e.opts["phase"] = 1
	case "unsat":
		e.opts["phase"] = 0
	default:
		return false
	}
	return true
}

// Limit implements engine.Engine. Limits hold for the next Solve call
// only and are reset afterwards.
func (e *Engine) Limit(name string, val int) bool {
	switch name {
	case "conflicts":
		e.limConflicts = val
	case "decisions":
		e.limDecisions = val
	case "terminate":
		e.limTerminate = val
	case "preprocessing", "localsearch":
		// Accepted for compatibility; the engine has no separate
		// preprocessing or local search phase to bound.
	default:
		return false
	}
	return true
}

// Freeze implements engine.Engine.
func (e *Engine) Freeze(l int32) {
	e.ensureVar(abs(l))
	e.frozen[abs(l)-1]++
}

// Melt implements engine.Engine.
func (e *Engine) Melt(l int32) {
	e.ensureVar(abs(l))
	if e.frozen[abs(l)-1] > 0 {
		e.frozen[abs(l)-1]--
	}
}

// Val implements engine.Engine.
func (e *Engine) Val(l int32) int32 {
	if e.status != engine.Satisfiable {
		return 0
	}
	v := abs(l)
	if v > int32(len(e.model)) {
		return 0
	}
	switch e.model[v-1] {
	case 1:
		return v
	case -1:
		return -v
	}
	return 0
}

// Failed implements engine.Engine.
func (e *Engine) Failed(l int32) int32 {
	if e.status != engine.Unsatisfiable {
		return 0
	}
	if e.failed[l] {
		return 1
	}
	return 0
}

// ConstraintFailed implements engine.Engine.
func (e *Engine) ConstraintFailed() int32 {
	if e.status == engine.Unsatisfiable && e.conFailed {
		return 1
	}
	return 0
}

// Simplify implements engine.Engine. It propagates root-level facts
// without searching. It returns Unsatisfiable on a root conflict and
// Satisfiable when every input clause is already satisfied, in which
// case any completion of the current assignment is a model.
func (e *Engine) Simplify() int {
	e.status = engine.Unknown
	if !e.ok {
		e.status = engine.Unsatisfiable
		return e.status
	}
	if confl := e.propagate(); confl >= 0 {
		e.ok = false
		e.status = engine.Unsatisfiable
		return e.status
	}
	for _, c := range e.clauses {
		if c.learnt {
			continue
		}
		sat := false
		for _, l := range c.lits {
			if e.valueLit(l) == 1 {
				sat = true
				break
			}
		}
		if !sat {
			return e.status
		}
	}
	e.model = make([]int8, e.maxVar)
	for v := int32(0); v < e.maxVar; v++ {
		switch {
		case e.assign[v] != 0:
			e.model[v] = e.assign[v]
		case e.phase[v] != 0:
			e.model[v] = e.phase[v]
		case e.opts["phase"] > 0:
			e.model[v] = 1
		default:
			e.model[v] = -1
		}
	}
	e.status = engine.Satisfiable
	return e.status
}

// Vars implements engine.Engine.
func (e *Engine) Vars() int32 {
	return e.maxVar
}

// Active implements engine.Engine. A variable is active if it occurs
// in an input clause and is not fixed at the root level.
func (e *Engine) Active() int64 {
	var n int64
	for v := int32(0); v < e.maxVar; v++ {
		if e.used[v] && e.assign[v] == 0 {
			n++
		}
	}
	return n
}

// Irredundant implements engine.Engine.
func (e *Engine) Irredundant() int64 {
	return int64(len(e.recorded))
}

// Status implements engine.Engine.
func (e *Engine) Status() int {
	return e.status
}

// Signature implements engine.Engine.
func (e *Engine) Signature() string {
	return "incrsat-core-1.0.0"
}

// Release implements engine.Engine.
func (e *Engine) Release() {
	if e.released {
		return
	}
	e.released = true
	e.clauses = nil
	e.watches = nil
	e.recorded = nil
	e.trail = nil
	e.model = nil
	e.termFn = nil
	e.learnFn = nil
}

func abs(i int32) int32 {
	if i < 0 {
		return -i
	}
	return i
}
