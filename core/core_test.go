package core

import (
	"testing"

	"github.com/incrsat/incrsat/engine"
)

func addClause(e *Engine, lits ...int32) {
	for _, l := range lits {
		e.Add(l)
	}
	e.Add(0)
}

func newEngine(clauses [][]int32) *Engine {
	e := New()
	for _, cl := range clauses {
		addClause(e, cl...)
	}
	return e
}

// litSatisfied returns true iff l is true in the last model of e.
func litSatisfied(e *Engine, l int32) bool {
	val := e.Val(l)
	if l > 0 {
		return val == l
	}
	return val == l
}

func checkModel(t *testing.T, e *Engine, clauses [][]int32) {
	t.Helper()
	for _, cl := range clauses {
		sat := false
		for _, l := range cl {
			if litSatisfied(e, l) {
				sat = true
				break
			}
		}
		if !sat {
			t.Errorf("clause %v not satisfied by model", cl)
		}
	}
}

var solveTests = []struct {
	name    string
	clauses [][]int32
	want    int
}{
	{"empty problem", nil, engine.Satisfiable},
	{"single unit", [][]int32{{1}}, engine.Satisfiable},
	{"contradictory units", [][]int32{{1}, {-1}}, engine.Unsatisfiable},
	{"binary clause", [][]int32{{1, 2}}, engine.Satisfiable},
	{"forced variable", [][]int32{{1, 2}, {-1, 2}}, engine.Satisfiable},
	{"implication chain", [][]int32{{1}, {-1, 2}, {-2, 3}, {-3, 4}}, engine.Satisfiable},
	{"all polarities", [][]int32{{1, 2}, {1, -2}, {-1, 2}, {-1, -2}}, engine.Unsatisfiable},
	{"empty clause", [][]int32{{}}, engine.Unsatisfiable},
	{"tautology only", [][]int32{{1, -1}}, engine.Satisfiable},
	{
		"pigeonhole 3 in 2",
		[][]int32{
			{1, 2}, {3, 4}, {5, 6},
			{-1, -3}, {-1, -5}, {-3, -5},
			{-2, -4}, {-2, -6}, {-4, -6},
		},
		engine.Unsatisfiable,
	},
	{
		"satisfiable 3-CNF",
		[][]int32{
			{1, 2, 3}, {-1, -2}, {-1, -3}, {-2, -3}, {1, -2, 3},
		},
		engine.Satisfiable,
	},
}

func TestSolve(t *testing.T) {
	for _, tt := range solveTests {
		e := newEngine(tt.clauses)
		if got := e.Solve(); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
			continue
		}
		if tt.want == engine.Satisfiable {
			checkModel(t, e, tt.clauses)
		}
	}
}

func TestSolveTwice(t *testing.T) {
	for _, tt := range solveTests {
		e := newEngine(tt.clauses)
		first := e.Solve()
		second := e.Solve()
		if first != second {
			t.Errorf("%s: first solve gave %d, second %d", tt.name, first, second)
		}
	}
}

func TestStatusResetOnAdd(t *testing.T) {
	e := newEngine([][]int32{{1, 2}})
	if got := e.Solve(); got != engine.Satisfiable {
		t.Fatalf("expected satisfiable, got %d", got)
	}
	if got := e.Status(); got != engine.Satisfiable {
		t.Fatalf("status should be satisfiable, got %d", got)
	}
	addClause(e, -1, -2)
	if got := e.Status(); got != engine.Unknown {
		t.Errorf("status should reset to unknown after add, got %d", got)
	}
}

func TestForcedValue(t *testing.T) {
	e := newEngine([][]int32{{1, 2}, {-1, 2}})
	if got := e.Solve(); got != engine.Satisfiable {
		t.Fatalf("expected satisfiable, got %d", got)
	}
	if got := e.Val(2); got != 2 {
		t.Errorf("expected val(2) = 2, got %d", got)
	}
	if got := e.Val(-2); got != 2 {
		t.Errorf("expected val(-2) = 2, got %d", got)
	}
}

func TestValOutsideSat(t *testing.T) {
	e := newEngine([][]int32{{1}, {-1}})
	if got := e.Solve(); got != engine.Unsatisfiable {
		t.Fatalf("expected unsatisfiable, got %d", got)
	}
	if got := e.Val(1); got != 0 {
		t.Errorf("expected val(1) = 0 outside a model, got %d", got)
	}
}

func TestFailedAssumption(t *testing.T) {
	e := newEngine([][]int32{{1}})
	e.Assume(-1)
	if got := e.Solve(); got != engine.Unsatisfiable {
		t.Fatalf("expected unsatisfiable under -1, got %d", got)
	}
	if got := e.Failed(-1); got != 1 {
		t.Errorf("expected -1 to be a failed assumption")
	}
	if got := e.Failed(1); got != 0 {
		t.Errorf("1 was never assumed, failed(1) should be 0")
	}
	// Assumptions must not leak into the next call.
	if got := e.Solve(); got != engine.Satisfiable {
		t.Errorf("expected satisfiable without assumptions, got %d", got)
	}
}

func TestContradictoryAssumptions(t *testing.T) {
	e := newEngine([][]int32{{1, 2}})
	e.Assume(1)
	e.Assume(-1)
	if got := e.Solve(); got != engine.Unsatisfiable {
		t.Fatalf("expected unsatisfiable, got %d", got)
	}
	if e.Failed(1) != 1 || e.Failed(-1) != 1 {
		t.Errorf("both contradictory assumptions should be failed")
	}
}

func TestAssumptionsSatisfiable(t *testing.T) {
	e := newEngine([][]int32{{1, 2}})
	e.Assume(-1)
	if got := e.Solve(); got != engine.Satisfiable {
		t.Fatalf("expected satisfiable under -1, got %d", got)
	}
	if got := e.Val(2); got != 2 {
		t.Errorf("expected 2 forced true under assumption -1, got val %d", got)
	}
}

func TestLearnCallback(t *testing.T) {
	e := newEngine([][]int32{{1, 2}, {1, -2}, {-1, 2}, {-1, -2}})
	var clauses [][]int32
	e.SetLearn(7, 10, func(data uintptr, clause []int32) {
		if data != 7 {
			t.Errorf("expected opaque context 7, got %d", data)
		}
		cp := make([]int32, len(clause))
		copy(cp, clause)
		clauses = append(clauses, cp)
	})
	if got := e.Solve(); got != engine.Unsatisfiable {
		t.Fatalf("expected unsatisfiable, got %d", got)
	}
	if len(clauses) == 0 {
		t.Fatal("expected at least one learned clause to be reported")
	}
	for _, cl := range clauses {
		if len(cl) < 2 || cl[len(cl)-1] != 0 {
			t.Errorf("learned clause buffer %v should be zero-terminated", cl)
		}
		for _, l := range cl[:len(cl)-1] {
			if l == 0 {
				t.Errorf("learned clause %v has an interior zero", cl)
			}
		}
	}
}

func TestLearnMaxLen(t *testing.T) {
	e := newEngine([][]int32{{1, 2}, {1, -2}, {-1, 2}, {-1, -2}})
	calls := 0
	e.SetLearn(0, 0, func(data uintptr, clause []int32) { calls++ })
	if got := e.Solve(); got != engine.Unsatisfiable {
		t.Fatalf("expected unsatisfiable, got %d", got)
	}
	if calls != 0 {
		t.Errorf("no clause should be reported with a zero length bound, got %d calls", calls)
	}
}

func TestTerminate(t *testing.T) {
	e := newEngine([][]int32{{1, 2}})
	polls := 0
	e.SetTerminate(3, func(data uintptr) int32 {
		if data != 3 {
			t.Errorf("expected opaque context 3, got %d", data)
		}
		polls++
		return 1
	})
	if got := e.Solve(); got != engine.Unknown {
		t.Errorf("expected unknown with an always-firing terminator, got %d", got)
	}
	if polls == 0 {
		t.Error("terminator was never polled")
	}
	// Clearing the hook lets the search run to completion.
	e.SetTerminate(0, nil)
	if got := e.Solve(); got != engine.Satisfiable {
		t.Errorf("expected satisfiable after clearing the terminator, got %d", got)
	}
}

func TestConflictLimit(t *testing.T) {
	e := newEngine([][]int32{{1, 2}, {1, -2}, {-1, 2}, {-1, -2}})
	if !e.Limit("conflicts", 0) {
		t.Fatal("conflicts should be a known limit")
	}
	if got := e.Solve(); got != engine.Unknown {
		t.Errorf("expected unknown under a zero conflict budget, got %d", got)
	}
	// Limits only hold for one call.
	if got := e.Solve(); got != engine.Unsatisfiable {
		t.Errorf("expected unsatisfiable once the budget is lifted, got %d", got)
	}
}

func TestDecisionLimit(t *testing.T) {
	e := newEngine([][]int32{{1, 2}})
	if !e.Limit("decisions", 0) {
		t.Fatal("decisions should be a known limit")
	}
	if got := e.Solve(); got != engine.Unknown {
		t.Errorf("expected unknown under a zero decision budget, got %d", got)
	}
}

func TestUnknownLimit(t *testing.T) {
	e := New()
	if e.Limit("frobnicate", 1) {
		t.Error("unknown limit name should be rejected")
	}
}

func TestConstraint(t *testing.T) {
	e := newEngine([][]int32{{1}})
	e.Constrain(-1)
	e.Constrain(0)
	if got := e.Solve(); got != engine.Unsatisfiable {
		t.Fatalf("expected unsatisfiable under constraint -1, got %d", got)
	}
	if got := e.ConstraintFailed(); got != 1 {
		t.Errorf("the constraint should be part of the unsat core")
	}
	// The constraint holds for a single call only.
	if got := e.Solve(); got != engine.Satisfiable {
		t.Errorf("expected satisfiable after the constraint expired, got %d", got)
	}
}

func TestEmptyConstraint(t *testing.T) {
	e := newEngine([][]int32{{1}})
	e.Constrain(0)
	if got := e.Solve(); got != engine.Unsatisfiable {
		t.Fatalf("an empty constraint clause should force unsatisfiable, got %d", got)
	}
	if got := e.ConstraintFailed(); got != 1 {
		t.Errorf("the empty constraint should be failed")
	}
}

func TestOptions(t *testing.T) {
	e := New()
	if !e.SetOption("phase", 0) {
		t.Error("phase should be a known option")
	}
	if e.SetOption("frobnicate", 1) {
		t.Error("unknown option name should be rejected")
	}
	for _, cfg := range []string{"default", "plain", "sat", "unsat"} {
		if !e.Configure(cfg) {
			t.Errorf("configuration %q should be accepted", cfg)
		}
	}
	if e.Configure("frobnicate") {
		t.Error("unknown configuration name should be rejected")
	}
}

func TestCounts(t *testing.T) {
	e := New()
	addClause(e, 1, -3)
	if got := e.Vars(); got != 3 {
		t.Errorf("expected max variable 3, got %d", got)
	}
	if got := e.Active(); got != 2 {
		t.Errorf("expected 2 active variables, got %d", got)
	}
	if got := e.Irredundant(); got != 1 {
		t.Errorf("expected 1 irredundant clause, got %d", got)
	}
}

func TestSimplify(t *testing.T) {
	e := newEngine([][]int32{{1}})
	if got := e.Simplify(); got != engine.Satisfiable {
		t.Errorf("a problem of root facts should simplify to satisfiable, got %d", got)
	}
	e = newEngine([][]int32{{1}, {-1}})
	if got := e.Simplify(); got != engine.Unsatisfiable {
		t.Errorf("contradictory units should simplify to unsatisfiable, got %d", got)
	}
	e = newEngine([][]int32{{1, 2}})
	if got := e.Simplify(); got != engine.Unknown {
		t.Errorf("an undecided clause should leave simplify at unknown, got %d", got)
	}
}

func TestFreezeMelt(t *testing.T) {
	e := New()
	e.Freeze(2)
	e.Freeze(-2)
	e.Melt(2)
	e.Melt(2)
	e.Melt(2) // melting below zero is ignored
	if got := e.Vars(); got != 2 {
		t.Errorf("freeze should grow the variable range, got %d", got)
	}
}
