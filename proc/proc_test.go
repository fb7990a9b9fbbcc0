package proc

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/incrsat/incrsat/engine"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name  string
		out   string
		res   int
		model map[int32]bool
		ok    bool
	}{
		{
			name:  "satisfiable",
			out:   "c comment\ns SATISFIABLE\nv 1 -2\nv 3 0\n",
			res:   engine.Satisfiable,
			model: map[int32]bool{1: true, 2: false, 3: true},
			ok:    true,
		},
		{
			name: "unsatisfiable",
			out:  "s UNSATISFIABLE\n",
			res:  engine.Unsatisfiable,
			ok:   true,
		},
		{
			name: "unknown verdict",
			out:  "s UNKNOWN\n",
			res:  engine.Unknown,
			ok:   true,
		},
		{
			name: "no s line",
			out:  "c nothing to see\n",
			ok:   false,
		},
		{
			name: "bad model literal",
			out:  "s SATISFIABLE\nv 1 x 0\n",
			ok:   false,
		},
	}
	for _, test := range tests {
		res, model, err := parseOutput(test.out)
		if test.ok && err != nil {
			t.Errorf("%s: unexpected error %v", test.name, err)
			continue
		}
		if !test.ok {
			if err == nil {
				t.Errorf("%s: expected an error", test.name)
			}
			continue
		}
		if res != test.res {
			t.Errorf("%s: expected result %d, got %d", test.name, test.res, res)
		}
		if test.model != nil {
			for v, pos := range test.model {
				if model[v] != pos {
					t.Errorf("%s: expected var %d = %v", test.name, v, pos)
				}
			}
		}
	}
}

func TestRender(t *testing.T) {
	e := New("true")
	for _, l := range []int32{1, 2, 0, -1, 3, 0} {
		e.Add(l)
	}
	e.Assume(-3)
	e.Constrain(2)
	e.Constrain(0)

	path := filepath.Join(t.TempDir(), "problem.cnf")
	if err := e.render(path); err != nil {
		t.Fatalf("could not render problem: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read problem back: %v", err)
	}
	expected := "p cnf 3 4\n1 2 0\n-1 3 0\n-3 0\n2 0\n"
	if string(content) != expected {
		t.Errorf("expected rendered problem %q, got %q", expected, content)
	}
}

func TestCmdArgs(t *testing.T) {
	e := New("cadical", "-q")
	if !e.Configure("plain") {
		t.Errorf("expected the plain configuration to be accepted")
	}
	if !e.Limit("conflicts", 100) {
		t.Errorf("expected the conflicts limit to be accepted")
	}
	args := strings.Join(e.cmdArgs("problem.cnf"), " ")
	for _, want := range []string{"-q", "--plain", "--conflicts=100", "problem.cnf"} {
		if !strings.Contains(args, want) {
			t.Errorf("expected %q in the command line %q", want, args)
		}
	}
}

func TestOptionNames(t *testing.T) {
	e := New("cadical")
	if e.Configure("no-such-config") {
		t.Errorf("expected an unknown configuration to be rejected")
	}
	if e.Limit("no-such-limit", 1) {
		t.Errorf("expected an unknown limit to be rejected")
	}
	if e.SetOption("", 1) {
		t.Errorf("expected an empty option name to be rejected")
	}
}

func TestDimacsRoundTrip(t *testing.T) {
	e := New("true")
	for _, l := range []int32{1, 2, 0, -2, 0} {
		e.Add(l)
	}
	path := filepath.Join(t.TempDir(), "problem.cnf")
	if err := e.WriteDimacs(path, 5); err != nil {
		t.Fatalf("could not write dimacs: %v", err)
	}

	e2 := New("true")
	vars, err := e2.ReadDimacs(path, true)
	if err != nil {
		t.Fatalf("could not read dimacs: %v", err)
	}
	if vars != 5 {
		t.Errorf("expected 5 declared variables, got %d", vars)
	}
	if e2.Irredundant() != 2 {
		t.Errorf("expected 2 clauses, got %d", e2.Irredundant())
	}
}

func solverBinary(t *testing.T) string {
	t.Helper()
	for _, bin := range []string{"cadical", "kissat"} {
		if _, err := exec.LookPath(bin); err == nil {
			return bin
		}
	}
	t.Skip("no solver binary on PATH")
	return ""
}

func TestSolveProcess(t *testing.T) {
	e := New(solverBinary(t), "-q")
	defer e.Release()
	for _, l := range []int32{1, 2, 0, -1, 2, 0} {
		e.Add(l)
	}
	if res := e.Solve(); res != engine.Satisfiable {
		t.Fatalf("expected a satisfiable verdict, got %d (err: %v)", res, e.Err())
	}
	if v := e.Val(2); v != 2 {
		t.Errorf("expected variable 2 to be true, got %d", v)
	}
}

func TestSolveProcessUnsatAssumptions(t *testing.T) {
	e := New(solverBinary(t), "-q")
	defer e.Release()
	for _, l := range []int32{1, 0} {
		e.Add(l)
	}
	e.Assume(-1)
	if res := e.Solve(); res != engine.Unsatisfiable {
		t.Fatalf("expected an unsatisfiable verdict, got %d (err: %v)", res, e.Err())
	}
	if e.Failed(-1) != 1 {
		t.Errorf("expected the assumption to be reported as failed")
	}
	if res := e.Solve(); res != engine.Satisfiable {
		t.Errorf("expected a satisfiable verdict once the assumption is gone, got %d", res)
	}
}
