package proc

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/incrsat/incrsat/engine"
)

// defaultPoll is how often a running process is checked against the
// termination hook.
const defaultPoll = 10 * time.Millisecond

// Engine drives an external DIMACS solver process. Clauses are buffered
// in memory; every Solve call renders them to a temporary CNF file,
// runs the binary on it and parses the verdict from the exit code and
// the s/v output lines.
//
// The process model makes some of the incremental interface coarser
// than an in-process engine:
//
//   - assumptions are encoded as unit clauses of the rendered file, so
//     on an unsatisfiable verdict every assumption is reported as
//     failed rather than a minimized subset;
//   - learned clauses never leave the process, so a registered learn
//     hook is accepted but never invoked;
//   - the termination hook is polled between process checks instead of
//     inside the search, and stopping kills the process.
type Engine struct {
	binary string
	args   []string
	poll   time.Duration
	logger logrus.FieldLogger

	maxVar  int32
	used    map[int32]bool
	clauses [][]int32
	cur     []int32

	assumptions []int32
	constraint  []int32
	conBuf      []int32

	opts    map[string]int
	config  string
	limits  map[string]int

	model     map[int32]bool
	failed    map[int32]bool
	conFailed bool
	status    int
	lastErr   error

	termData uintptr
	termFn   engine.TerminateFunc
}

// New returns an engine running the given solver binary with the given
// extra arguments. The binary must accept a DIMACS CNF file as its last
// argument, exit with 10 or 20 for a verdict, and print DIMACS s/v
// output lines.
func New(binary string, args ...string) *Engine {
	return &Engine{
		binary: binary,
		args:   args,
		poll:   defaultPoll,
		used:   map[int32]bool{},
		opts:   map[string]int{},
		limits: map[string]int{},
		status: engine.Unknown,
	}
}

// Cadical returns an engine running a cadical binary found on PATH.
func Cadical() *Engine {
	return New("cadical", "-q")
}

// Kissat returns an engine running a kissat binary found on PATH.
func Kissat() *Engine {
	return New("kissat", "--relaxed", "-q")
}

// SetLogger installs a logger for per-run tracing.
func (e *Engine) SetLogger(logger logrus.FieldLogger) {
	e.logger = logger
}

// Err returns the spawn or parse error of the most recent run, if any.
func (e *Engine) Err() error {
	return e.lastErr
}

func (e *Engine) touch(l int32) {
	v := l
	if v < 0 {
		v = -v
	}
	if v > e.maxVar {
		e.maxVar = v
	}
	e.used[v] = true
}

func (e *Engine) Add(l int32) {
	if l == 0 {
		e.clauses = append(e.clauses, e.cur)
		e.cur = nil
	} else {
		e.touch(l)
		e.cur = append(e.cur, l)
	}
	e.status = engine.Unknown
}

func (e *Engine) Assume(l int32) {
	e.touch(l)
	e.assumptions = append(e.assumptions, l)
}

func (e *Engine) Constrain(l int32) {
	if l == 0 {
		e.constraint = e.conBuf
		e.conBuf = nil
	} else {
		e.touch(l)
		e.conBuf = append(e.conBuf, l)
	}
	e.status = engine.Unknown
}

// render writes the buffered problem, the pending assumptions as unit
// clauses and the pending constraint to a DIMACS file.
func (e *Engine) render(path string) error {
	var buf bytes.Buffer
	n := len(e.clauses) + len(e.assumptions)
	hasCon := e.constraint != nil
	if hasCon {
		n++
	}
	fmt.Fprintf(&buf, "p cnf %d %d\n", e.maxVar, n)
	for _, cl := range e.clauses {
		for _, l := range cl {
			fmt.Fprintf(&buf, "%d ", l)
		}
		fmt.Fprintf(&buf, "0\n")
	}
	for _, a := range e.assumptions {
		fmt.Fprintf(&buf, "%d 0\n", a)
	}
	if hasCon {
		for _, l := range e.constraint {
			fmt.Fprintf(&buf, "%d ", l)
		}
		fmt.Fprintf(&buf, "0\n")
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (e *Engine) cmdArgs(path string) []string {
	args := append([]string(nil), e.args...)
	switch e.config {
	case "", "default":
	default:
		args = append(args, "--"+e.config)
	}
	for name, val := range e.opts {
		args = append(args, fmt.Sprintf("--%s=%d", name, val))
	}
	for name, val := range e.limits {
		args = append(args, fmt.Sprintf("--%s=%d", name, val))
	}
	return append(args, path)
}

// run starts the process and waits for it, polling the termination
// hook on the calling goroutine. It reports whether the run was
// aborted by the hook.
func (e *Engine) run(cmd *exec.Cmd) (aborted bool, err error) {
	if err := cmd.Start(); err != nil {
		return false, err
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	if e.termFn == nil {
		return false, <-done
	}
	ticker := time.NewTicker(e.poll)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			return false, err
		case <-ticker.C:
			if e.termFn(e.termData) != 0 {
				cmd.Process.Kill()
				<-done
				return true, nil
			}
		}
	}
}

func (e *Engine) Solve() int {
	hadAssumptions := len(e.assumptions) > 0
	hadConstraint := e.constraint != nil
	defer func() {
		e.assumptions = e.assumptions[:0]
		e.constraint = nil
		e.limits = map[string]int{}
	}()
	e.status = engine.Unknown
	e.failed = nil
	e.conFailed = false
	e.lastErr = nil

	if e.termFn != nil && e.termFn(e.termData) != 0 {
		return engine.Unknown
	}

	tmp, err := os.CreateTemp("", "incrsat-*.cnf")
	if err != nil {
		e.lastErr = fmt.Errorf("create problem file: %v", err)
		return -1
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)
	if err := e.render(path); err != nil {
		e.lastErr = fmt.Errorf("write problem file: %v", err)
		return -1
	}

	cmd := exec.Command(e.binary, e.cmdArgs(path)...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	aborted, runErr := e.run(cmd)
	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{
			"binary":   e.binary,
			"duration": time.Since(start),
			"aborted":  aborted,
		}).Debug("solver process finished")
	}
	if aborted {
		return engine.Unknown
	}
	// Verdict exits are reported as errors by the os/exec package.
	code := cmd.ProcessState.ExitCode()
	if runErr != nil && code != engine.Satisfiable && code != engine.Unsatisfiable {
		e.lastErr = fmt.Errorf("run %s: %v: %s", e.binary, runErr, out.String())
		return -1
	}

	res, model, err := parseOutput(out.String())
	if err != nil {
		// Trust the exit code when the output has no s line.
		if code == engine.Satisfiable || code == engine.Unsatisfiable {
			res = code
		} else {
			e.lastErr = fmt.Errorf("parse %s output: %v", e.binary, err)
			return -1
		}
	}
	switch res {
	case engine.Satisfiable:
		e.model = model
		e.status = engine.Satisfiable
	case engine.Unsatisfiable:
		e.status = engine.Unsatisfiable
		if hadAssumptions {
			e.failed = map[int32]bool{}
			for _, a := range e.assumptions {
				e.failed[a] = true
			}
		}
		e.conFailed = hadConstraint
	default:
		e.status = engine.Unknown
	}
	return e.status
}

func (e *Engine) Val(l int32) int32 {
	if e.status != engine.Satisfiable {
		return 0
	}
	v := l
	if v < 0 {
		v = -v
	}
	pos, ok := e.model[v]
	if !ok {
		return 0
	}
	if pos {
		return v
	}
	return -v
}

func (e *Engine) Failed(l int32) int32 {
	if e.failed[l] {
		return 1
	}
	return 0
}

func (e *Engine) ConstraintFailed() int32 {
	if e.conFailed {
		return 1
	}
	return 0
}

func (e *Engine) SetTerminate(data uintptr, fn engine.TerminateFunc) {
	e.termData = data
	e.termFn = fn
}

// SetLearn is accepted for interface compatibility. Learned clauses
// stay inside the solver process, so the hook never fires.
func (e *Engine) SetLearn(data uintptr, maxLen int32, fn engine.LearnFunc) {}

func (e *Engine) SetOption(name string, val int) bool {
	if name == "" {
		return false
	}
	e.opts[name] = val
	return true
}

func (e *Engine) Configure(name string) bool {
	switch name {
	case "default", "plain", "sat", "unsat":
		e.config = name
		return true
	}
	return false
}

func (e *Engine) Limit(name string, val int) bool {
	switch name {
	case "conflicts", "decisions":
		e.limits[name] = val
		return true
	case "preprocessing", "localsearch":
		return true
	}
	return false
}

// Simplify has no process to delegate to without running a full
// search, so it always reports an unknown outcome.
func (e *Engine) Simplify() int {
	return engine.Unknown
}

func (e *Engine) Freeze(l int32) {}

func (e *Engine) Melt(l int32) {}

func (e *Engine) Vars() int32 {
	return e.maxVar
}

func (e *Engine) Active() int64 {
	return int64(len(e.used))
}

func (e *Engine) Irredundant() int64 {
	return int64(len(e.clauses))
}

func (e *Engine) Status() int {
	return e.status
}

// Clauses returns a copy of the buffered problem.
func (e *Engine) Clauses() [][]int32 {
	out := make([][]int32, len(e.clauses))
	for i, cl := range e.clauses {
		out[i] = append([]int32(nil), cl...)
	}
	return out
}

func (e *Engine) Signature() string {
	return "incrsat-proc-" + e.binary
}

func (e *Engine) Release() {
	e.clauses = nil
	e.cur = nil
	e.assumptions = nil
	e.constraint = nil
	e.model = nil
	e.failed = nil
	e.termFn = nil
}
