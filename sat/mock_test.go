package sat

import (
	"github.com/incrsat/incrsat/engine"
)

// mockEngine is a scripted engine used to exercise the façade and the
// callback bridge without running a real search. It records the calls
// it receives and replays canned verdicts, models and learned-clause
// buffers.
type mockEngine struct {
	results   []int     // successive Solve outcomes; empty means Satisfiable
	learned   [][]int32 // buffers handed to the learn hook during Solve, verbatim
	vals      map[int32]int32
	failedSet map[int32]bool
	conFailed bool
	maxVar    int32

	adds        []int32
	lastAssumed []int32
	events      []string

	assumed []int32

	termData  uintptr
	termFn    engine.TerminateFunc
	learnData uintptr
	learnMax  int32
	learnFn   engine.LearnFunc

	status   int
	released bool
}

func newMockEngine(results ...int) *mockEngine {
	return &mockEngine{results: results}
}

func (m *mockEngine) Add(l int32) {
	m.adds = append(m.adds, l)
	m.status = engine.Unknown
}

func (m *mockEngine) Assume(l int32) {
	m.assumed = append(m.assumed, l)
}

func (m *mockEngine) Constrain(l int32) {
	m.events = append(m.events, "constrain")
}

func (m *mockEngine) Solve() int {
	m.events = append(m.events, "solve")
	m.lastAssumed = append([]int32(nil), m.assumed...)
	m.assumed = m.assumed[:0]
	if m.learnFn != nil {
		for _, cl := range m.learned {
			m.learnFn(m.learnData, cl)
		}
	}
	if m.termFn != nil && m.termFn(m.termData) != 0 {
		m.status = engine.Unknown
		return m.status
	}
	res := engine.Satisfiable
	if len(m.results) > 0 {
		res = m.results[0]
		m.results = m.results[1:]
	}
	m.status = res
	return res
}

func (m *mockEngine) Val(l int32) int32 {
	if l < 0 {
		l = -l
	}
	return m.vals[l]
}

func (m *mockEngine) Failed(l int32) int32 {
	if m.failedSet[l] {
		return 1
	}
	return 0
}

func (m *mockEngine) ConstraintFailed() int32 {
	if m.conFailed {
		return 1
	}
	return 0
}

func (m *mockEngine) SetTerminate(data uintptr, fn engine.TerminateFunc) {
	if fn == nil {
		m.events = append(m.events, "clear-terminate")
	} else {
		m.events = append(m.events, "set-terminate")
	}
	m.termData = data
	m.termFn = fn
}

func (m *mockEngine) SetLearn(data uintptr, maxLen int32, fn engine.LearnFunc) {
	if fn == nil {
		m.events = append(m.events, "clear-learn")
	} else {
		m.events = append(m.events, "set-learn")
	}
	m.learnData = data
	m.learnMax = maxLen
	m.learnFn = fn
}

func (m *mockEngine) SetOption(name string, val int) bool {
	return name == "verbose"
}

func (m *mockEngine) Configure(name string) bool {
	return name == "default"
}

func (m *mockEngine) Limit(name string, val int) bool {
	return name == "conflicts"
}

func (m *mockEngine) Simplify() int {
	return engine.Unknown
}

func (m *mockEngine) Freeze(l int32) {}

func (m *mockEngine) Melt(l int32) {}

func (m *mockEngine) Vars() int32 {
	return m.maxVar
}

func (m *mockEngine) Active() int64 {
	return 0
}

func (m *mockEngine) Irredundant() int64 {
	return 0
}

func (m *mockEngine) Status() int {
	return m.status
}

func (m *mockEngine) Signature() string {
	return "mock-engine"
}

func (m *mockEngine) Release() {
	m.events = append(m.events, "release")
	m.released = true
}
