package sat

import (
	"context"
	"runtime/cgo"
	"time"

	"github.com/pkg/errors"
)

// callbackState is the opaque context value bound to both engine-side
// registrations. Exactly one instance exists per Solver and it is
// pinned by a cgo.Handle for as long as the Solver lives, so the
// engine can hold the handle without any lifetime coordination.
// Replacing a callback swaps the stored closure under the same handle,
// which immediately invalidates the previous association: a trampoline
// can only ever reach the current closure.
type callbackState struct {
	terminate func() bool
	learn     func(clause []int32)

	// Transient per-call state, cleared when the solve call returns.
	ctx      context.Context
	deadline time.Time
	err      error
}

// abort reports whether the current search must stop for a reason
// other than the user terminator: a recorded callback failure, a
// cancelled context or an expired deadline.
func (st *callbackState) abort() bool {
	if st.err != nil {
		return true
	}
	if st.ctx != nil && st.ctx.Err() != nil {
		return true
	}
	if !st.deadline.IsZero() && !time.Now().Before(st.deadline) {
		return true
	}
	return false
}

// terminateTrampoline is the single adapter between the engine's plain
// function-pointer termination hook and the registered closure. A
// panic in the closure is contained here and converted into the
// "terminate now" sentinel, so it can never unwind into the engine.
func terminateTrampoline(data uintptr) (res int32) {
	st := cgo.Handle(data).Value().(*callbackState)
	defer func() {
		if r := recover(); r != nil {
			st.err = errors.Wrapf(ErrCallbackFailed, "terminate callback panicked: %v", r)
			res = 1
		}
	}()
	if st.abort() {
		return 1
	}
	if st.terminate != nil && st.terminate() {
		return 1
	}
	return 0
}

// learnTrampoline is the single adapter for the learned-clause hook.
// The engine hands over a zero-terminated buffer; the observer sees
// the clause with the sentinel stripped. A panic in the observer is
// contained and recorded; the engine sees a normal return ("keep
// going") and the recorded failure stops the search through the
// terminate trampoline on its next poll.
func learnTrampoline(data uintptr, clause []int32) {
	st := cgo.Handle(data).Value().(*callbackState)
	defer func() {
		if r := recover(); r != nil {
			st.err = errors.Wrapf(ErrCallbackFailed, "learn callback panicked: %v", r)
		}
	}()
	if st.err != nil || st.learn == nil {
		return
	}
	if n := len(clause); n > 0 && clause[n-1] == 0 {
		clause = clause[:n-1]
	}
	st.learn(clause)
}
