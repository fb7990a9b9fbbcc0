package core

import (
	"github.com/incrsat/incrsat/engine"
)

func (e *Engine) decisionLevel() int32 {
	return int32(len(e.trailLim))
}

func (e *Engine) newDecisionLevel() {
	e.trailLim = append(e.trailLim, int32(len(e.trail)))
}

// uncheckedEnqueue assigns l to true at the current decision level.
// The literal must be unassigned. from is the index of the implying
// clause, or -1 for decisions, assumptions and root facts.
func (e *Engine) uncheckedEnqueue(l lit, from int32) {
	v := l.v()
	if l.pos() {
		e.assign[v] = 1
	} else {
		e.assign[v] = -1
	}
	e.level[v] = e.decisionLevel()
	e.reason[v] = from
	e.trail = append(e.trail, l)
}

// cancelUntil undoes all assignments above the given decision level,
// saving polarities for phase saving.
func (e *Engine) cancelUntil(lvl int32) {
	if e.decisionLevel() <= lvl {
		return
	}
	bound := int(e.trailLim[lvl])
	for i := len(e.trail) - 1; i >= bound; i-- {
		v := e.trail[i].v()
		e.phase[v] = e.assign[v]
		e.assign[v] = 0
		e.reason[v] = -1
	}
	e.trail = e.trail[:bound]
	e.qhead = bound
	e.trailLim = e.trailLim[:lvl]
}

// propagate performs unit propagation on all pending trail entries.
// It returns the index of a conflicting clause, or -1 if none.
func (e *Engine) propagate() int32 {
	for e.qhead < len(e.trail) {
		p := e.trail[e.qhead]
		e.qhead++
		f := p.neg() // the literal that just became false
		ws := e.watches[f]
		var j int
		for i := 0; i < len(ws); i++ {
			ci := ws[i]
			c := e.clauses[ci]
			// Keep the false watch at position 1.
			if c.lits[0] == f {
				c.lits[0], c.lits[1] = c.lits[1], c.lits[0]
			}
			if e.valueLit(c.lits[0]) == 1 {
				ws[j] = ci
				j++
				continue
			}
			// Look for a replacement watch.
			moved := false
			for k := 2; k < len(c.lits); k++ {
				if e.valueLit(c.lits[k]) != -1 {
					c.lits[1], c.lits[k] = c.lits[k], c.lits[1]
					e.watches[c.lits[1]] = append(e.watches[c.lits[1]], ci)
					moved = true
					break
				}
			}
			if moved {
				continue
			}
			// Unit or conflicting: the watch stays.
			ws[j] = ci
			j++
			if e.valueLit(c.lits[0]) == -1 {
				for i++; i < len(ws); i++ {
					ws[j] = ws[i]
					j++
				}
				e.watches[f] = ws[:j]
				e.qhead = len(e.trail)
				return ci
			}
			e.uncheckedEnqueue(c.lits[0], ci)
		}
		e.watches[f] = ws[:j]
	}
	return -1
}

// analyze derives a first-UIP learned clause from the given conflict.
// It returns the clause, with the asserting literal first and a
// literal of the backjump level second, and the backjump level itself.
func (e *Engine) analyze(confl int32) ([]lit, int32) {
	curLvl := e.decisionLevel()
	seen := make([]bool, e.maxVar)
	learnt := []lit{litUndef}
	counter := 0
	p := litUndef
	idx := len(e.trail) - 1
	for {
		c := e.clauses[confl].lits
		start := 0
		if p != litUndef {
			start = 1 // c[0] is p itself for reason clauses
		}
		for _, q := range c[start:] {
			v := q.v()
			if !seen[v] && e.level[v] > 0 {
				seen[v] = true
				e.bumpVar(v)
				if e.level[v] >= curLvl {
					counter++
				} else {
					learnt = append(learnt, q)
				}
			}
		}
		for !seen[e.trail[idx].v()] {
			idx--
		}
		p = e.trail[idx]
		idx--
		seen[p.v()] = false
		counter--
		if counter == 0 {
			break
		}
		confl = e.reason[p.v()]
	}
	learnt[0] = p.neg()
	var bt int32
	pos := 1
	for i := 1; i < len(learnt); i++ {
		if e.level[learnt[i].v()] > bt {
			bt = e.level[learnt[i].v()]
			pos = i
		}
	}
	if len(learnt) > 1 {
		learnt[1], learnt[pos] = learnt[pos], learnt[1]
	}
	return learnt, bt
}

// analyzeFinal computes the set of assumptions involved in making the
// assumption p impossible. Called when p is false while establishing
// the assumption prefix of the search.
func (e *Engine) analyzeFinal(p lit) {
	e.failed = map[int32]bool{p.int(): true}
	if e.decisionLevel() == 0 {
		return
	}
	seen := make([]bool, e.maxVar)
	seen[p.v()] = true
	for i := len(e.trail) - 1; i >= int(e.trailLim[0]); i-- {
		q := e.trail[i]
		v := q.v()
		if !seen[v] {
			continue
		}
		if e.reason[v] < 0 {
			// A decision below the assumption prefix is itself an
			// assumption.
			e.failed[q.int()] = true
		} else {
			for _, r := range e.clauses[e.reason[v]].lits[1:] {
				if e.level[r.v()] > 0 {
					seen[r.v()] = true
				}
			}
		}
		seen[v] = false
	}
}

// record installs a learned clause after backjumping to lvl, asserts
// its first literal and reports it to the learn observer.
func (e *Engine) record(learnt []lit, lvl int32) {
	e.cancelUntil(lvl)
	if len(learnt) == 1 {
		e.uncheckedEnqueue(learnt[0], -1)
	} else {
		idx := int32(len(e.clauses))
		e.clauses = append(e.clauses, &clause{lits: learnt, learnt: true})
		e.watches[learnt[0]] = append(e.watches[learnt[0]], idx)
		e.watches[learnt[1]] = append(e.watches[learnt[1]], idx)
		e.uncheckedEnqueue(learnt[0], idx)
	}
	e.stats.learned++
	if e.learnFn != nil && int32(len(learnt)) <= e.learnMax {
		// The observer receives the clause in DIMACS form with the
		// usual 0 sentinel; the buffer is only valid during the call.
		buf := make([]int32, len(learnt)+1)
		for i, l := range learnt {
			buf[i] = l.int()
		}
		e.learnFn(e.learnData, buf)
	}
}

func (e *Engine) bumpVar(v int32) {
	e.activity[v] += e.varInc
	if e.activity[v] > 1e100 {
		for i := range e.activity {
			e.activity[i] *= 1e-100
		}
		e.varInc *= 1e-100
	}
}

func (e *Engine) decayVar() {
	e.varInc /= 0.95
}

// pickBranchLit returns the unassigned variable with the highest
// activity, with its saved polarity. The second result is false when
// every variable is assigned.
func (e *Engine) pickBranchLit() (lit, bool) {
	best := int32(-1)
	for v := int32(0); v < e.maxVar; v++ {
		if e.assign[v] == 0 && (best < 0 || e.activity[v] > e.activity[best]) {
			best = v
		}
	}
	if best < 0 {
		return litUndef, false
	}
	pol := e.phase[best]
	if pol == 0 {
		if e.opts["phase"] > 0 {
			pol = 1
		} else {
			pol = -1
		}
	}
	return varLit(best, pol > 0), true
}

func (e *Engine) saveModel() {
	e.model = make([]int8, e.maxVar)
	copy(e.model, e.assign)
}

// terminated polls the registered termination hook.
func (e *Engine) terminated() bool {
	return e.termFn != nil && e.termFn(e.termData) != 0
}

// tick decrements the "terminate" limit counter and reports whether it
// just ran out.
func (e *Engine) tick() bool {
	if e.limTerminate <= 0 {
		return false
	}
	e.limTerminate--
	return e.limTerminate == 0
}

// luby computes the i-th element of the Luby restart sequence.
func luby(i uint) uint {
	for k := 1; k < 32; k++ {
		if i == (1<<k)-1 {
			return 1 << (k - 1)
		}
	}
	k := 1
	for {
		if (1<<(k-1)) <= i && i < (1<<k)-1 {
			return luby(i - (1 << (k - 1)) + 1)
		}
		k++
	}
}

// search runs the CDCL loop until a verdict is reached, a limit runs
// out or the termination hook fires.
func (e *Engine) search() int {
	restartBase := e.opts["restartint"]
	if restartBase <= 0 {
		restartBase = 100
	}
	var restartCount uint = 1
	interval := int64(luby(restartCount) * uint(restartBase))
	var sinceRestart int64
	for {
		if confl := e.propagate(); confl >= 0 {
			e.stats.conflicts++
			sinceRestart++
			if e.decisionLevel() == 0 {
				e.ok = false
				return engine.Unsatisfiable
			}
			learnt, lvl := e.analyze(confl)
			e.record(learnt, lvl)
			e.decayVar()
			if e.terminated() || e.tick() {
				return engine.Unknown
			}
			if e.limConflicts >= 0 {
				e.limConflicts--
				if e.limConflicts < 0 {
					return engine.Unknown
				}
			}
			if e.opts["restart"] > 0 && sinceRestart >= interval {
				e.stats.restarts++
				restartCount++
				interval = int64(luby(restartCount) * uint(restartBase))
				sinceRestart = 0
				e.cancelUntil(0)
			}
			continue
		}
		if lvl := int(e.decisionLevel()); lvl < len(e.assumptions) {
			p := e.assumptions[lvl]
			switch e.valueLit(p) {
			case 1:
				// Already satisfied; open a dummy level so the next
				// assumption is considered.
				e.newDecisionLevel()
			case -1:
				e.analyzeFinal(p)
				return engine.Unsatisfiable
			default:
				e.newDecisionLevel()
				e.uncheckedEnqueue(p, -1)
			}
			continue
		}
		p, found := e.pickBranchLit()
		if !found {
			e.saveModel()
			return engine.Satisfiable
		}
		e.stats.decisions++
		if e.terminated() || e.tick() {
			return engine.Unknown
		}
		if e.limDecisions >= 0 {
			e.limDecisions--
			if e.limDecisions < 0 {
				return engine.Unknown
			}
		}
		e.newDecisionLevel()
		e.uncheckedEnqueue(p, -1)
	}
}

// Solve implements engine.Engine.
func (e *Engine) Solve() int {
	e.status = engine.Unknown
	e.failed = nil
	e.conFailed = false
	if e.conSet {
		e.installConstraint()
	}
	defer e.endSolve()
	if e.terminated() {
		return e.status
	}
	if !e.ok {
		e.status = engine.Unsatisfiable
		return e.status
	}
	if confl := e.propagate(); confl >= 0 {
		e.ok = false
		e.status = engine.Unsatisfiable
		return e.status
	}
	e.status = e.search()
	return e.status
}

// installConstraint commits the one-shot constraint clause behind a
// fresh activation literal and assumes that literal, so the constraint
// holds for this call only and its involvement in an unsat verdict can
// be read back through the failed-assumption machinery.
func (e *Engine) installConstraint() {
	sel := e.maxVar + 1
	e.ensureVar(sel)
	cl := make([]int32, 0, len(e.conBuf)+1)
	cl = append(cl, e.conBuf...)
	cl = append(cl, -sel)
	e.commit(cl, false)
	e.assumptions = append(e.assumptions, intToLit(sel))
	e.conSel = sel
	e.conBuf = e.conBuf[:0]
	e.conSet = false
	e.status = engine.Unknown
}

// endSolve restores the root level and clears everything that only
// holds for a single call: assumptions, the constraint clause and the
// resource limits.
func (e *Engine) endSolve() {
	st := e.status
	e.cancelUntil(0)
	e.assumptions = e.assumptions[:0]
	if e.conSel != 0 {
		e.conFailed = e.failed[e.conSel]
		delete(e.failed, e.conSel)
		// Retire the activation literal so the constraint clause is
		// inert from now on.
		e.commit([]int32{-e.conSel}, false)
		e.conSel = 0
	}
	e.limConflicts = -1
	e.limDecisions = -1
	e.limTerminate = 0
	e.status = st
}
