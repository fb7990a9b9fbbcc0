// Package mus extracts minimal unsatisfiable subsets of CNF problems.
// A MUS is an unsatisfiable subset of the clauses such that removing
// any one of its clauses makes the rest satisfiable, which makes it a
// concise explanation of why a problem has no solution. Extraction is
// expensive: the solver is called once per candidate clause.
package mus

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/incrsat/incrsat/sat"
)

// ErrSatisfiable is returned when the problem has a model, since only
// unsatisfiable problems have a MUS.
var ErrSatisfiable = errors.New("cannot extract a MUS from a satisfiable problem")

// ErrAborted is returned when a solver call gave up before reaching a
// verdict, for example because the context expired.
var ErrAborted = errors.New("solver aborted before reaching a verdict")

// Extractor computes MUSes. The zero value is ready to use.
type Extractor struct {
	// Logger, when set, receives per-clause progress at debug level.
	Logger logrus.FieldLogger
}

// Extract is shorthand for a zero Extractor with a background context.
func Extract(clauses [][]int32) ([][]int32, error) {
	return Extractor{}.Extract(context.Background(), clauses)
}

// Extract returns a minimal unsatisfiable subset of the given clauses
// using the deletion strategy: each clause is guarded by a fresh
// selector variable, so a single incremental solver can activate any
// subset through assumptions. Every clause is tentatively dropped
// once; it stays out if the rest is still unsatisfiable. Failed
// assumptions prune whole groups of clauses between the calls.
//
// The returned clauses alias the input slices.
func (e Extractor) Extract(ctx context.Context, clauses [][]int32) ([][]int32, error) {
	var maxVar int32
	for _, clause := range clauses {
		for _, l := range clause {
			v := l
			if v < 0 {
				v = -v
			}
			if v > maxVar {
				maxVar = v
			}
		}
	}

	s := sat.New()
	defer s.Release()

	// Clause i is active exactly when its selector is assumed false.
	sels := make([]int32, len(clauses))
	asm := make([]int32, len(clauses))
	for i, clause := range clauses {
		sels[i] = maxVar + 1 + int32(i)
		asm[i] = -sels[i]
		guarded := make([]int32, 0, len(clause)+1)
		guarded = append(guarded, clause...)
		guarded = append(guarded, sels[i])
		if err := s.AddClause(guarded...); err != nil {
			return nil, errors.Wrapf(err, "clause %d", i)
		}
	}

	removed := make([]bool, len(clauses))
	status, err := s.SolveWith(asm...)
	if err != nil {
		return nil, err
	}
	switch status {
	case sat.Satisfiable:
		return nil, ErrSatisfiable
	case sat.Unknown:
		return nil, ErrAborted
	}
	e.refine(s, sels, asm, removed)

	for i := range clauses {
		if removed[i] {
			continue
		}
		// Tentatively drop the clause by releasing its selector.
		asm[i] = sels[i]
		status, err := s.SolveContext(ctx, asm...)
		if err != nil {
			return nil, err
		}
		switch status {
		case sat.Satisfiable:
			// Needed for unsatisfiability, put it back.
			asm[i] = -sels[i]
			if e.Logger != nil {
				e.Logger.WithField("clause", i).Debug("kept")
			}
		case sat.Unsatisfiable:
			removed[i] = true
			e.refine(s, sels, asm, removed)
			if e.Logger != nil {
				e.Logger.WithField("clause", i).Debug("removed")
			}
		default:
			return nil, ErrAborted
		}
	}

	var mus [][]int32
	for i, clause := range clauses {
		if !removed[i] {
			mus = append(mus, clause)
		}
	}
	return mus, nil
}

// refine drops every active clause whose selector was not part of the
// latest unsatisfiability proof: the proof stands without it, so the
// clause cannot belong to the MUS.
func (e Extractor) refine(s *sat.Solver, sels, asm []int32, removed []bool) {
	for i := range sels {
		if removed[i] || asm[i] == sels[i] {
			continue
		}
		failed, err := s.Failed(-sels[i])
		if err != nil || failed {
			continue
		}
		asm[i] = sels[i]
		removed[i] = true
		if e.Logger != nil {
			e.Logger.WithField("clause", i).Debug("pruned by the unsat core")
		}
	}
}
