package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadDimacs implements engine.DimacsReader. It parses the DIMACS CNF
// file at path and adds its clauses to the engine. In strict mode the
// header is mandatory and the declared counts must match the content.
// It returns the maximum variable index of the loaded problem.
func (e *Engine) ReadDimacs(path string, strict bool) (int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("could not open %q: %v", path, err)
	}
	defer func() { _ = f.Close() }()
	return e.readDimacs(f, strict)
}

func (e *Engine) readDimacs(r io.Reader, strict bool) (int32, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var (
		declVars    int
		declClauses int
		haveHeader  bool
		nbClauses   int
		clause      []int32
	)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == 'c' {
			continue
		}
		if line[0] == 'p' {
			if haveHeader {
				return 0, fmt.Errorf("duplicate header %q", line)
			}
			fields := strings.Fields(line)
			if len(fields) != 4 || fields[0] != "p" || fields[1] != "cnf" {
				return 0, fmt.Errorf("invalid header %q", line)
			}
			var err error
			if declVars, err = strconv.Atoi(fields[2]); err != nil || declVars < 0 {
				return 0, fmt.Errorf("invalid variable count in header %q", line)
			}
			if declClauses, err = strconv.Atoi(fields[3]); err != nil || declClauses < 0 {
				return 0, fmt.Errorf("invalid clause count in header %q", line)
			}
			haveHeader = true
			continue
		}
		for _, tok := range strings.Fields(line) {
			val, err := strconv.Atoi(tok)
			if err != nil {
				return 0, fmt.Errorf("invalid literal %q", tok)
			}
			if val == 0 {
				e.commit(clause, true)
				clause = clause[:0]
				nbClauses++
				continue
			}
			if strict && haveHeader && abs(int32(val)) > int32(declVars) {
				return 0, fmt.Errorf("literal %d out of the declared %d variables", val, declVars)
			}
			clause = append(clause, int32(val))
		}
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("could not read problem: %v", err)
	}
	if len(clause) != 0 {
		if strict {
			return 0, fmt.Errorf("unterminated clause %v", clause)
		}
		e.commit(clause, true)
		nbClauses++
	}
	if strict {
		if !haveHeader {
			return 0, fmt.Errorf("missing problem header")
		}
		if nbClauses != declClauses {
			return 0, fmt.Errorf("header declares %d clauses, found %d", declClauses, nbClauses)
		}
	}
	if haveHeader {
		e.ensureVar(int32(declVars))
	}
	return e.maxVar, nil
}

// WriteDimacs implements engine.DimacsWriter. It writes the input
// clauses of the engine in DIMACS CNF format. The header declares at
// least minMaxVar variables.
func (e *Engine) WriteDimacs(path string, minMaxVar int32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %q: %v", path, err)
	}
	w := bufio.NewWriter(f)
	maxVar := minMaxVar
	for _, cl := range e.recorded {
		for _, l := range cl {
			if abs(l) > maxVar {
				maxVar = abs(l)
			}
		}
	}
	fmt.Fprintf(w, "p cnf %d %d\n", maxVar, len(e.recorded))
	for _, cl := range e.recorded {
		for _, l := range cl {
			fmt.Fprintf(w, "%d ", l)
		}
		fmt.Fprintln(w, "0")
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not write %q: %v", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close %q: %v", path, err)
	}
	return nil
}
