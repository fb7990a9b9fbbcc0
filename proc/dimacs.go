package proc

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadDimacs loads a DIMACS CNF file into the clause buffer and
// returns the maximum variable. In strict mode the p header is
// required and every literal must stay within its declared range;
// otherwise headerless files and an unterminated final clause are
// accepted.
func (e *Engine) ReadDimacs(path string, strict bool) (int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("read dimacs: %v", err)
	}
	defer f.Close()

	var declVars int32
	header := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "c") {
			continue
		}
		if strings.HasPrefix(line, "p") {
			fields := strings.Fields(line)
			if len(fields) != 4 || fields[1] != "cnf" {
				return 0, fmt.Errorf("read dimacs: bad header %q", line)
			}
			v, err := strconv.Atoi(fields[2])
			if err != nil || v < 0 {
				return 0, fmt.Errorf("read dimacs: bad variable count %q", fields[2])
			}
			declVars = int32(v)
			header = true
			continue
		}
		for _, field := range strings.Fields(line) {
			n, err := strconv.Atoi(field)
			if err != nil {
				return 0, fmt.Errorf("read dimacs: bad literal %q", field)
			}
			if strict && header && n != 0 && (n > int(declVars) || n < -int(declVars)) {
				return 0, fmt.Errorf("read dimacs: literal %d out of range", n)
			}
			e.Add(int32(n))
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read dimacs: %v", err)
	}
	if strict && !header {
		return 0, fmt.Errorf("read dimacs: missing p cnf header")
	}
	if len(e.cur) > 0 {
		if strict {
			return 0, fmt.Errorf("read dimacs: unterminated clause")
		}
		e.Add(0)
	}
	if declVars > e.maxVar {
		e.maxVar = declVars
	}
	return e.maxVar, nil
}

// WriteDimacs writes the buffered clauses to a DIMACS CNF file. The
// header declares at least minMaxVar variables.
func (e *Engine) WriteDimacs(path string, minMaxVar int32) error {
	maxVar := e.maxVar
	if minMaxVar > maxVar {
		maxVar = minMaxVar
	}
	var b strings.Builder
	fmt.Fprintf(&b, "p cnf %d %d\n", maxVar, len(e.clauses))
	for _, cl := range e.clauses {
		for _, l := range cl {
			fmt.Fprintf(&b, "%d ", l)
		}
		fmt.Fprintf(&b, "0\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write dimacs: %v", err)
	}
	return nil
}
