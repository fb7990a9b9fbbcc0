package proc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/incrsat/incrsat/engine"
)

// parseOutput extracts the verdict and model from the DIMACS output
// of a solver process. The s line carries the verdict; for a
// satisfiable one, the v lines carry the model as literals terminated
// by a zero.
func parseOutput(out string) (int, map[int32]bool, error) {
	res := engine.Unknown
	seen := false
	model := map[int32]bool{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "s "):
			seen = true
			switch {
			case strings.Contains(line, "UNSATISFIABLE"):
				res = engine.Unsatisfiable
			case strings.Contains(line, "SATISFIABLE"):
				res = engine.Satisfiable
			}
		case strings.HasPrefix(line, "v "):
			for _, field := range strings.Fields(line)[1:] {
				n, err := strconv.Atoi(field)
				if err != nil {
					return engine.Unknown, nil, fmt.Errorf("bad model literal %q", field)
				}
				if n == 0 {
					continue
				}
				if n > 0 {
					model[int32(n)] = true
				} else {
					model[int32(-n)] = false
				}
			}
		}
	}
	if !seen {
		return engine.Unknown, nil, fmt.Errorf("no s line in solver output")
	}
	if res != engine.Satisfiable {
		return res, nil, nil
	}
	return res, model, nil
}
