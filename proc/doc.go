// Package proc implements the engine boundary on top of an external
// DIMACS solver binary such as cadical or kissat. It trades the
// fine-grained hooks of an in-process engine for the ability to use
// any stock solver executable: per call, the buffered problem is
// rendered to a CNF file, the process is run to completion or killed
// through the termination hook, and the verdict is read back from the
// exit code and the s/v output lines.
package proc
