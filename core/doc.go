/*
Package core provides the built-in solver engine behind the engine
boundary: an incremental conflict-driven clause-learning solver with
two watched literals per clause, first-UIP conflict analysis, phase
saving and Luby restarts.

The package is deliberately plain: it exposes exactly the operations
of engine.Engine plus DIMACS reading and writing, and it is normally
driven through the sat package rather than used directly. Everything
incremental about it follows the IPASIR discipline: clauses accumulate
across calls, assumptions and constraint clauses hold for one call
only, and an unsatisfiable verdict under assumptions comes with the
subset of assumptions involved in the contradiction.
*/
package core
