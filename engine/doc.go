/*
Package engine defines the boundary between the safe solving façade of
the sat package and the opaque engine that performs the actual
conflict-driven search.

The contract deliberately mirrors the IPASIR C interface: result codes
are the 10/20/0 convention, clauses are streamed one literal at a time
with a 0 sentinel, and the two hooks an engine may call back into
(cooperative termination and learned-clause observation) are registered
as plain functions paired with an opaque context value. Keeping the
boundary this narrow means any IPASIR-style solver can sit behind it:
the in-process engine from the core package, a subprocess-backed engine
from the proc package, or a foreign binding.
*/
package engine
