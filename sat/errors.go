package sat

import "github.com/pkg/errors"

// Every failure of this package matches exactly one of these sentinels
// under errors.Is. Nothing here is fatal or retried: the caller
// decides whether to adjust and reissue the operation.
var (
	// ErrInvalidLiteral reports a zero (or otherwise unrepresentable)
	// literal. Detected locally, never forwarded to the engine.
	ErrInvalidLiteral = errors.New("invalid literal")

	// ErrInvalidQuery reports a state-gated operation invoked in a
	// state that does not permit it, such as Value without a
	// satisfiable verdict.
	ErrInvalidQuery = errors.New("query not allowed in the current state")

	// ErrUnknownOption reports an option, configuration or limit name
	// the engine rejected.
	ErrUnknownOption = errors.New("unknown option")

	// ErrCallbackFailed reports a panic inside a registered callback.
	// The panic is contained at the trampoline boundary and the
	// current solve call is aborted with an Unknown status.
	ErrCallbackFailed = errors.New("callback failed")

	// ErrEngineFailure reports an unexpected result from the engine.
	ErrEngineFailure = errors.New("engine failure")

	// ErrReleased reports use of a solver after Release.
	ErrReleased = errors.New("solver already released")

	// ErrUnsupported reports an operation the configured engine does
	// not implement, such as DIMACS I/O on an engine without file
	// support.
	ErrUnsupported = errors.New("not supported by the configured engine")
)
