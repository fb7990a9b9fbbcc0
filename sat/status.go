package sat

// Status is the verdict of the most recent solve attempt. It reverts
// to Unknown whenever the clause database changes.
type Status byte

const (
	// Unknown means no verdict is available: nothing was solved yet,
	// a clause was added since, or the last search was aborted by a
	// terminator or a resource limit before reaching a verdict.
	Unknown = Status(iota)
	// Satisfiable means the last solve found a model.
	Satisfiable
	// Unsatisfiable means the last solve proved the problem
	// unsatisfiable, possibly under assumptions.
	Unsatisfiable
)

func (s Status) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case Satisfiable:
		return "SATISFIABLE"
	case Unsatisfiable:
		return "UNSATISFIABLE"
	default:
		panic("invalid status")
	}
}

// Assignment is the value of a literal in a model. Outside a
// Satisfiable verdict no literal has a definite value.
type Assignment byte

const (
	// Undetermined means the model does not constrain the literal.
	Undetermined = Assignment(iota)
	// True means the literal is true in the model.
	True
	// False means the literal is false in the model.
	False
)

func (a Assignment) String() string {
	switch a {
	case Undetermined:
		return "undetermined"
	case True:
		return "true"
	case False:
		return "false"
	default:
		panic("invalid assignment")
	}
}
