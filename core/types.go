package core

// Internal literal encoding. Variables start at 0 internally; the CNF
// literal -3 is encoded as 2*(3-1)+1 = 5.
type lit uint32

const litUndef = lit(^uint32(0))

// intToLit converts a CNF literal to its internal encoding.
func intToLit(i int32) lit {
	if i < 0 {
		return lit(2*(-i-1) + 1)
	}
	return lit(2 * (i - 1))
}

// int returns the equivalent CNF literal.
func (l lit) int() int32 {
	v := int32(l/2 + 1)
	if l&1 == 1 {
		return -v
	}
	return v
}

// v returns the 0-based variable of l.
func (l lit) v() int32 {
	return int32(l / 2)
}

// neg returns the negation of l.
func (l lit) neg() lit {
	return l ^ 1
}

// pos returns true iff l is a positive literal.
func (l lit) pos() bool {
	return l&1 == 0
}

// varLit returns the literal for the 0-based variable v with the given
// polarity.
func varLit(v int32, positive bool) lit {
	if positive {
		return lit(2 * v)
	}
	return lit(2*v + 1)
}

// A clause is a list of literals. The first two are the watched ones.
type clause struct {
	lits   []lit
	learnt bool
}
