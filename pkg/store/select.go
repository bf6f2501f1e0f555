package store

// SelectIndex picks the permutation whose prefix of concrete leading fields
// is longest, given which positions are concrete in a pattern. Tie-breaks
// prefer selectivity order P > S > O > G, per the truth table:
//
//	P ∧ O            → POCS
//	S ∧ P            → SPOC
//	only G           → CSPO
//	only O           → OCSP
//	only P           → POCS
//	only S, S ∧ O,
//	nothing          → SPOC
//	everything bound → SPOC
func SelectIndex(subjectBound, predicateBound, objectBound, graphBound bool) Permutation {
	switch {
	case subjectBound && predicateBound && objectBound && graphBound:
		return SPOC
	case predicateBound && objectBound:
		return POCS
	case subjectBound && predicateBound:
		return SPOC
	case graphBound && !subjectBound && !predicateBound && !objectBound:
		return CSPO
	case objectBound && !subjectBound && !predicateBound:
		return OCSP
	case predicateBound:
		return POCS
	default:
		return SPOC
	}
}

// SelectIndexForPattern is a convenience wrapper over SelectIndex for a
// Pattern value.
func SelectIndexForPattern(pat Pattern) Permutation {
	return SelectIndex(!isWildcard(pat.Subject), !isWildcard(pat.Predicate), !isWildcard(pat.Object), pat.GraphSet && !isWildcard(pat.Graph))
}
