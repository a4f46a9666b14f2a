// Package trinary implements the three-valued certainty logic used by
// checks that reason under incomplete static knowledge. A query against
// partially-known code (an unresolved parent class, a vendor symbol the
// cache only knows by name) answers Maybe rather than forcing a yes/no
// guess, and checks report a problem only when the answer is a definite No.
package trinary

// Value is one of Yes, No, or Maybe. The zero value is Maybe, the
// conservative starting point when no evidence exists yet.
type Value int

const (
	// Maybe means the fact could not be decided statically.
	Maybe Value = iota
	// Yes means the fact definitely holds.
	Yes
	// No means the fact definitely does not hold.
	No
)

// FromBool converts a definite boolean fact to Yes or No.
func FromBool(b bool) Value {
	if b {
		return Yes
	}
	return No
}

func (v Value) String() string {
	switch v {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "maybe"
	}
}

// IsYes reports whether v is definitely Yes.
func (v Value) IsYes() bool { return v == Yes }

// IsNo reports whether v is definitely No.
func (v Value) IsNo() bool { return v == No }

// IsMaybe reports whether v is undecided.
func (v Value) IsMaybe() bool { return v == Maybe }

// And combines two values conjunctively. No dominates; Yes requires both
// operands to be Yes; every other combination is Maybe.
func (v Value) And(other Value) Value {
	if v == No || other == No {
		return No
	}
	if v == Yes && other == Yes {
		return Yes
	}
	return Maybe
}

// Or combines two values disjunctively. Yes dominates; No requires both
// operands to be No; every other combination is Maybe.
func (v Value) Or(other Value) Value {
	if v == Yes || other == Yes {
		return Yes
	}
	if v == No && other == No {
		return No
	}
	return Maybe
}

// Not swaps Yes and No and leaves Maybe fixed.
func (v Value) Not() Value {
	switch v {
	case Yes:
		return No
	case No:
		return Yes
	default:
		return Maybe
	}
}

// AndAll folds And over values, short-circuiting on the first No.
// The empty sequence folds to Yes.
func AndAll(values ...Value) Value {
	result := Yes
	for _, v := range values {
		result = result.And(v)
		if result == No {
			return No
		}
	}
	return result
}

// OrAll folds Or over values, short-circuiting on the first Yes.
// The empty sequence folds to No.
func OrAll(values ...Value) Value {
	result := No
	for _, v := range values {
		result = result.Or(v)
		if result == Yes {
			return Yes
		}
	}
	return result
}
