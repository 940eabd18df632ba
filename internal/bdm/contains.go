package bdm

// DeepContains reports whether outer contains inner under the
// top-down, unordered subtree match used by the `@>` containment
// operator: an object contains another object if every key/value pair
// of the inner is matched somewhere in the outer (recursively); an
// array contains another array if every element of the inner is
// matched by some element of the outer; a raw scalar contains only an
// equal raw scalar. Grounded on gtype_util.c:gtype_deep_contains.
//
// A scalar never contains a single-element array wrapping it, and vice
// versa — the "raw scalar distinction" spec.md §4.1 calls out: Cypher
// containment does not unwrap `[x] @> x` or `x @> [x]`.
func DeepContains(outer, inner Value) bool {
	if outer.Kind != inner.Kind {
		return false
	}
	switch outer.Kind {
	case KindObject:
		return objectContains(outer.Pairs, inner.Pairs)
	case KindArray, KindPath:
		return arrayContains(outer.Elems, inner.Elems)
	default:
		return Equal(outer, inner)
	}
}

func objectContains(outer, inner []Pair) bool {
	for _, ip := range inner {
		ov, ok := lookupPair(outer, ip.Key)
		if !ok {
			return false
		}
		if !containsValue(ov, ip.Val) {
			return false
		}
	}
	return true
}

func lookupPair(pairs []Pair, key string) (Value, bool) {
	for _, p := range pairs {
		if p.Key == key {
			return p.Val, true
		}
	}
	return Value{}, false
}

// arrayContains matches every inner element against some outer element
// (unordered, with repetition allowed — each inner element may reuse an
// outer element already matched by a different inner element).
func arrayContains(outer, inner []Value) bool {
	for _, iv := range inner {
		found := false
		for _, ov := range outer {
			if containsValue(ov, iv) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// containsValue is the recursive step: containers recurse into
// DeepContains-style matching, scalars require exact equality.
func containsValue(outer, inner Value) bool {
	if outer.Kind != inner.Kind {
		return false
	}
	if outer.Kind.isContainer() {
		return DeepContains(outer, inner)
	}
	return Equal(outer, inner)
}
