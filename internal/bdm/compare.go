package bdm

import (
	"math"
	"math/big"
)

// typePriority fixes the cross-type total order used when two values
// being compared are not both members of the numeric family. Lower
// sorts first: object < array < string < bool < numeric-family <
// timestamp{,tz} < date < time{,tz} < interval < null. Grounded on
// gtype_util.c:get_type_sort_priority (gtype_util.c:180-206).
func typePriority(k Kind) int {
	switch k {
	case KindObject:
		return 0
	case KindArray:
		return 1
	case KindString:
		return 2
	case KindBool:
		return 3
	case KindNumeric, KindInt, KindFloat:
		return 4
	case KindTimestamp, KindTimestampTz:
		return 5
	case KindDate:
		return 6
	case KindTime, KindTimeTz:
		return 7
	case KindInterval:
		return 8
	case KindNull:
		return 9
	case KindBinary:
		return 10
	case KindVertex:
		return 11
	case KindEdge:
		return 12
	case KindPath:
		return 13
	default:
		return 99
	}
}

// Compare returns -1, 0, or 1 for a<b, a==b, a>b under the BDM total
// order: values of different non-numeric kinds order by typePriority;
// numeric-family values (Int/Float/Numeric) compare by mathematical
// value regardless of representation; containers compare
// lexicographically element-by-element, then by length; NaN floats
// sort greater than any other numeric value and equal only to NaN.
func Compare(a, b Value) int {
	if a.Kind.isNumericFamily() && b.Kind.isNumericFamily() {
		return compareNumeric(a, b)
	}
	if a.Kind != b.Kind {
		pa, pb := typePriority(a.Kind), typePriority(b.Kind)
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		default:
			return 0
		}
	}
	switch a.Kind {
	case KindNull:
		return 0
	case KindBool:
		return compareBool(a.Bool, b.Bool)
	case KindString:
		return compareBytes([]byte(a.Str), []byte(b.Str))
	case KindDate, KindTimestamp, KindTimestampTz, KindTime:
		return compareInt64(a.Int, b.Int)
	case KindTimeTz:
		if c := compareInt64(a.Int, b.Int); c != 0 {
			return c
		}
		return compareInt64(int64(a.TzOffsetSec), int64(b.TzOffsetSec))
	case KindInterval:
		return compareInterval(a.Interval, b.Interval)
	case KindBinary:
		return compareBytes(a.Bin, b.Bin)
	case KindArray, KindPath:
		return compareElems(a.Elems, b.Elems)
	case KindObject:
		return compareObject(a.Pairs, b.Pairs)
	case KindVertex:
		if c := compareInt64(a.Vertex.GraphID, b.Vertex.GraphID); c != 0 {
			return c
		}
		return Compare(a.Vertex.Props, b.Vertex.Props)
	case KindEdge:
		if c := compareInt64(a.Edge.GraphID, b.Edge.GraphID); c != 0 {
			return c
		}
		return Compare(a.Edge.Props, b.Edge.Props)
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBytes(a, b []byte) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func compareInterval(a, b Interval) int {
	// total approximate microseconds, matching postgres interval
	// comparison semantics closely enough for the BDM's own ordering:
	// 30 days/month, 24h/day.
	av := (int64(a.Months)*30+int64(a.Days))*86400_000_000 + a.Micros
	bv := (int64(b.Months)*30+int64(b.Days))*86400_000_000 + b.Micros
	return compareInt64(av, bv)
}

func compareElems(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt64(int64(len(a)), int64(len(b)))
}

func compareObject(a, b []Pair) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compareBytes([]byte(a[i].Key), []byte(b[i].Key)); c != 0 {
			return c
		}
		if c := Compare(a[i].Val, b[i].Val); c != 0 {
			return c
		}
	}
	return compareInt64(int64(len(a)), int64(len(b)))
}

// compareNumeric promotes Int/Float/Numeric onto a common footing
// (big.Rat for exactness; NaN and ±Inf, which big.Rat cannot
// represent, are ordered explicitly). Grounded on
// gtype_util.c:compare_gtype_scalar_values's numeric-family branch.
func compareNumeric(a, b Value) int {
	aNaN, bNaN := isNaN(a), isNaN(b)
	if aNaN || bNaN {
		switch {
		case aNaN && bNaN:
			return 0
		case aNaN:
			return 1
		default:
			return -1
		}
	}
	ar, aok := numericToRat(a)
	br, bok := numericToRat(b)
	if aok && bok {
		return ar.Cmp(br)
	}
	// A ±Inf float is the other value big.Rat cannot hold; order it by
	// its sign against any finite value.
	return compareInt64(infSign(a), infSign(b))
}

func infSign(v Value) int64 {
	if v.Kind == KindFloat && math.IsInf(v.Float, 0) {
		return int64(math.Copysign(1, v.Float))
	}
	return 0
}

func isNaN(v Value) bool {
	return v.Kind == KindFloat && math.IsNaN(v.Float)
}

func numericToRat(v Value) (*big.Rat, bool) {
	switch v.Kind {
	case KindInt:
		return new(big.Rat).SetInt64(v.Int), true
	case KindFloat:
		r := new(big.Rat)
		if r.SetFloat64(v.Float) == nil {
			return nil, false
		}
		return r, true
	case KindNumeric:
		r := new(big.Rat)
		if _, ok := r.SetString(v.Str); !ok {
			return nil, false
		}
		return r, true
	default:
		return nil, false
	}
}

// Equal reports whether a and b compare equal under Compare.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }
