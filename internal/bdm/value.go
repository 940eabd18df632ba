// Package bdm implements the Binary Document Model: a tagged,
// length-prefixed format for heterogeneous graph values — scalars,
// ordered arrays, keyed objects, and the extended scalar family used by
// the graph layer (temporal values, opaque binaries, vertices, edges,
// and paths).
//
// Values are built into a flat byte blob with Build and read back with
// Iterate/FindInObject/GetElement without a full decode, the way the
// teacher's upstream (postgraph's gtype) walks jsonb-shaped containers
// in place rather than materializing a tree.
package bdm

import "sort"

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindNumeric
	KindBool
	KindTimestamp
	KindTimestampTz
	KindDate
	KindTime
	KindTimeTz
	KindInterval
	KindArray
	KindObject
	KindBinary
	KindVertex
	KindEdge
	KindPath
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindNumeric:
		return "numeric"
	case KindBool:
		return "bool"
	case KindTimestamp:
		return "timestamp"
	case KindTimestampTz:
		return "timestamptz"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindTimeTz:
		return "timetz"
	case KindInterval:
		return "interval"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindBinary:
		return "binary"
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	case KindPath:
		return "path"
	default:
		return "unknown"
	}
}

// isNumericFamily reports whether two scalar kinds belong to the numeric
// family that compares/casts across representations (spec.md §4.1).
func (k Kind) isNumericFamily() bool {
	return k == KindInt || k == KindFloat || k == KindNumeric
}

func (k Kind) isTemporal() bool {
	switch k {
	case KindTimestamp, KindTimestampTz, KindDate, KindTime, KindTimeTz, KindInterval:
		return true
	}
	return false
}

func (k Kind) isContainer() bool {
	return k == KindArray || k == KindObject
}

// Interval is the months/days/microseconds decomposition used by
// KindInterval values.
type Interval struct {
	Months int32
	Days   int32
	Micros int64
}

// Pair is a single key/value entry of an Object value.
type Pair struct {
	Key string
	Val Value
}

// Value is the BDM tagged sum. Only the fields relevant to Kind are
// meaningful; the zero value of irrelevant fields is never inspected.
type Value struct {
	Kind Kind

	Str   string // String, Numeric (canonical decimal text)
	Int   int64  // Int; Timestamp/TimestampTz (unix micros); Date (days since epoch); Time/TimeTz (micros since midnight)
	Float float64
	Bool  bool

	TzOffsetSec int32 // TimeTz only: zone offset in seconds east of UTC
	Interval    Interval

	Elems []Value // Array, Path (ordered V,E,V,...)
	Pairs []Pair  // Object (kept sorted by (len(key), key) with last-write-wins)

	Bin []byte // Binary: opaque child container bytes

	Vertex *VertexValue // Vertex
	Edge   *EdgeValue   // Edge
}

// VertexValue is the property-graph vertex payload carried by a
// KindVertex Value: (graphid, label_id, properties).
type VertexValue struct {
	GraphID  int64
	LabelID  int64
	Props    Value
}

// EdgeValue is the property-graph edge payload carried by a KindEdge
// Value: (graphid, start_id, end_id, label_id, properties).
type EdgeValue struct {
	GraphID  int64
	StartID  int64
	EndID    int64
	LabelID  int64
	Props    Value
}

// Null, Bool, Int, Float, String, Numeric construct scalar values.

func Null() Value                { return Value{Kind: KindNull} }
func Bool_(b bool) Value         { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value          { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value      { return Value{Kind: KindFloat, Float: f} }
func String(s string) Value      { return Value{Kind: KindString, Str: s} }

// Numeric holds an arbitrary-precision value as canonical decimal text
// (e.g. "-12.0500"); no magnitude/precision limit is imposed here, the
// host's numeric type handles rounding.
func Numeric(decimal string) Value { return Value{Kind: KindNumeric, Str: decimal} }

func Timestamp(unixMicros int64) Value   { return Value{Kind: KindTimestamp, Int: unixMicros} }
func TimestampTz(unixMicros int64) Value { return Value{Kind: KindTimestampTz, Int: unixMicros} }
func Date(daysSinceEpoch int64) Value    { return Value{Kind: KindDate, Int: daysSinceEpoch} }
func Time(microsSinceMidnight int64) Value {
	return Value{Kind: KindTime, Int: microsSinceMidnight}
}
func TimeTz(microsSinceMidnight int64, tzOffsetSec int32) Value {
	return Value{Kind: KindTimeTz, Int: microsSinceMidnight, TzOffsetSec: tzOffsetSec}
}
func IntervalValue(months, days int32, micros int64) Value {
	return Value{Kind: KindInterval, Interval: Interval{Months: months, Days: days, Micros: micros}}
}

func Binary(b []byte) Value { return Value{Kind: KindBinary, Bin: append([]byte(nil), b...)} }

// Array builds an ordered array value.
func Array(elems ...Value) Value {
	return Value{Kind: KindArray, Elems: elems}
}

// Object builds a keyed value, sorting pairs by (length, bytes) and
// keeping the last write on duplicate keys, per spec.md §3.
func Object(pairs ...Pair) Value {
	return Value{Kind: KindObject, Pairs: sortAndDedupPairs(pairs)}
}

func sortAndDedupPairs(pairs []Pair) []Pair {
	// last-writer-wins: keep the later occurrence of a duplicate key.
	seen := make(map[string]int, len(pairs))
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if idx, ok := seen[p.Key]; ok {
			out[idx] = p
			continue
		}
		seen[p.Key] = len(out)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return keyLess(out[i].Key, out[j].Key)
	})
	return out
}

// keyLess implements the object key ordering: sorted by (length, bytes).
func keyLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func Vertex(graphID, labelID int64, props Value) Value {
	return Value{Kind: KindVertex, Vertex: &VertexValue{GraphID: graphID, LabelID: labelID, Props: props}}
}

func Edge(graphID, startID, endID, labelID int64, props Value) Value {
	return Value{Kind: KindEdge, Edge: &EdgeValue{GraphID: graphID, StartID: startID, EndID: endID, LabelID: labelID, Props: props}}
}

// Path builds a path value: an ordered V,E,V,...,E (or V) sequence.
func Path(elems ...Value) Value {
	return Value{Kind: KindPath, Elems: elems}
}

// IsScalar reports whether v is a non-container value, including the
// extended graph kinds (the set that Build wraps as a raw scalar array).
func (v Value) IsScalar() bool {
	return !v.Kind.isContainer()
}

// Len reports the number of direct children of an Array, Object, or Path
// value (0 for scalars).
func (v Value) Len() int {
	switch v.Kind {
	case KindArray, KindPath:
		return len(v.Elems)
	case KindObject:
		return len(v.Pairs)
	default:
		return 0
	}
}
