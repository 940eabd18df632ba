package bdm

import (
	"encoding/binary"
	"hash/fnv"
)

// Hash computes a structural hash of v, seeded so callers can combine
// it with a caller-chosen salt instead of re-hashing from scratch.
// Grounded on
// gtype_util.c:gtype_hash_scalar_value[_extended]'s per-kind hash
// combination; this uses FNV-1a in place of the original's custom
// mix, since no pack library offers a structural hasher for a bespoke
// tagged value tree.
func Hash(v Value, seed uint64) uint64 {
	h := fnv.New64a()
	var seedBuf [8]byte
	binary.LittleEndian.PutUint64(seedBuf[:], seed)
	h.Write(seedBuf[:])
	hashInto(h, v)
	return h.Sum64()
}

func hashInto(h interface{ Write([]byte) (int, error) }, v Value) {
	writeByte(h, byte(v.Kind))
	switch v.Kind {
	case KindNull:
	case KindBool:
		writeByte(h, boolByte(v.Bool))
	case KindString:
		h.Write([]byte(v.Str))
	case KindNumeric:
		h.Write([]byte(v.Str))
	case KindInt:
		writeInt64(h, v.Int)
	case KindFloat:
		writeInt64(h, int64(v.Float))
	case KindDate, KindTimestamp, KindTimestampTz, KindTime:
		writeInt64(h, v.Int)
	case KindTimeTz:
		writeInt64(h, v.Int)
		writeInt64(h, int64(v.TzOffsetSec))
	case KindInterval:
		writeInt64(h, int64(v.Interval.Months))
		writeInt64(h, int64(v.Interval.Days))
		writeInt64(h, v.Interval.Micros)
	case KindBinary:
		h.Write(v.Bin)
	case KindArray, KindPath:
		for _, e := range v.Elems {
			hashInto(h, e)
		}
	case KindObject:
		for _, p := range v.Pairs {
			h.Write([]byte(p.Key))
			hashInto(h, p.Val)
		}
	case KindVertex:
		writeInt64(h, v.Vertex.GraphID)
		writeInt64(h, v.Vertex.LabelID)
		hashInto(h, v.Vertex.Props)
	case KindEdge:
		writeInt64(h, v.Edge.GraphID)
		writeInt64(h, v.Edge.StartID)
		writeInt64(h, v.Edge.EndID)
		writeInt64(h, v.Edge.LabelID)
		hashInto(h, v.Edge.Props)
	}
}

func writeByte(h interface{ Write([]byte) (int, error) }, b byte) {
	h.Write([]byte{b})
}

func writeInt64(h interface{ Write([]byte) (int, error) }, i int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(i))
	h.Write(buf[:])
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
