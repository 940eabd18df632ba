package bdm

import (
	"encoding/binary"
	"math"

	"cyquery/internal/cqlerr"
)

// OffsetStride controls how often a container's packed entry stores an
// absolute cumulative offset instead of a plain length, amortizing
// random access into the payload. Spec.md §4.1 calls this "a tunable
// small integer" — 32 mirrors common jsonb-family implementations.
const OffsetStride = 32

const lenFieldMask = 0x0FFFFFFF // 28 bits

// entry type codes packed into the top 3 bits of each 32-bit entry word.
type entryType uint8

const (
	entNull entryType = iota
	entString
	entNumeric
	entBool
	entContainer
	entExtended
)

const entryTypeShift = 29

// extended subtype tags, the first payload byte of an entExtended entry.
type extSubtype uint8

const (
	extTimestamp extSubtype = iota
	extTimestampTz
	extDate
	extTime
	extTimeTz
	extInterval
	extBinary
	extVertex
	extEdge
	extPath
)

// numeric subtype tags, the first payload byte of an entNumeric entry.
type numSubtype uint8

const (
	numInt numSubtype = iota
	numFloat
	numDecimal
)

func packEntry(t entryType, value uint32) (uint32, error) {
	if value > lenFieldMask {
		return 0, cqlerr.New(cqlerr.ContainerTooLarge,
			"entry payload size %d exceeds 28-bit field", value)
	}
	return uint32(t)<<entryTypeShift | value, nil
}

func entryTypeOf(word uint32) entryType {
	return entryType(word >> entryTypeShift)
}

func entryValueOf(word uint32) uint32 {
	return word & lenFieldMask
}

// container header bit layout (spec.md §3): count in low 28 bits, then
// is_object, is_scalar flags above it.
const (
	hdrCountMask  = 0x0FFFFFFF
	hdrIsObjShift = 28
	hdrIsSclShift = 29
)

func packHeader(count int, isObject, isScalar bool) (uint32, error) {
	if count > hdrCountMask {
		return 0, cqlerr.New(cqlerr.ContainerTooLarge, "container count %d exceeds 28-bit field", count)
	}
	h := uint32(count)
	if isObject {
		h |= 1 << hdrIsObjShift
	}
	if isScalar {
		h |= 1 << hdrIsSclShift
	}
	return h, nil
}

func unpackHeader(h uint32) (count int, isObject, isScalar bool) {
	count = int(h & hdrCountMask)
	isObject = h&(1<<hdrIsObjShift) != 0
	isScalar = h&(1<<hdrIsSclShift) != 0
	return
}

// childPayload is one entry's encoded (type, bytes) pair before it is
// packed into the entries array + payload body.
type childPayload struct {
	typ   entryType
	bytes []byte
}

// Build serializes v into a self-contained blob: a 4-byte total-length
// prefix followed by the container body. Scalars are transparently
// wrapped as a length-1 raw-scalar array (spec.md §4.1) so the on-disk
// shape is always a container; Iterate unwraps it back into a bare
// scalar token.
func Build(v Value) ([]byte, error) {
	container := v
	if !v.Kind.isContainer() {
		container = Array(v)
	}
	body, err := encodeContainer(container, !v.Kind.isContainer())
	if err != nil {
		return nil, err
	}
	total := 4 + len(body)
	out := make([]byte, 4, total)
	binary.BigEndian.PutUint32(out, uint32(total))
	return append(out, body...), nil
}

func encodeContainer(v Value, rawScalar bool) ([]byte, error) {
	var children []childPayload
	isObject := v.Kind == KindObject

	switch v.Kind {
	case KindObject:
		for _, p := range v.Pairs {
			children = append(children, childPayload{entString, []byte(p.Key)})
		}
		for _, p := range v.Pairs {
			c, err := encodeChild(p.Val)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
	case KindArray, KindPath:
		for _, e := range v.Elems {
			c, err := encodeChild(e)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
	default:
		c, err := encodeChild(v)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}

	count := len(children)
	header, err := packHeader(count, isObject, rawScalar)
	if err != nil {
		return nil, err
	}

	lengths := make([]uint32, count)
	for i, c := range children {
		if len(c.bytes) > lenFieldMask {
			return nil, cqlerr.New(cqlerr.ContainerTooLarge, "child payload of %d bytes exceeds 28-bit field", len(c.bytes))
		}
		lengths[i] = uint32(len(c.bytes))
	}

	entries := make([]uint32, count)
	var cumulative uint32
	for i := 0; i < count; i++ {
		cumulative += lengths[i]
		if i%OffsetStride == 0 {
			entries[i], err = packEntry(children[i].typ, cumulative)
		} else {
			entries[i], err = packEntry(children[i].typ, lengths[i])
		}
		if err != nil {
			return nil, err
		}
	}

	out := make([]byte, 0, 4+4*count+int(cumulative))
	hdrBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(hdrBytes, header)
	out = append(out, hdrBytes...)
	for _, e := range entries {
		eb := make([]byte, 4)
		binary.BigEndian.PutUint32(eb, e)
		out = append(out, eb...)
	}
	for _, c := range children {
		out = append(out, c.bytes...)
	}
	return out, nil
}

func encodeChild(v Value) (childPayload, error) {
	switch v.Kind {
	case KindNull:
		return childPayload{entNull, nil}, nil
	case KindString:
		return childPayload{entString, []byte(v.Str)}, nil
	case KindBool:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		return childPayload{entBool, []byte{b}}, nil
	case KindInt:
		buf := make([]byte, 9)
		buf[0] = byte(numInt)
		binary.BigEndian.PutUint64(buf[1:], uint64(v.Int))
		return childPayload{entNumeric, buf}, nil
	case KindFloat:
		buf := make([]byte, 9)
		buf[0] = byte(numFloat)
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(v.Float))
		return childPayload{entNumeric, buf}, nil
	case KindNumeric:
		buf := append([]byte{byte(numDecimal)}, []byte(v.Str)...)
		return childPayload{entNumeric, buf}, nil
	case KindArray, KindObject:
		b, err := encodeContainer(v, false)
		if err != nil {
			return childPayload{}, err
		}
		return childPayload{entContainer, b}, nil
	case KindTimestamp, KindTimestampTz, KindDate, KindTime, KindTimeTz, KindInterval:
		return encodeExtendedTemporal(v)
	case KindBinary:
		buf := append([]byte{byte(extBinary)}, v.Bin...)
		return childPayload{entExtended, buf}, nil
	case KindVertex:
		return encodeVertex(v)
	case KindEdge:
		return encodeEdge(v)
	case KindPath:
		return encodePath(v)
	default:
		return childPayload{}, cqlerr.New(cqlerr.InternalInvariantViolated, "unknown value kind %d", v.Kind)
	}
}

func encodeExtendedTemporal(v Value) (childPayload, error) {
	var sub extSubtype
	var body []byte
	switch v.Kind {
	case KindTimestamp:
		sub = extTimestamp
		body = make([]byte, 8)
		binary.BigEndian.PutUint64(body, uint64(v.Int))
	case KindTimestampTz:
		sub = extTimestampTz
		body = make([]byte, 8)
		binary.BigEndian.PutUint64(body, uint64(v.Int))
	case KindDate:
		sub = extDate
		body = make([]byte, 8)
		binary.BigEndian.PutUint64(body, uint64(v.Int))
	case KindTime:
		sub = extTime
		body = make([]byte, 8)
		binary.BigEndian.PutUint64(body, uint64(v.Int))
	case KindTimeTz:
		sub = extTimeTz
		body = make([]byte, 12)
		binary.BigEndian.PutUint64(body[:8], uint64(v.Int))
		binary.BigEndian.PutUint32(body[8:], uint32(v.TzOffsetSec))
	case KindInterval:
		sub = extInterval
		body = make([]byte, 16)
		binary.BigEndian.PutUint32(body[0:4], uint32(v.Interval.Months))
		binary.BigEndian.PutUint32(body[4:8], uint32(v.Interval.Days))
		binary.BigEndian.PutUint64(body[8:16], uint64(v.Interval.Micros))
	}
	return childPayload{entExtended, append([]byte{byte(sub)}, body...)}, nil
}

func encodeVertex(v Value) (childPayload, error) {
	propsBytes, err := encodeContainer(asContainer(v.Vertex.Props), false)
	if err != nil {
		return childPayload{}, err
	}
	buf := make([]byte, 1+8+8)
	buf[0] = byte(extVertex)
	binary.BigEndian.PutUint64(buf[1:9], uint64(v.Vertex.GraphID))
	binary.BigEndian.PutUint64(buf[9:17], uint64(v.Vertex.LabelID))
	buf = append(buf, propsBytes...)
	return childPayload{entExtended, buf}, nil
}

func encodeEdge(v Value) (childPayload, error) {
	propsBytes, err := encodeContainer(asContainer(v.Edge.Props), false)
	if err != nil {
		return childPayload{}, err
	}
	buf := make([]byte, 1+8+8+8+8)
	buf[0] = byte(extEdge)
	binary.BigEndian.PutUint64(buf[1:9], uint64(v.Edge.GraphID))
	binary.BigEndian.PutUint64(buf[9:17], uint64(v.Edge.StartID))
	binary.BigEndian.PutUint64(buf[17:25], uint64(v.Edge.EndID))
	binary.BigEndian.PutUint64(buf[25:33], uint64(v.Edge.LabelID))
	buf = append(buf, propsBytes...)
	return childPayload{entExtended, buf}, nil
}

func encodePath(v Value) (childPayload, error) {
	buf := []byte{byte(extPath)}
	countBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(countBuf, uint32(len(v.Elems)))
	buf = append(buf, countBuf...)
	for _, e := range v.Elems {
		blob, err := Build(e)
		if err != nil {
			return childPayload{}, err
		}
		buf = append(buf, blob...)
	}
	return childPayload{entExtended, buf}, nil
}

// asContainer normalizes a properties value (which by construction is
// always an Object, but defensively tolerates a zero Value) into an
// object suitable for recursive encoding without the raw-scalar wrap.
func asContainer(v Value) Value {
	if v.Kind.isContainer() {
		return v
	}
	return Object()
}
