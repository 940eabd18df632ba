package bdm

import (
	"encoding/binary"
	"math"
	"sort"

	"cyquery/internal/cqlerr"
)

// TokenKind identifies the shape of the current position in a Cursor walk.
type TokenKind uint8

const (
	TokenBeginArray TokenKind = iota
	TokenEndArray
	TokenBeginObject
	TokenEndObject
	TokenKey
	TokenScalar
	TokenContainer
	TokenDone
)

// Token is one step of a Cursor walk. Only the fields relevant to Kind
// are populated: TokenKey carries Key, TokenScalar carries Value,
// TokenContainer carries Raw (the nested container's undecoded bytes,
// emitted in place of a BeginArray/BeginObject..End pair when the walk
// was told to skip nested containers).
type Token struct {
	Kind  TokenKind
	Key   string
	Value Value
	Raw   []byte
}

// container is a decoded view over one container's entries+payload,
// without touching nested containers until they are stepped into.
type container struct {
	header  uint32
	count   int
	isObj   bool
	isScl   bool
	entries []uint32
	payload []byte
}

func decodeContainer(b []byte) (container, error) {
	if len(b) < 4 {
		return container{}, cqlerr.New(cqlerr.InternalInvariantViolated, "container too short: %d bytes", len(b))
	}
	header := binary.BigEndian.Uint32(b)
	count, isObj, isScl := unpackHeader(header)
	need := 4 + 4*count
	if len(b) < need {
		return container{}, cqlerr.New(cqlerr.InternalInvariantViolated, "container entries truncated")
	}
	entries := make([]uint32, count)
	for i := 0; i < count; i++ {
		entries[i] = binary.BigEndian.Uint32(b[4+4*i:])
	}
	return container{
		header:  header,
		count:   count,
		isObj:   isObj,
		isScl:   isScl,
		entries: entries,
		payload: b[need:],
	}, nil
}

// cumulativeThrough returns the total payload bytes spanned by
// entries[0..i] inclusive, walking backward to the nearest stored
// checkpoint (spec.md §4.1: "every OFFSET_STRIDE entries stores an
// absolute offset instead of a length").
func (c container) cumulativeThrough(i int) uint32 {
	var sum uint32
	for j := i; ; j-- {
		if j%OffsetStride == 0 {
			sum += entryValueOf(c.entries[j])
			return sum
		}
		sum += entryValueOf(c.entries[j])
	}
}

func (c container) start(i int) uint32 {
	if i <= 0 {
		return 0
	}
	return c.cumulativeThrough(i - 1)
}

func (c container) length(i int) uint32 {
	if i%OffsetStride == 0 {
		return c.cumulativeThrough(i) - c.start(i)
	}
	return entryValueOf(c.entries[i])
}

func (c container) slice(i int) []byte {
	s := c.start(i)
	l := c.length(i)
	return c.payload[s : s+l]
}

// GetElement returns the decoded child value at index i of a container
// blob b (the top-level blob including its 4-byte length prefix, or a
// nested container's bytes). For Object containers, i indexes the
// flattened key-then-value entry order (0..count-1 are keys,
// count..2*count-1 are values).
func GetElement(b []byte, i int) (Value, error) {
	c, body, err := containerFromBlob(b)
	if err != nil {
		return Value{}, err
	}
	_ = body
	if i < 0 || i >= c.count {
		return Value{}, cqlerr.New(cqlerr.NotFound, "container index %d out of range [0,%d)", i, c.count)
	}
	return decodeEntry(entryTypeOf(c.entries[i]), c.slice(i))
}

func containerFromBlob(b []byte) (container, []byte, error) {
	body := b
	if len(b) >= 4 {
		if total := binary.BigEndian.Uint32(b); int(total) == len(b) {
			body = b[4:]
		}
	}
	c, err := decodeContainer(body)
	return c, body, err
}

// FindInObject looks up key in an Object blob using the key-entries'
// (length, bytes) ordering with binary search, mirroring
// find_gtype_value_from_container's sorted-key lookup.
func FindInObject(b []byte, key string) (Value, bool, error) {
	c, _, err := containerFromBlob(b)
	if err != nil {
		return Value{}, false, err
	}
	if !c.isObj {
		return Value{}, false, cqlerr.New(cqlerr.InternalInvariantViolated, "FindInObject on non-object container")
	}
	n := c.count / 2
	idx := sort.Search(n, func(i int) bool {
		return !keyLess(string(c.slice(i)), key)
	})
	if idx >= n || string(c.slice(idx)) != key {
		return Value{}, false, nil
	}
	val, err := decodeEntry(entryTypeOf(c.entries[n+idx]), c.slice(n+idx))
	if err != nil {
		return Value{}, false, err
	}
	return val, true, nil
}

// Materialize fully decodes a blob into a Value tree. It is the
// inverse of Build, used where callers want the whole tree rather than
// a streaming walk (e.g. bdm.Compare, bdm.DeepContains).
func Materialize(b []byte) (Value, error) {
	c, _, err := containerFromBlob(b)
	if err != nil {
		return Value{}, err
	}
	v, err := decodeContainerValue(c)
	if err != nil {
		return Value{}, err
	}
	if c.isScl {
		if len(v.Elems) != 1 {
			return Value{}, cqlerr.New(cqlerr.InternalInvariantViolated, "raw-scalar container did not hold exactly one element")
		}
		return v.Elems[0], nil
	}
	return v, nil
}

func decodeContainerValue(c container) (Value, error) {
	if c.isObj {
		n := c.count / 2
		pairs := make([]Pair, n)
		for i := 0; i < n; i++ {
			key := string(c.slice(i))
			val, err := decodeEntry(entryTypeOf(c.entries[n+i]), c.slice(n+i))
			if err != nil {
				return Value{}, err
			}
			pairs[i] = Pair{Key: key, Val: val}
		}
		return Value{Kind: KindObject, Pairs: pairs}, nil
	}
	elems := make([]Value, c.count)
	for i := 0; i < c.count; i++ {
		val, err := decodeEntry(entryTypeOf(c.entries[i]), c.slice(i))
		if err != nil {
			return Value{}, err
		}
		elems[i] = val
	}
	return Value{Kind: KindArray, Elems: elems}, nil
}

func decodeEntry(t entryType, b []byte) (Value, error) {
	switch t {
	case entNull:
		return Null(), nil
	case entString:
		return String(string(b)), nil
	case entBool:
		return Bool_(b[0] != 0), nil
	case entNumeric:
		return decodeNumeric(b)
	case entContainer:
		c, err := decodeContainer(b)
		if err != nil {
			return Value{}, err
		}
		return decodeContainerValue(c)
	case entExtended:
		return decodeExtended(b)
	default:
		return Value{}, cqlerr.New(cqlerr.InternalInvariantViolated, "unknown entry type %d", t)
	}
}

func decodeNumeric(b []byte) (Value, error) {
	sub := numSubtype(b[0])
	switch sub {
	case numInt:
		return Int(int64(binary.BigEndian.Uint64(b[1:9]))), nil
	case numFloat:
		bits := binary.BigEndian.Uint64(b[1:9])
		return Float(math.Float64frombits(bits)), nil
	case numDecimal:
		return Numeric(string(b[1:])), nil
	default:
		return Value{}, cqlerr.New(cqlerr.InternalInvariantViolated, "unknown numeric subtype %d", sub)
	}
}

func decodeExtended(b []byte) (Value, error) {
	sub := extSubtype(b[0])
	body := b[1:]
	switch sub {
	case extTimestamp:
		return Timestamp(int64(binary.BigEndian.Uint64(body))), nil
	case extTimestampTz:
		return TimestampTz(int64(binary.BigEndian.Uint64(body))), nil
	case extDate:
		return Date(int64(binary.BigEndian.Uint64(body))), nil
	case extTime:
		return Time(int64(binary.BigEndian.Uint64(body))), nil
	case extTimeTz:
		micros := int64(binary.BigEndian.Uint64(body[:8]))
		off := int32(binary.BigEndian.Uint32(body[8:12]))
		return TimeTz(micros, off), nil
	case extInterval:
		months := int32(binary.BigEndian.Uint32(body[0:4]))
		days := int32(binary.BigEndian.Uint32(body[4:8]))
		micros := int64(binary.BigEndian.Uint64(body[8:16]))
		return IntervalValue(months, days, micros), nil
	case extBinary:
		return Binary(body), nil
	case extVertex:
		graphID := int64(binary.BigEndian.Uint64(body[0:8]))
		labelID := int64(binary.BigEndian.Uint64(body[8:16]))
		props, err := Materialize(body[16:])
		if err != nil {
			return Value{}, err
		}
		return Vertex(graphID, labelID, props), nil
	case extEdge:
		graphID := int64(binary.BigEndian.Uint64(body[0:8]))
		startID := int64(binary.BigEndian.Uint64(body[8:16]))
		endID := int64(binary.BigEndian.Uint64(body[16:24]))
		labelID := int64(binary.BigEndian.Uint64(body[24:32]))
		props, err := Materialize(body[32:])
		if err != nil {
			return Value{}, err
		}
		return Edge(graphID, startID, endID, labelID, props), nil
	case extPath:
		count := int(binary.BigEndian.Uint32(body[0:4]))
		elems := make([]Value, count)
		rest := body[4:]
		for i := 0; i < count; i++ {
			if len(rest) < 4 {
				return Value{}, cqlerr.New(cqlerr.InternalInvariantViolated, "path element truncated")
			}
			total := int(binary.BigEndian.Uint32(rest))
			v, err := Materialize(rest[:total])
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
			rest = rest[total:]
		}
		return Path(elems...), nil
	default:
		return Value{}, cqlerr.New(cqlerr.InternalInvariantViolated, "unknown extended subtype %d", sub)
	}
}

// frame tracks one level of an in-progress Cursor walk: the container
// being walked and the next child index to emit.
type frame struct {
	c       container
	isObj   bool
	next    int
	emitKey bool // object frames alternate key/value per child slot
}

// Cursor walks a blob depth-first without materializing the whole
// value tree, the way the teacher's upstream walks gtype containers in
// place. A raw-scalar container (Build's wrapping of a bare scalar)
// collapses straight to a single TokenScalar.
type Cursor struct {
	stack  []frame
	scalar *Value // set when the blob is a raw-scalar wrapper; emitted once
	begin  *Token // the top-level container's Begin token, emitted once
	done   bool
	err    error
}

// Iterate begins a streaming walk over blob b (a top-level Build
// output, or any nested container's raw bytes). A blob built from a
// bare scalar yields a single TokenScalar then TokenDone, never a
// BeginArray/EndArray pair around it.
func Iterate(b []byte) (*Cursor, error) {
	c, _, err := containerFromBlob(b)
	if err != nil {
		return nil, err
	}
	if c.isScl {
		v, err := decodeEntry(entryTypeOf(c.entries[0]), c.slice(0))
		if err != nil {
			return nil, err
		}
		return &Cursor{scalar: &v}, nil
	}
	begin := Token{Kind: TokenBeginArray}
	if c.isObj {
		begin.Kind = TokenBeginObject
	}
	cur := &Cursor{begin: &begin}
	cur.pushContainer(c)
	return cur, nil
}

func (cur *Cursor) pushContainer(c container) {
	f := frame{c: c, isObj: c.isObj}
	if c.isObj {
		f.emitKey = true
	}
	cur.stack = append(cur.stack, f)
}

// Next advances the walk and returns the next token. Callers stop when
// Kind is TokenDone (or err is non-nil). Equivalent to
// NextSkipNested(false): every nested container is fully descended
// into.
func (cur *Cursor) Next() (Token, error) {
	return cur.next(false)
}

// NextSkipNested behaves like Next, except that when skipNested is
// true a nested container is returned whole as a single TokenContainer
// (carrying its raw, still-encoded bytes) rather than being pushed
// onto the walk and descended into token by token. This is the
// streaming counterpart of gtype_iterator_next's skip_nested flag
// (gtype_util.c:854-994): callers that only need to confirm a nested
// container's presence, or that will hand its bytes to another BDM
// entry point (FindInObject, Materialize, a fresh Iterate) rather than
// walk it inline, can avoid paying for a full recursive descent.
func (cur *Cursor) NextSkipNested(skipNested bool) (Token, error) {
	return cur.next(skipNested)
}

func (cur *Cursor) next(skipNested bool) (Token, error) {
	if cur.err != nil {
		return Token{}, cur.err
	}
	if cur.scalar != nil {
		v := *cur.scalar
		cur.scalar = nil
		return Token{Kind: TokenScalar, Value: v}, nil
	}
	if cur.begin != nil {
		t := *cur.begin
		cur.begin = nil
		return t, nil
	}
	if len(cur.stack) == 0 {
		if !cur.done {
			cur.done = true
			return Token{Kind: TokenDone}, nil
		}
		return Token{Kind: TokenDone}, nil
	}
	top := &cur.stack[len(cur.stack)-1]
	half := top.c.count
	if top.isObj {
		half = top.c.count / 2
	}

	if top.isObj && top.emitKey {
		if top.next >= half {
			top.emitKey = false
		} else {
			key := string(top.c.slice(top.next))
			return Token{Kind: TokenKey, Key: key}, nil
		}
	}

	valueIdx := top.next
	if top.isObj {
		valueIdx = half + top.next
	}
	if top.next >= half {
		end := TokenEndArray
		if top.isObj {
			end = TokenEndObject
		}
		cur.stack = cur.stack[:len(cur.stack)-1]
		return Token{Kind: end}, nil
	}

	entType := entryTypeOf(top.c.entries[valueIdx])
	payload := top.c.slice(valueIdx)
	top.next++
	if top.isObj {
		top.emitKey = true
	}

	if entType == entContainer {
		if skipNested {
			return Token{Kind: TokenContainer, Raw: payload}, nil
		}
		child, err := decodeContainer(payload)
		if err != nil {
			cur.err = err
			return Token{}, err
		}
		begin := TokenBeginArray
		if child.isObj {
			begin = TokenBeginObject
		}
		cur.pushContainer(child)
		return Token{Kind: begin}, nil
	}

	v, err := decodeEntry(entType, payload)
	if err != nil {
		cur.err = err
		return Token{}, err
	}
	return Token{Kind: TokenScalar, Value: v}, nil
}
