package bdm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cyquery/internal/cqlerr"
)

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	blob, err := Build(v)
	require.NoError(t, err)
	out, err := Materialize(blob)
	require.NoError(t, err)
	return out
}

func TestBuildMaterializeRoundTrip(t *testing.T) {
	cases := []Value{
		Null(),
		Bool_(true),
		Bool_(false),
		Int(-42),
		Float(3.5),
		Numeric("12.0500"),
		String("hello graph"),
		Binary([]byte{0x01, 0x02, 0xff}),
		Timestamp(1_700_000_000_000_000),
		TimestampTz(1_700_000_000_000_000),
		Date(19723),
		Time(3_600_000_000),
		TimeTz(3_600_000_000, -18000),
		IntervalValue(1, 2, 3_600_000_000),
		Array(Int(1), String("x"), Bool_(true)),
		Object(Pair{Key: "b", Val: Int(2)}, Pair{Key: "a", Val: Int(1)}),
		Array(Array(Int(1), Int(2)), Object(Pair{Key: "k", Val: Null()})),
		Vertex(7, 3, Object(Pair{Key: "name", Val: String("alice")})),
		Edge(8, 7, 9, 4, Object(Pair{Key: "since", Val: Int(2020)})),
		Path(
			Vertex(1, 1, Object()),
			Edge(2, 1, 3, 2, Object()),
			Vertex(3, 1, Object()),
		),
	}
	for _, v := range cases {
		got := roundTrip(t, v)
		assert.Truef(t, Equal(v, got), "round trip mismatch for kind %s: got %+v", v.Kind, got)
	}
}

func TestBuildLargeArrayOffsetCheckpointing(t *testing.T) {
	elems := make([]Value, 0, OffsetStride*3+5)
	for i := 0; i < cap(elems); i++ {
		elems = append(elems, String(repeatString("x", i%7+1)))
	}
	v := Array(elems...)
	blob, err := Build(v)
	require.NoError(t, err)

	for i := 0; i < len(elems); i++ {
		el, err := GetElement(blob, i)
		require.NoError(t, err)
		assert.True(t, Equal(elems[i], el), "element %d mismatch", i)
	}
}

func repeatString(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

func TestFindInObject(t *testing.T) {
	v := Object(
		Pair{Key: "name", Val: String("alice")},
		Pair{Key: "age", Val: Int(30)},
	)
	blob, err := Build(v)
	require.NoError(t, err)

	got, ok, err := FindInObject(blob, "age")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, Equal(got, Int(30)))

	_, ok, err = FindInObject(blob, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestObjectDuplicateKeyLastWriteWins(t *testing.T) {
	v := Object(
		Pair{Key: "x", Val: Int(1)},
		Pair{Key: "x", Val: Int(2)},
	)
	require.Len(t, v.Pairs, 1)
	assert.True(t, Equal(v.Pairs[0].Val, Int(2)))
}

func TestIterateScalarIsNotWrappedAsArray(t *testing.T) {
	blob, err := Build(Int(5))
	require.NoError(t, err)
	cur, err := Iterate(blob)
	require.NoError(t, err)
	tok, err := cur.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenScalar, tok.Kind)
	assert.True(t, Equal(tok.Value, Int(5)))
	tok, err = cur.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenDone, tok.Kind)
}

func TestIterateArrayTokenStream(t *testing.T) {
	blob, err := Build(Array(Int(1), Int(2)))
	require.NoError(t, err)
	cur, err := Iterate(blob)
	require.NoError(t, err)

	var kinds []TokenKind
	for {
		tok, err := cur.Next()
		require.NoError(t, err)
		kinds = append(kinds, tok.Kind)
		if tok.Kind == TokenDone {
			break
		}
	}
	assert.Equal(t, []TokenKind{TokenBeginArray, TokenScalar, TokenScalar, TokenEndArray, TokenDone}, kinds)
}

func TestIterateSkipNestedYieldsOpaqueContainerToken(t *testing.T) {
	blob, err := Build(Array(Int(1), Array(Int(2), Int(3)), Int(4)))
	require.NoError(t, err)
	cur, err := Iterate(blob)
	require.NoError(t, err)

	tok, err := cur.NextSkipNested(true)
	require.NoError(t, err)
	assert.Equal(t, TokenBeginArray, tok.Kind)

	tok, err = cur.NextSkipNested(true)
	require.NoError(t, err)
	assert.Equal(t, TokenScalar, tok.Kind)
	assert.True(t, Equal(tok.Value, Int(1)))

	tok, err = cur.NextSkipNested(true)
	require.NoError(t, err)
	require.Equal(t, TokenContainer, tok.Kind, "nested array should be skipped, not descended into")
	nested, err := Materialize(tok.Raw)
	require.NoError(t, err)
	assert.True(t, Equal(nested, Array(Int(2), Int(3))))

	tok, err = cur.NextSkipNested(true)
	require.NoError(t, err)
	assert.Equal(t, TokenScalar, tok.Kind)
	assert.True(t, Equal(tok.Value, Int(4)))
}

func TestCompareCrossTypePriority(t *testing.T) {
	assert.Equal(t, 1, Compare(Null(), Bool_(false)))
	assert.Equal(t, -1, Compare(String("a"), Int(1)))
	assert.Equal(t, -1, Compare(Array(), Int(1)))
}

func TestCompareNumericFamilyPromotion(t *testing.T) {
	assert.Equal(t, 0, Compare(Int(2), Float(2.0)))
	assert.Equal(t, 0, Compare(Int(2), Numeric("2")))
	assert.Equal(t, -1, Compare(Int(1), Float(1.5)))
}

func TestCompareNaNOrdering(t *testing.T) {
	nan := Float(math.NaN())
	assert.Equal(t, 0, Compare(nan, nan))
	assert.Equal(t, 1, Compare(nan, Int(1_000_000)))
	assert.Equal(t, -1, Compare(Int(1_000_000), nan))
}

func TestDeepContainsObjectAndArray(t *testing.T) {
	outer := Object(
		Pair{Key: "name", Val: String("alice")},
		Pair{Key: "tags", Val: Array(String("a"), String("b"), String("c"))},
	)
	inner := Object(
		Pair{Key: "tags", Val: Array(String("b"))},
	)
	assert.True(t, DeepContains(outer, inner))

	notContained := Object(Pair{Key: "tags", Val: Array(String("z"))})
	assert.False(t, DeepContains(outer, notContained))
}

func TestDeepContainsRawScalarAsymmetry(t *testing.T) {
	scalar := Int(5)
	wrapped := Array(Int(5))
	assert.False(t, DeepContains(scalar, wrapped))
	assert.False(t, DeepContains(wrapped, scalar))
	assert.True(t, DeepContains(wrapped, Array(Int(5))))
}

func TestHashStableAndSeedSensitive(t *testing.T) {
	v := Object(Pair{Key: "a", Val: Int(1)})
	h1 := Hash(v, 0)
	h2 := Hash(v, 0)
	h3 := Hash(v, 1)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestCastNumericFamily(t *testing.T) {
	out, err := Cast(Int(5), KindFloat)
	require.NoError(t, err)
	assert.True(t, Equal(out, Float(5)))

	out, err = Cast(String("42"), KindInt)
	require.NoError(t, err)
	assert.True(t, Equal(out, Int(42)))

	_, err = Cast(String("not-a-number"), KindInt)
	require.Error(t, err)
	kind, ok := cqlerr.Of(err)
	require.True(t, ok)
	assert.Equal(t, cqlerr.InvalidTypeCast, kind)
}
