package bdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONRoundTripObject(t *testing.T) {
	v := Object(
		Pair{Key: "name", Val: String("alice")},
		Pair{Key: "age", Val: Int(30)},
		Pair{Key: "tags", Val: Array(String("a"), String("b"))},
	)
	blob, err := ToJSON(v)
	require.NoError(t, err)

	out, err := FromJSON(blob)
	require.NoError(t, err)
	assert.Equal(t, KindObject, out.Kind)
	assert.Equal(t, 3, out.Len())
}

func TestFromJSONEmptyYieldsEmptyObject(t *testing.T) {
	out, err := FromJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, KindObject, out.Kind)
	assert.Equal(t, 0, out.Len())
}
