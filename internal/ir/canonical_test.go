package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeysAndKeepsTypes(t *testing.T) {
	row := Row{
		"y":     IRFloat(100),
		"notes": Null,
		"id":    IRInt(3),
		"name":  IRString("Tuba <1> & co"),
		"x":     IRFloat(12.5),
	}

	data, err := MarshalCanonical(row)
	require.NoError(t, err)
	assert.Equal(t, `{"id":3,"name":"Tuba <1> & co","notes":null,"x":12.5,"y":100.0}`, string(data))
}

func TestMarshalCanonical_NFCNormalizesStrings(t *testing.T) {
	decomposed := "Cafe\u0301"
	composed := "Caf\u00e9"

	a, err := MarshalCanonical(Row{"notes": IRString(decomposed)})
	require.NoError(t, err)
	b, err := MarshalCanonical(Row{"notes": IRString(composed)})
	require.NoError(t, err)

	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonical_EscapesControlCharactersOnly(t *testing.T) {
	data, err := MarshalCanonical(IRString("a\"b\\c\nd\u0001e\u2028"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\\\"b\\\\c\\nd\\u0001e\u2028\"", string(data))
}

func TestMarshalCanonical_RejectsNonFiniteFloats(t *testing.T) {
	_, err := MarshalCanonical(Row{"x": IRFloat(math.NaN())})
	assert.Error(t, err)

	_, err = MarshalCanonical(Row{"x": IRFloat(math.Inf(1))})
	assert.Error(t, err)
}

func TestUnmarshalRow_RoundTrip(t *testing.T) {
	rows := []Row{
		{"id": IRInt(0), "counts": IRInt(0), "next_page_id": Null, "notes": IRString("")},
		{"id": IRInt(7), "x": IRFloat(100), "y": IRFloat(-0.25), "notes": IRString("line\nbreak")},
		{"id": IRInt(9), "x": IRFloat(1e21), "y": IRFloat(3.0000000000000004)},
	}

	for _, row := range rows {
		data, err := MarshalCanonical(row)
		require.NoError(t, err)

		decoded, err := UnmarshalRow(data)
		require.NoError(t, err)
		assert.True(t, row.Equal(decoded), "round trip changed %s", data)

		again, err := MarshalCanonical(decoded)
		require.NoError(t, err)
		assert.Equal(t, string(data), string(again))
	}
}

func TestUnmarshalRow_RejectsNonObjects(t *testing.T) {
	_, err := UnmarshalRow([]byte(`[1,2]`))
	assert.Error(t, err)

	_, err = UnmarshalRow([]byte(`null`))
	assert.Error(t, err)

	_, err = UnmarshalRow([]byte(`{"a":true}`))
	assert.Error(t, err)
}
