package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    StringList
		wantErr bool
	}{
		{name: "literal array", input: `["0.75", "0.25"]`, want: StringList{"0.75", "0.25"}},
		{name: "encoded array", input: `"[\"0.03\", \"0.97\"]"`, want: StringList{"0.03", "0.97"}},
		{name: "numbers", input: `[0.1, 0.9]`, want: StringList{"0.1", "0.9"}},
		{name: "null", input: `null`, want: nil},
		{name: "empty string", input: `""`, want: nil},
		{name: "empty array", input: `[]`, want: StringList{}},
		{name: "object", input: `{"a":1}`, wantErr: true},
		{name: "broken encoded array", input: `"[invalid"`, wantErr: true},
		{name: "nested object item", input: `[{"a":1}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringList
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringList_InStruct(t *testing.T) {
	var m struct {
		Prices StringList `json:"outcomePrices"`
		Tokens StringList `json:"clobTokenIds"`
	}
	data := `{"outcomePrices":"[\"0.1\",\"0.9\"]","clobTokenIds":["111","222"]}`
	require.NoError(t, json.Unmarshal([]byte(data), &m))

	assert.Equal(t, StringList{"0.1", "0.9"}, m.Prices)
	assert.Equal(t, "111", m.Tokens.First())
	assert.Equal(t, "", StringList(nil).First())
}

func TestLenientStringList(t *testing.T) {
	assert.Equal(t, StringList{"0.4", "0.6"}, LenientStringList([]byte(`["0.4","0.6"]`)))
	assert.Nil(t, LenientStringList([]byte(`"n/a"`)))
	assert.Nil(t, LenientStringList([]byte(`{"a":1}`)))
	assert.Nil(t, LenientStringList(nil))
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"0.37", true},
		{" 1 ", true},
		{"1e20", true},
		{"1e-20", true},
		{"1e21", false},
		{"1e-21", false},
		{"1e5000000", false},
		{"1e-5000000", false},
		{"123456789012345678901234567890123456789012345", false},
		{"abc", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, ok := ParseDecimal(tt.input)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestBestBid_SkipsHugeExponent(t *testing.T) {
	levels := []PriceLevel{{Price: "1e5000000"}, {Price: "0.41"}, {Price: "0.39"}}
	assert.Equal(t, "0.41", BestBid(levels))
	assert.Equal(t, "0.39", BestAsk(levels))
}
