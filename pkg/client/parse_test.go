package client

import (
	"encoding/json"
	"testing"

	"github.com/ledgergames/splitsecond/pkg/game/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseU64(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *uint64
	}{
		{name: "decimal string", raw: `"20"`, want: u64(20)},
		{name: "sentinel max", raw: `"18446744073709551615"`, want: u64(18446744073709551615)},
		{name: "plain number", raw: `42`, want: u64(42)},
		{name: "garbage string", raw: `"oops"`, want: nil},
		{name: "negative", raw: `"-1"`, want: nil},
		{name: "null", raw: `null`, want: nil},
		{name: "object", raw: `{}`, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseU64(json.RawMessage(tt.raw))
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}

	// missing field entirely
	assert.Nil(t, parseU64(nil))
}

func TestDecodeName(t *testing.T) {
	assert.Equal(t, "tester", decodeName(json.RawMessage(`[116, 101, 115, 116, 101, 114]`)))
	assert.Equal(t, "plain", decodeName(json.RawMessage(`"plain"`)))
	assert.Equal(t, constants.FallbackName, decodeName(json.RawMessage(`[999999]`)))
	assert.Equal(t, constants.FallbackName, decodeName(json.RawMessage(`{}`)))
	assert.Equal(t, constants.FallbackName, decodeName(json.RawMessage(`[]`)))
	assert.Equal(t, constants.FallbackName, decodeName(nil))
}

func u64(v uint64) *uint64 {
	return &v
}
