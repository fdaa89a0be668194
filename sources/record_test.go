package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarungka/sift/stream"
)

func TestRecordFromJSON(t *testing.T) {
	doc := map[string]any{
		"time":       12.5,
		"ipv4.src":   "10.0.0.1",
		"ipv4.dst":   "192.168.1.1",
		"ipv4.proto": float64(6),
		"l4.dport":   float64(22),
		"l4.flags":   float64(2),
		"eth.src":    "00:11:22:33:44:55",
	}

	rec, err := RecordFromJSON(doc)
	require.NoError(t, err)

	assert.Equal(t, stream.FloatValue(12.5), rec["time"])
	assert.Equal(t, stream.MustIPv4("10.0.0.1"), rec["ipv4.src"])
	assert.Equal(t, stream.IntValue(6), rec["ipv4.proto"])
	assert.Equal(t, stream.IntValue(22), rec["l4.dport"])
	assert.Equal(t, stream.MACValue([6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}), rec["eth.src"])
}

func TestRecordFromJSONUnknownFields(t *testing.T) {
	rec, err := RecordFromJSON(map[string]any{
		"custom_count": float64(4),
		"custom_ratio": 0.25,
		"peer":         "172.16.0.9",
	})
	require.NoError(t, err)

	// Integral numbers become ints, fractional ones floats, and strings
	// that look like addresses are parsed as such.
	assert.Equal(t, stream.IntValue(4), rec["custom_count"])
	assert.Equal(t, stream.FloatValue(0.25), rec["custom_ratio"])
	assert.Equal(t, stream.MustIPv4("172.16.0.9"), rec["peer"])
}

func TestRecordFromJSONRejectsUntypeable(t *testing.T) {
	_, err := RecordFromJSON(map[string]any{"note": "hello world"})
	require.Error(t, err)

	_, err = RecordFromJSON(map[string]any{"nested": map[string]any{}})
	require.Error(t, err)

	_, err = RecordFromJSON(map[string]any{"ipv4.src": "999.1.2.3"})
	require.Error(t, err)
}
