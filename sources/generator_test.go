package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarungka/sift/sinks"
	"github.com/tarungka/sift/stream"
)

func TestGeneratorSource(t *testing.T) {
	sink := sinks.NewMemorySink()
	src := NewGeneratorSource(5, 0.5)

	require.NoError(t, src.Run(context.Background(), sink))

	records := sink.Records()
	require.Len(t, records, 5)
	for i, r := range records {
		tm, err := r.Float("time")
		require.NoError(t, err)
		assert.Equal(t, float64(i)*0.5, tm)
		assert.Equal(t, stream.IntValue(6), r["ipv4.proto"])
	}

	// End of stream forces one flush so open windows drain.
	require.Len(t, sink.Flushes(), 1)
}

func TestGeneratorSourceInitDefaults(t *testing.T) {
	src := &GeneratorSource{}
	require.NoError(t, src.Init(SourceConfig{Key: "gen", Name: "generator"}))
	assert.Equal(t, 20, src.count)
	assert.Equal(t, 1.0, src.step)

	require.NoError(t, src.Init(SourceConfig{
		Key:    "gen",
		Config: map[string]string{"count": "7", "step": "0.25"},
	}))
	assert.Equal(t, 7, src.count)
	assert.Equal(t, 0.25, src.step)

	err := src.Init(SourceConfig{Config: map[string]string{"count": "x"}})
	require.Error(t, err)
}
