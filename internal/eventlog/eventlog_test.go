package eventlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndQuery(t *testing.T) {
	l, err := Open(0)
	require.NoError(t, err)
	defer l.Close()

	l.Tick()
	l.Record("ato_timeout", 1000, map[string]any{"foo": "bar"})
	l.Record("over_temp", 1001, map[string]any{"sump": 82.1})

	all, err := l.Query("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "over_temp", all[0].Tag) // newest first

	filtered, err := l.Query("ato_timeout", 0)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, uint64(1000), filtered[0].AtMs)
}

func TestTrimEnforcesCapacity(t *testing.T) {
	l, err := Open(2)
	require.NoError(t, err)
	defer l.Close()

	for i := 0; i < 5; i++ {
		l.Record("tag", uint64(i), nil)
	}

	all, err := l.Query("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, uint64(4), all[0].AtMs)
	assert.Equal(t, uint64(3), all[1].AtMs)
}
