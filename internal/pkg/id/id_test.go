package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsSortable(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = New()
	}
	assert.True(t, sort.StringsAreSorted(ids))
	assert.Len(t, ids[0], 26)
}

func TestAt_RoundTripsTimestamp(t *testing.T) {
	stamp := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	got, err := Time(At(stamp))
	require.NoError(t, err)
	assert.True(t, got.Equal(stamp))

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}
