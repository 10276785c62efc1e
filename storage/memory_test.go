package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "field:1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "field:1", []byte(`{"a":1}`)))
	require.NoError(t, m.Set(ctx, "field:2", []byte(`{"a":2}`)))
	require.NoError(t, m.Set(ctx, "zones:1", []byte(`[]`)))

	got, err := m.Get(ctx, "field:1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)

	// Reads are copies: mutating the returned slice never corrupts the
	// stored value.
	got[0] = 'x'
	fresh, err := m.Get(ctx, "field:1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), fresh)

	fields, err := m.List(ctx, "field:")
	require.NoError(t, err)
	assert.Len(t, fields, 2)

	require.NoError(t, m.Delete(ctx, "field:1"))
	_, err = m.Get(ctx, "field:1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, m.Delete(ctx, "field:1"))
}
