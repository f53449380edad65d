package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	s := NewMemoryObjectStorage()
	ctx := context.Background()

	data := []byte("snapshot")
	require.NoError(t, s.Upload(ctx, "counts/a/snapshot.json", data, "application/json"))
	data[0] = 'X'

	stored, contentType, ok := s.Object("counts/a/snapshot.json")
	require.True(t, ok)
	assert.Equal(t, "snapshot", string(stored))
	assert.Equal(t, "application/json", contentType)

	u, _, err := s.DownloadURL(ctx, "counts/a/snapshot.json", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "memory:///counts/a/snapshot.json", u)

	_, _, err = s.DownloadURL(ctx, "missing", time.Minute)
	assert.Error(t, err)

	assert.Error(t, s.Upload(ctx, "", nil, ""))
	assert.NoError(t, s.Ping(ctx))
}
