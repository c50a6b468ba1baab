package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPhrase = "Welcome to your practice session. Let's get started."

func TestAudioCacheRoundTrip(t *testing.T) {
	cache := NewAudioCache(t.TempDir())
	ctx := context.Background()

	_, found := cache.Get(ctx, testPhrase, "voice-a")
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, testPhrase, "voice-a", []byte("mp3-bytes")))

	data, found := cache.Get(ctx, testPhrase, "voice-a")
	assert.True(t, found)
	assert.Equal(t, []byte("mp3-bytes"), data)

	// Different voice is a different cache entry.
	_, found = cache.Get(ctx, testPhrase, "voice-b")
	assert.False(t, found)
}

func TestAudioCacheSkipsUncommonPhrases(t *testing.T) {
	cache := NewAudioCache(t.TempDir())
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "tell me about goroutine leaks", "voice-a", []byte("x")))

	_, found := cache.Get(ctx, "tell me about goroutine leaks", "voice-a")
	assert.False(t, found, "non-common phrases must not be cached")

	count, _, err := cache.GetCacheStats()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAudioCacheGetOrGenerate(t *testing.T) {
	cache := NewAudioCache(t.TempDir())
	ctx := context.Background()

	calls := 0
	generator := func() (io.ReadCloser, error) {
		calls++
		return io.NopCloser(strings.NewReader("generated")), nil
	}

	data, err := cache.GetOrGenerate(ctx, testPhrase, "voice-a", generator)
	require.NoError(t, err)
	assert.Equal(t, "generated", string(data))
	assert.Equal(t, 1, calls)

	// Second call hits the cache.
	data, err = cache.GetOrGenerate(ctx, testPhrase, "voice-a", generator)
	require.NoError(t, err)
	assert.Equal(t, "generated", string(data))
	assert.Equal(t, 1, calls)
}

func TestAudioCacheGetOrGenerateError(t *testing.T) {
	cache := NewAudioCache(t.TempDir())

	_, err := cache.GetOrGenerate(context.Background(), testPhrase, "voice-a", func() (io.ReadCloser, error) {
		return nil, errors.New("synthesis down")
	})
	assert.Error(t, err)
}
