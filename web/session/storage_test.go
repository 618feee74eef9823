package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProviderEvictsIdleRecords(t *testing.T) {
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	p := NewExpiringMemoryProvider(time.Hour)
	p.now = func() time.Time { return clock }

	require.NoError(t, p.Open("guest").Apply(map[string]string{KeyLoginEmail: "a@procode.in"}))
	watched := p.Open("watched")
	stop := watched.Subscribe(func() {})
	defer stop()
	assert.Equal(t, 2, p.Len())

	clock = clock.Add(30 * time.Minute)
	p.Open("fresh")
	assert.Equal(t, 3, p.Len())

	clock = clock.Add(45 * time.Minute)
	p.Open("fresh")
	assert.Equal(t, 2, p.Len(), "idle guest record must be dropped")

	_, ok := p.Open("guest").Get(KeyLoginEmail)
	assert.False(t, ok)
}

func TestMemoryProviderWithoutTTLKeepsRecords(t *testing.T) {
	clock := time.Now()
	p := NewMemoryProvider()
	p.now = func() time.Time { return clock }

	require.NoError(t, p.Open("sid").Apply(map[string]string{KeyAccessToken: "t"}))
	clock = clock.Add(365 * 24 * time.Hour)
	p.Open("other")

	token, ok := p.Open("sid").Get(KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, "t", token)
}
