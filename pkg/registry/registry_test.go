package registry

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/cfoust/snake/pkg/server"

	"github.com/go-redis/redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	sync.Mutex
	values map[string][]byte
	ttls   map[string]time.Duration
	sets   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		values: make(map[string][]byte),
		ttls:   make(map[string]time.Duration),
	}
}

func (m *memoryStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.Lock()
	defer m.Unlock()
	m.values[key] = value.([]byte)
	m.ttls[key] = expiration
	m.sets++
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.Lock()
	defer m.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			delete(m.values, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (m *memoryStore) Get(key string) ([]byte, bool) {
	m.Lock()
	defer m.Unlock()
	value, ok := m.values[key]
	return value, ok
}

func (m *memoryStore) Sets() int {
	m.Lock()
	defer m.Unlock()
	return m.sets
}

type fixedStatus server.Status

func (f fixedStatus) Status() server.Status {
	return server.Status(f)
}

func testSettings() Settings {
	return Settings{
		Enabled:    true,
		Key:        "snake:servers",
		TTLSeconds: 30,
	}
}

func TestAnnounce(t *testing.T) {
	store := newMemoryStore()
	status := fixedStatus{Description: "test", Players: []string{"alice"}, Width: 40}
	announcer := NewWithStore(testSettings(), store, status, "127.0.0.1:42069", "")

	require.NoError(t, announcer.Announce(context.Background()))

	data, ok := store.Get(announcer.Key())
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, store.ttls[announcer.Key()])

	var info Info
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, "127.0.0.1:42069", info.Address)
	assert.Equal(t, []string{"alice"}, info.Status.Players)
	assert.Contains(t, announcer.Key(), "snake:servers:")

	require.NoError(t, announcer.Withdraw(context.Background()))
	_, ok = store.Get(announcer.Key())
	assert.False(t, ok)
}

func TestPollWithdrawsOnExit(t *testing.T) {
	store := newMemoryStore()
	settings := testSettings()
	settings.TTLSeconds = 0
	announcer := NewWithStore(settings, store, fixedStatus{}, "addr", "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		announcer.Poll(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return store.Sets() > 0
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	_, ok := store.Get(announcer.Key())
	assert.False(t, ok)
}
