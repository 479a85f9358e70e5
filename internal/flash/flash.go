// Package flash stores one-shot values per session, like the id of a command
// that was just created. A value is returned by at most one Take and expires after a TTL.
package flash

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Keys used by the admin panel
const (
	CommandCreatedID = "command_created_id"
	CommandEditedID  = "command_edited_id"
	TimerCreatedID   = "timer_created_id"
	TimerEditedID    = "timer_edited_id"
)

// Store holds one-shot ids keyed by session id and flash key
type Store interface {
	Put(ctx context.Context, sessionID, key string, id int64) error
	// Take returns the value and removes it. ok is false when nothing was stored or it expired.
	Take(ctx context.Context, sessionID, key string) (id int64, ok bool, err error)
	Clear(ctx context.Context, sessionID string, keys ...string) error
}

type memoryEntry struct {
	id      int64
	expires time.Time
}

// MemoryStore keeps flash values in process memory
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an in-memory store with the given TTL
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryStore) Put(_ context.Context, sessionID, key string, id int64) error {
	m.mu.Lock()
	m.entries[entryKey(sessionID, key)] = memoryEntry{id: id, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Take(_ context.Context, sessionID, key string) (int64, bool, error) {
	k := entryKey(sessionID, key)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[k]
	if !ok {
		return 0, false, nil
	}
	delete(m.entries, k)
	if m.now().After(e.expires) {
		return 0, false, nil
	}
	return e.id, true, nil
}

func (m *MemoryStore) Clear(_ context.Context, sessionID string, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.entries, entryKey(sessionID, key))
	}
	m.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many were removed
func (m *MemoryStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, k)
			n++
		}
	}
	return n
}

// ValkeyStore keeps flash values in valkey so they survive a restart of the web process
type ValkeyStore struct {
	client valkey.Client
	ttl    time.Duration
}

// NewValkeyStore returns a store backed by client. TTL is rounded to whole seconds.
func NewValkeyStore(client valkey.Client, ttl time.Duration) *ValkeyStore {
	if ttl < time.Second {
		ttl = time.Second
	}
	return &ValkeyStore{client: client, ttl: ttl}
}

func (v *ValkeyStore) Put(ctx context.Context, sessionID, key string, id int64) error {
	cmd := v.client.B().Set().Key(valkeyKey(sessionID, key)).Value(strconv.FormatInt(id, 10)).
		ExSeconds(int64(v.ttl / time.Second)).Build()
	return v.client.Do(ctx, cmd).Error()
}

func (v *ValkeyStore) Take(ctx context.Context, sessionID, key string) (int64, bool, error) {
	cmd := v.client.B().Getdel().Key(valkeyKey(sessionID, key)).Build()
	id, err := v.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

func (v *ValkeyStore) Clear(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, valkeyKey(sessionID, key))
	}
	return v.client.Do(ctx, v.client.B().Del().Key(full...).Build()).Error()
}

func entryKey(sessionID, key string) string {
	return sessionID + "\x00" + key
}

func valkeyKey(sessionID, key string) string {
	return "tyggbot:flash:" + sessionID + ":" + key
}
