package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// memRedis keeps lock keys in memory and evaluates the release script
// natively.
type memRedis struct {
	mu     sync.Mutex
	values map[string]any
	setErr error
}

func newMemRedis() *memRedis {
	return &memRedis{values: map[string]any{}}
}

func (m *memRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if m.setErr != nil {
		return redis.NewBoolResult(false, m.setErr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.values[key]; held {
		return redis.NewBoolResult(false, nil)
	}
	m.values[key] = value
	return redis.NewBoolResult(true, nil)
}

func (m *memRedis) release(keys []string, args []any) *redis.Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(keys) == 1 && len(args) == 1 && m.values[keys[0]] == args[0] {
		delete(m.values, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func (m *memRedis) Eval(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return m.release(keys, args)
}

func (m *memRedis) EvalSha(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return m.release(keys, args)
}

func (m *memRedis) EvalRO(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return m.release(keys, args)
}

func (m *memRedis) EvalShaRO(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	return m.release(keys, args)
}

func (m *memRedis) ScriptExists(_ context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (m *memRedis) ScriptLoad(_ context.Context, _ string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func (m *memRedis) get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func TestStoreLock_LockAndRelease(t *testing.T) {
	mem := newMemRedis()
	l := newStoreLock(mem, "questd:document", time.Minute, time.Second, zerolog.Nop())

	unlock, err := l.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, held := mem.get("lock:questd:document"); !held {
		t.Fatalf("lock key not set")
	}
	unlock()
	if _, held := mem.get("lock:questd:document"); held {
		t.Fatalf("lock key not released")
	}
}

func TestStoreLock_TimesOutWhileHeld(t *testing.T) {
	mem := newMemRedis()
	holder := newStoreLock(mem, "doc", time.Minute, time.Second, zerolog.Nop())
	unlock, err := holder.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer unlock()

	waiter := newStoreLock(mem, "doc", time.Minute, 120*time.Millisecond, zerolog.Nop())
	if _, err := waiter.Lock(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestStoreLock_WaiterAcquiresAfterRelease(t *testing.T) {
	mem := newMemRedis()
	l := newStoreLock(mem, "doc", time.Minute, 2*time.Second, zerolog.Nop())
	unlock, err := l.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	acquired := make(chan error, 1)
	go func() {
		unlockWaiter, err := l.Lock(context.Background())
		if err == nil {
			unlockWaiter()
		}
		acquired <- err
	}()

	time.Sleep(100 * time.Millisecond)
	unlock()
	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("waiter failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("waiter never acquired the lock")
	}
}

func TestStoreLock_StaleUnlockKeepsForeignHolder(t *testing.T) {
	mem := newMemRedis()
	l := newStoreLock(mem, "doc", time.Minute, time.Second, zerolog.Nop())
	unlock, err := l.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	// The key expired and another process took it.
	mem.mu.Lock()
	mem.values["lock:doc"] = "other-token"
	mem.mu.Unlock()

	unlock()
	if v, _ := mem.get("lock:doc"); v != "other-token" {
		t.Fatalf("released a lock held by someone else: %v", v)
	}
}

func TestStoreLock_ClientError(t *testing.T) {
	mem := newMemRedis()
	mem.setErr = errors.New("connection refused")
	l := newStoreLock(mem, "doc", time.Minute, time.Second, zerolog.Nop())

	if _, err := l.Lock(context.Background()); !errors.Is(err, mem.setErr) {
		t.Fatalf("expected client error, got %v", err)
	}
}
