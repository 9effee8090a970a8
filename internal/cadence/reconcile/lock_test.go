package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLockClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRunLockExcludesSecondHolder(t *testing.T) {
	_, client := newLockClient(t)
	ctx := context.Background()

	first := NewRunLock(client, time.Minute)
	second := NewRunLock(client, time.Minute)

	ok, err := first.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire = %v, %v; want true", ok, err)
	}

	ok, err = second.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second holder acquired a held lock")
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}

	ok, err = second.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire after release = %v, %v; want true", ok, err)
	}
}

func TestRunLockReleaseOnlyReleasesOwnLease(t *testing.T) {
	mr, client := newLockClient(t)
	ctx := context.Background()

	first := NewRunLock(client, 50*time.Millisecond)
	if ok, _ := first.Acquire(ctx); !ok {
		t.Fatal("acquire failed")
	}

	// Lease expires; another run takes over.
	mr.FastForward(time.Second)
	second := NewRunLock(client, time.Minute)
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("takeover acquire failed")
	}

	// The stale holder's release must not free the new lease.
	if err := first.Release(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	third := NewRunLock(client, time.Minute)
	if ok, _ := third.Acquire(ctx); ok {
		t.Fatal("lock was freed by a stale holder")
	}
}
