package rate

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T) (*miniredis.Miniredis, *Limiter) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, New(rdb, Config{MaxLoginAttempts: 3, LockDuration: 10 * time.Minute})
}

func TestLimiterLocksAfterMaxAttempts(t *testing.T) {
	_, l := newLimiterTest(t)
	ctx := context.Background()

	for i := 1; i < 3; i++ {
		if err := l.IncrementLogin(ctx, "admin"); err != nil {
			t.Fatalf("attempt %d: unexpected error %v", i, err)
		}
		if err := l.CheckLogin(ctx, "admin"); err != nil {
			t.Fatalf("attempt %d: should not be locked yet: %v", i, err)
		}
	}

	if err := l.IncrementLogin(ctx, "admin"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on last attempt, got %v", err)
	}
	if err := l.CheckLogin(ctx, "ADMIN"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected lock to be case-insensitive, got %v", err)
	}
}

func TestLimiterWindowExpires(t *testing.T) {
	mr, l := newLimiterTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = l.IncrementLogin(ctx, "admin")
	}
	if ttl := mr.TTL("pwd_err_cnt:admin"); ttl != 10*time.Minute {
		t.Fatalf("expected 10m lock, got %v", ttl)
	}

	mr.FastForward(11 * time.Minute)
	if err := l.CheckLogin(ctx, "admin"); err != nil {
		t.Fatalf("lock should expire: %v", err)
	}
}

func TestLimiterReset(t *testing.T) {
	mr, l := newLimiterTest(t)
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "admin")
	if err := l.ResetLogin(ctx, "admin"); err != nil {
		t.Fatalf("ResetLogin failed: %v", err)
	}
	if mr.Exists("pwd_err_cnt:admin") {
		t.Fatal("counter should be deleted")
	}
}

func TestLimiterRedisUnavailable(t *testing.T) {
	mr, l := newLimiterTest(t)
	mr.Close()

	if err := l.CheckLogin(context.Background(), "admin"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}

func TestLimiterFirstFailureSetsTTL(t *testing.T) {
	mr, l := newLimiterTest(t)
	ctx := context.Background()

	if err := l.IncrementLogin(ctx, "admin"); err != nil {
		t.Fatalf("IncrementLogin failed: %v", err)
	}
	if ttl := mr.TTL("pwd_err_cnt:admin"); ttl != 10*time.Minute {
		t.Fatalf("expected counter to expire with the lock window, got ttl %v", ttl)
	}
	if got, _ := mr.Get("pwd_err_cnt:admin"); got != "1" {
		t.Fatalf("expected count 1, got %q", got)
	}

	// later failures keep the window from the first one
	mr.FastForward(4 * time.Minute)
	_ = l.IncrementLogin(ctx, "admin")
	if ttl := mr.TTL("pwd_err_cnt:admin"); ttl != 6*time.Minute {
		t.Fatalf("expected remaining ttl 6m, got %v", ttl)
	}
}

func TestLimiterBoundsUnresponsiveRedis(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	conns := make(chan net.Conn, 8)
	t.Cleanup(func() {
		_ = ln.Close()
		for {
			select {
			case c := <-conns:
				_ = c.Close()
			default:
				return
			}
		}
	})
	go func() {
		// accept and never answer
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			select {
			case conns <- conn:
			default:
				_ = conn.Close()
			}
		}
	}()

	rdb := redis.NewClient(&redis.Options{Addr: ln.Addr().String(), ContextTimeoutEnabled: true, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	l := New(rdb, Config{MaxLoginAttempts: 3, LockDuration: time.Minute, OpTimeout: 50 * time.Millisecond})

	start := time.Now()
	err = l.IncrementLogin(context.Background(), "admin")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("increment took %v, want it bounded by the op timeout", elapsed)
	}
}
