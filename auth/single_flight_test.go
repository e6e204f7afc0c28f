package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSingleFlightGuard_BeginAndEnd(t *testing.T) {
	guard := NewSingleFlightGuard()
	calls := 0
	handler := AuthHandlerFunc(func(context.Context) bool {
		calls++
		return true
	})

	if !guard.BeginAuthorize(context.Background(), handler) {
		t.Fatalf("expected begin to succeed")
	}
	if !guard.IsAuthorizeInProgress() {
		t.Fatalf("expected flight in progress")
	}
	if _, ok := guard.AuthHandler(); !ok {
		t.Fatalf("expected installed handler")
	}

	second := AuthHandlerFunc(func(context.Context) bool {
		t.Fatalf("second handler must not run")
		return true
	})
	if guard.BeginAuthorize(context.Background(), second) {
		t.Fatalf("expected second begin to fail")
	}
	if calls != 1 {
		t.Fatalf("expected one authorize call, got %d", calls)
	}

	guard.EndAuthorize()
	guard.EndAuthorize()
	if guard.IsAuthorizeInProgress() {
		t.Fatalf("expected idle guard")
	}
	if _, ok := guard.AuthHandler(); ok {
		t.Fatalf("expected no handler after end")
	}
}

func TestSingleFlightGuard_HandlerFailureResets(t *testing.T) {
	var guard SingleFlightGuard
	if guard.BeginAuthorize(context.Background(), AuthHandlerFunc(func(context.Context) bool { return false })) {
		t.Fatalf("expected failing handler to report false")
	}
	if guard.IsAuthorizeInProgress() {
		t.Fatalf("expected guard reset after failing handler")
	}
	if !guard.BeginAuthorize(context.Background(), AuthHandlerFunc(func(context.Context) bool { return true })) {
		t.Fatalf("expected guard to accept a new flight")
	}
}

func TestSingleFlightGuard_RejectsNilHandler(t *testing.T) {
	guard := NewSingleFlightGuard()
	if guard.BeginAuthorize(context.Background(), nil) {
		t.Fatalf("expected nil handler to be rejected")
	}
	if guard.IsAuthorizeInProgress() {
		t.Fatalf("expected idle guard")
	}
}

func TestSingleFlightGuard_ConcurrentBeginHasOneWinner(t *testing.T) {
	guard := NewSingleFlightGuard()
	var (
		wins    atomic.Int32
		invoked atomic.Int32
		start   = make(chan struct{})
		wg      sync.WaitGroup
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok := guard.BeginAuthorize(context.Background(), AuthHandlerFunc(func(context.Context) bool {
				invoked.Add(1)
				return true
			}))
			if ok {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
	if invoked.Load() != 1 {
		t.Fatalf("expected exactly one handler invocation, got %d", invoked.Load())
	}
}
