package diff

import (
	"context"
	"errors"
	"testing"
)

func TestLoaderCancelledLoadNeverCaches(t *testing.T) {
	t.Parallel()

	l := NewLoader()
	l.Reset(7)
	ticket, ok := l.Begin(context.Background(), "qpvuntsm", "main.go")
	if !ok {
		t.Fatal("expected load to start")
	}
	if _, st := l.Lookup("qpvuntsm", "main.go"); st != StateLoading {
		t.Fatalf("state = %v, want loading", st)
	}

	if !l.Cancel("qpvuntsm", "main.go") {
		t.Fatal("expected in-flight load to be cancelled")
	}
	if ticket.Ctx.Err() == nil {
		t.Fatal("expected ticket context to be cancelled")
	}

	stored := l.Complete(ticket.Key, ticket.Token, Entry{Diff: &FileDiff{Path: "main.go"}})
	if stored {
		t.Fatal("cancelled load must not be stored")
	}
	if _, st := l.Lookup("qpvuntsm", "main.go"); st != StateMissing {
		t.Fatalf("state = %v, want missing", st)
	}
}

func TestLoaderStaleGenerationDiscarded(t *testing.T) {
	t.Parallel()

	l := NewLoader()
	l.Reset(1)
	ticket, ok := l.Begin(context.Background(), "a", "")
	if !ok {
		t.Fatal("expected load to start")
	}
	l.Reset(2)
	if ticket.Ctx.Err() == nil {
		t.Fatal("reset must cancel in-flight loads")
	}
	if l.Complete(ticket.Key, ticket.Token, Entry{Files: []FileChange{{Path: "x"}}}) {
		t.Fatal("result from previous generation must be discarded")
	}
	if _, st := l.Lookup("a", ""); st != StateMissing {
		t.Fatalf("state = %v, want missing", st)
	}
}

func TestLoaderSupersededTokenDiscarded(t *testing.T) {
	t.Parallel()

	l := NewLoader()
	first, _ := l.Begin(context.Background(), "a", "f")
	l.Cancel("a", "f")
	second, ok := l.Begin(context.Background(), "a", "f")
	if !ok {
		t.Fatal("expected restart after cancel")
	}
	if l.Complete(first.Key, first.Token, Entry{Diff: &FileDiff{Path: "old"}}) {
		t.Fatal("superseded token must be discarded")
	}
	if !l.Complete(second.Key, second.Token, Entry{Diff: &FileDiff{Path: "new"}}) {
		t.Fatal("current token must be stored")
	}
	got, st, err := l.Diff("a", "f")
	if st != StateLoaded || err != nil || got.Path != "new" {
		t.Fatalf("Diff() = %+v, %v, %v", got, st, err)
	}
}

func TestLoaderBeginSkipsCachedAndInFlight(t *testing.T) {
	t.Parallel()

	l := NewLoader()
	ticket, ok := l.Begin(context.Background(), "a", "")
	if !ok {
		t.Fatal("expected load to start")
	}
	if _, ok := l.Begin(context.Background(), "a", ""); ok {
		t.Fatal("duplicate in-flight load must not start")
	}
	l.Complete(ticket.Key, ticket.Token, Entry{Files: []FileChange{{Path: "x"}}})
	if _, ok := l.Begin(context.Background(), "a", ""); ok {
		t.Fatal("cached key must not start a load")
	}
	files, st, _ := l.Files("a")
	if st != StateLoaded || len(files) != 1 {
		t.Fatalf("Files() = %v, %v", files, st)
	}
}

func TestLoaderFailureWrappedAndRetriedAfterCancel(t *testing.T) {
	t.Parallel()

	l := NewLoader()
	ticket, _ := l.Begin(context.Background(), "a", "f")
	boom := errors.New("boom")
	if !l.Complete(ticket.Key, ticket.Token, Entry{Err: boom}) {
		t.Fatal("failure must be stored")
	}
	_, st, err := l.Diff("a", "f")
	if st != StateFailed {
		t.Fatalf("state = %v, want failed", st)
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || !errors.Is(err, boom) {
		t.Fatalf("expected LoadError wrapping boom, got %v", err)
	}
	if _, ok := l.Begin(context.Background(), "a", "f"); ok {
		t.Fatal("failed load must not be retried automatically")
	}
	l.Cancel("a", "f")
	if _, ok := l.Begin(context.Background(), "a", "f"); !ok {
		t.Fatal("expected retry after the failure was forgotten")
	}
}

func TestLoaderRetain(t *testing.T) {
	t.Parallel()

	l := NewLoader()
	keep, _ := l.Begin(context.Background(), "a", "")
	drop, _ := l.Begin(context.Background(), "b", "")
	cancelled := l.Retain(func(change, _ string) bool { return change == "a" })
	if len(cancelled) != 1 || cancelled[0].Change != "b" {
		t.Fatalf("cancelled = %+v", cancelled)
	}
	if keep.Ctx.Err() != nil {
		t.Fatal("kept load must keep running")
	}
	if drop.Ctx.Err() == nil {
		t.Fatal("dropped load must be cancelled")
	}
	if l.InFlight() != 1 {
		t.Fatalf("InFlight() = %d, want 1", l.InFlight())
	}
}
