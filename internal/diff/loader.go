package diff

import (
	"context"
	"errors"
	"fmt"
)

type LoadState uint8

const (
	StateMissing LoadState = iota
	StateLoading
	StateLoaded
	StateFailed
)

// Key identifies one lazily loaded piece of content. An empty Path stands for
// the file summary of the change.
type Key struct {
	Change     string
	Path       string
	Generation uint64
}

type Entry struct {
	Files []FileChange
	Diff  *FileDiff
	Err   error
}

type LoadError struct {
	Key Key
	Err error
}

func (e *LoadError) Error() string {
	if e.Key.Path == "" {
		return fmt.Sprintf("load files of %s: %v", e.Key.Change, e.Err)
	}
	return fmt.Sprintf("load diff of %s in %s: %v", e.Key.Path, e.Key.Change, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Ticket is handed to the background task that performs a load. The task must
// report back with the same Key and Token.
type Ticket struct {
	Key   Key
	Token uint64
	Ctx   context.Context
}

type task struct {
	token  uint64
	cancel context.CancelFunc
}

// Loader tracks in-flight loads and caches their results for the current
// snapshot generation. It is owned by the interaction loop and is not safe
// for concurrent use.
type Loader struct {
	generation uint64
	nextToken  uint64
	inflight   map[Key]task
	cache      map[Key]Entry
}

func NewLoader() *Loader {
	return &Loader{
		inflight: make(map[Key]task),
		cache:    make(map[Key]Entry),
	}
}

func (l *Loader) Generation() uint64 {
	return l.generation
}

func (l *Loader) key(change, path string) Key {
	return Key{Change: change, Path: path, Generation: l.generation}
}

// Begin registers a load for (change, path). It returns false when the key is
// already cached or in flight.
func (l *Loader) Begin(parent context.Context, change, path string) (Ticket, bool) {
	key := l.key(change, path)
	if _, ok := l.inflight[key]; ok {
		return Ticket{}, false
	}
	if _, ok := l.cache[key]; ok {
		return Ticket{}, false
	}
	ctx, cancel := context.WithCancel(parent)
	l.nextToken++
	l.inflight[key] = task{token: l.nextToken, cancel: cancel}
	return Ticket{Key: key, Token: l.nextToken, Ctx: ctx}, true
}

// Cancel stops the in-flight load for (change, path) and forgets a failed
// result so that the next expansion retries it.
func (l *Loader) Cancel(change, path string) bool {
	key := l.key(change, path)
	if e, ok := l.cache[key]; ok && e.Err != nil {
		delete(l.cache, key)
	}
	t, ok := l.inflight[key]
	if !ok {
		return false
	}
	t.cancel()
	delete(l.inflight, key)
	return true
}

// Retain cancels every in-flight load for which keep returns false.
func (l *Loader) Retain(keep func(change, path string) bool) []Key {
	var cancelled []Key
	for key := range l.inflight {
		if keep(key.Change, key.Path) {
			continue
		}
		l.Cancel(key.Change, key.Path)
		cancelled = append(cancelled, key)
	}
	return cancelled
}

// Complete stores the result of a finished load. Results from cancelled,
// superseded or previous-generation tasks are discarded.
func (l *Loader) Complete(key Key, token uint64, entry Entry) bool {
	t, ok := l.inflight[key]
	if !ok || t.token != token {
		return false
	}
	t.cancel()
	delete(l.inflight, key)
	if key.Generation != l.generation {
		return false
	}
	if errors.Is(entry.Err, context.Canceled) {
		return false
	}
	if entry.Err != nil {
		var loadErr *LoadError
		if !errors.As(entry.Err, &loadErr) {
			entry.Err = &LoadError{Key: key, Err: entry.Err}
		}
	}
	l.cache[key] = entry
	return true
}

// Reset evicts every cached entry and cancels every in-flight load. Keys of
// the new generation never match results produced for older ones.
func (l *Loader) Reset(generation uint64) {
	for key, t := range l.inflight {
		t.cancel()
		delete(l.inflight, key)
	}
	clear(l.cache)
	l.generation = generation
}

func (l *Loader) Lookup(change, path string) (Entry, LoadState) {
	key := l.key(change, path)
	if _, ok := l.inflight[key]; ok {
		return Entry{}, StateLoading
	}
	e, ok := l.cache[key]
	if !ok {
		return Entry{}, StateMissing
	}
	if e.Err != nil {
		return e, StateFailed
	}
	return e, StateLoaded
}

func (l *Loader) InFlight() int {
	return len(l.inflight)
}

func (l *Loader) Files(change string) ([]FileChange, LoadState, error) {
	e, st := l.Lookup(change, "")
	return e.Files, st, e.Err
}

func (l *Loader) Diff(change, path string) (*FileDiff, LoadState, error) {
	e, st := l.Lookup(change, path)
	return e.Diff, st, e.Err
}
