package jj

import (
	"context"
	"errors"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"github.com/thiagokokada/jjk-go/internal/jj/backend"
)

type fakeGateway struct {
	dir string

	runFunc func(args []string) (backend.Result, error)

	mu    sync.Mutex
	calls [][]string
}

func (f *fakeGateway) Dir() string { return f.dir }

func (f *fakeGateway) Run(ctx context.Context, args ...string) (backend.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, slices.Clone(args))
	f.mu.Unlock()
	if f.runFunc != nil {
		return f.runFunc(args)
	}
	return backend.Result{}, errors.New("unexpected Run call")
}

func (f *fakeGateway) Command(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "jj", args...)
}

func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, strings.Join(c, " "))
	}
	return out
}
