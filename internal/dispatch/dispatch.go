// Package dispatch tracks the single mutating jj command allowed in flight
// and the refresh that must follow it.
package dispatch

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/thiagokokada/jjk-go/internal/jj"
)

type State uint8

const (
	Idle State = iota
	Dispatching
	RefreshPending
	Failed
)

func (s State) String() string {
	switch s {
	case Dispatching:
		return "dispatching"
	case RefreshPending:
		return "refresh-pending"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// ErrBusy rejects a dispatch while another command or its refresh is
// outstanding. Requests are never queued.
var ErrBusy = errors.New("another command is still running")

// Pending is the command currently owning the right to trigger the next
// refresh.
type Pending struct {
	Token   uint64
	Op      jj.Op
	Targets []string
	Started time.Time
}

// Dispatcher is the command state machine. It is owned by the interaction
// loop and is not safe for concurrent use.
type Dispatcher struct {
	state   State
	next    uint64
	pending Pending
	err     error
	now     func() time.Time
}

func New() *Dispatcher {
	return &Dispatcher{now: time.Now}
}

func (d *Dispatcher) State() State {
	return d.state
}

// Busy reports whether a command or its refresh is outstanding.
func (d *Dispatcher) Busy() bool {
	return d.state == Dispatching || d.state == RefreshPending
}

func (d *Dispatcher) Pending() (Pending, bool) {
	if !d.Busy() {
		return Pending{}, false
	}
	return d.pending, true
}

// Err is the failure shown in the error banner, if any.
func (d *Dispatcher) Err() error {
	return d.err
}

func (d *Dispatcher) Begin(op jj.Op, targets ...string) (Pending, error) {
	if d.Busy() {
		return Pending{}, ErrBusy
	}
	d.next++
	d.pending = Pending{
		Token:   d.next,
		Op:      op,
		Targets: slices.Clone(targets),
		Started: d.now(),
	}
	d.state = Dispatching
	d.err = nil
	return d.pending, nil
}

// Resolve records the outcome of the command identified by token. It reports
// whether the caller must issue the refresh; results for any other token are
// ignored.
func (d *Dispatcher) Resolve(token uint64, err error) bool {
	if d.state != Dispatching || token != d.pending.Token {
		return false
	}
	if err != nil {
		d.state = Failed
		d.err = err
		return false
	}
	d.state = RefreshPending
	return true
}

// RefreshDone closes the cycle started by a successful command. A failed
// refresh leaves the dispatcher in Failed with the error shown.
func (d *Dispatcher) RefreshDone(token uint64, err error) bool {
	if d.state != RefreshPending || token != d.pending.Token {
		return false
	}
	if err != nil {
		d.state = Failed
		d.err = fmt.Errorf("refresh after %s: %w", d.pending.Op, err)
		return true
	}
	d.state = Idle
	return true
}

// Dismiss clears the error banner.
func (d *Dispatcher) Dismiss() {
	d.err = nil
	if d.state == Failed {
		d.state = Idle
	}
}
