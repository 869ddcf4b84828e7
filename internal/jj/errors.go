package jj

import (
	"fmt"
	"strings"
)

// ExitError reports a jj invocation that ran and exited with a non-zero
// status. Stderr holds what jj printed, which is usually the useful part.
type ExitError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("jj %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		return msg + ": " + stderr
	}
	return msg
}

// Message is the text shown to the user: jj's own stderr when present.
func (e *ExitError) Message() string {
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		return stderr
	}
	return e.Error()
}
