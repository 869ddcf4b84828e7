package jj

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/thiagokokada/jjk-go/internal/jj/backend"
)

// Minimum supported jj version. Keep this aligned with the template keywords
// and subcommands we use (e.g. "bookmark set" and "root-file:" filesets).
var minJJVersion = jjVersion{major: 0, minor: 25, patch: 0}

type jjVersion struct {
	major int
	minor int
	patch int
}

func MinVersion() string {
	return minJJVersion.String()
}

func (v jjVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

func (v jjVersion) less(other jjVersion) bool {
	if v.major != other.major {
		return v.major < other.major
	}
	if v.minor != other.minor {
		return v.minor < other.minor
	}
	return v.patch < other.patch
}

func parseVersionOutput(out string) (jjVersion, bool) {
	s := strings.TrimSpace(out)
	// Common formats:
	// - "jj 0.25.0"
	// - "jj 0.31.0-3d7a0e8c1f2b..."
	// - "jj 0.28.2-nightly"
	s = strings.TrimSpace(strings.TrimPrefix(s, "jj"))
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return jjVersion{}, false
	}
	s = s[start:]
	end := strings.IndexFunc(s, func(r rune) bool { return (r < '0' || r > '9') && r != '.' })
	if end >= 0 {
		s = s[:end]
	}
	parts := strings.Split(strings.Trim(s, "."), ".")
	if len(parts) < 2 {
		return jjVersion{}, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return jjVersion{}, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return jjVersion{}, false
	}
	patch := 0
	if len(parts) >= 3 {
		if p, err := strconv.Atoi(parts[2]); err == nil {
			patch = p
		}
	}
	return jjVersion{major: major, minor: minor, patch: patch}, true
}

func validateVersionOutput(out string) error {
	got, ok := parseVersionOutput(out)
	if !ok {
		return fmt.Errorf("unable to parse jj version output: %q", strings.TrimSpace(out))
	}
	if got.less(minJJVersion) {
		return fmt.Errorf("jj %s is too old; jjk-go requires jj >= %s", got, minJJVersion)
	}
	return nil
}

var (
	versionOnce sync.Once
	versionOut  string
	versionErr  error
)

// EnsureVersion runs "jj --version" once per process and fails when the
// binary is missing or older than MinVersion.
func EnsureVersion(ctx context.Context, gw backend.Gateway) (string, error) {
	versionOnce.Do(func() {
		res, err := gw.Run(ctx, "--version")
		if err != nil {
			versionErr = fmt.Errorf("jj --version: %w", err)
			return
		}
		versionOut = strings.TrimSpace(res.Stdout)
		if !res.Success() {
			versionErr = &ExitError{Args: []string{"--version"}, ExitCode: res.ExitCode, Stderr: res.Stderr}
			return
		}
		versionErr = validateVersionOutput(versionOut)
	})
	return versionOut, versionErr
}
