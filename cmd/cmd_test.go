package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseArgsOnlyChangedFlagsOverride(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	opts, err := parseArgs([]string{"-r", "::@", "--nowatch", "--mode=dark"}, &out)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}
	want := map[string]any{
		"jj.revset": "::@",
		"ui.watch":  false,
		"ui.mode":   "dark",
	}
	if diff := cmp.Diff(want, opts.overrides); diff != "" {
		t.Fatalf("overrides (-want +got):\n%s", diff)
	}
	if opts.repository != "." {
		t.Fatalf("repository = %q, want .", opts.repository)
	}
}

func TestParseArgsRepository(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "flag", args: []string{"-R", "/src/proj"}, want: "/src/proj"},
		{name: "positional", args: []string{"/src/other"}, want: "/src/other"},
		{name: "flag wins", args: []string{"--repository", "/a", "/b"}, want: "/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts, err := parseArgs(tt.args, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("parseArgs() error = %v", err)
			}
			if opts.repository != tt.want {
				t.Fatalf("repository = %q, want %q", opts.repository, tt.want)
			}
		})
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	if err := run(context.Background(), []string{"--version"}, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "jjk-go ") {
		t.Fatalf("version output = %q", out.String())
	}
}

func TestRunUnknownFlag(t *testing.T) {
	t.Parallel()
	if err := run(context.Background(), []string{"--bogus"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected an error for an unknown flag")
	}
}
