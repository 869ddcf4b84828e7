package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.JJ.Binary != "jj" || cfg.JJ.Bookmark != "main" || cfg.JJ.Timeout != 2*time.Minute {
		t.Fatalf("JJ = %+v", cfg.JJ)
	}
	if cfg.UI.Mode != ModeAuto || !cfg.UI.Syntax || !cfg.UI.Watch || !cfg.UI.Mouse {
		t.Fatalf("UI = %+v", cfg.UI)
	}
	if diff := cmp.Diff(DefaultKeybindings(), cfg.Keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

// Subtests below touch the process environment and cannot run in parallel.
func TestLoadLayering(t *testing.T) {
	path := writeConfig(t, `
[jj]
binary = "/opt/jj"
revset = "::@"
timeout = "30s"
ignore_immutable = true

[ui]
mode = "dark"

[keys]
quit = ["x"]
`)

	t.Run("file", func(t *testing.T) {
		cfg, err := Load(path, nil)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.JJ.Binary != "/opt/jj" || cfg.JJ.Revset != "::@" || cfg.JJ.Timeout != 30*time.Second || !cfg.JJ.IgnoreImmutable {
			t.Fatalf("JJ = %+v", cfg.JJ)
		}
		if cfg.UI.Mode != ModeDark || !cfg.UI.Mouse {
			t.Fatalf("UI = %+v", cfg.UI)
		}
		if diff := cmp.Diff([]string{"x"}, cfg.Keys["quit"]); diff != "" {
			t.Fatalf("quit keys mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"k", "up"}, cfg.Keys["up"]); diff != "" {
			t.Fatalf("default keys lost (-want +got):\n%s", diff)
		}
	})

	t.Run("env_over_file", func(t *testing.T) {
		t.Setenv("JJK_JJ_BINARY", "/env/jj")
		t.Setenv("JJK_UI_MOUSE", "false")
		t.Setenv("JJK_JJ_IGNORE_IMMUTABLE", "false")
		t.Setenv("JJK_KEYS_HELP", "F1,?")
		cfg, err := Load(path, nil)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.JJ.Binary != "/env/jj" || cfg.UI.Mouse || cfg.JJ.IgnoreImmutable {
			t.Fatalf("cfg = %+v", cfg)
		}
		if diff := cmp.Diff([]string{"F1", "?"}, cfg.Keys["help"]); diff != "" {
			t.Fatalf("help keys mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("flags_over_env", func(t *testing.T) {
		t.Setenv("JJK_JJ_REVSET", "all()")
		cfg, err := Load(path, map[string]any{"jj.revset": "trunk()..@", "ui.mode": "light"})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.JJ.Revset != "trunk()..@" || cfg.UI.Mode != ModeLight {
			t.Fatalf("cfg = %+v", cfg)
		}
	})
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml"), nil); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "mode", content: "[ui]\nmode = \"sepia\"\n"},
		{name: "action", content: "[keys]\nteleport = [\"t\"]\n"},
		{name: "syntax", content: "[ui\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Load(writeConfig(t, tt.content), nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"JJK_JJ_BINARY":           "jj.binary",
		"JJK_JJ_IGNORE_IMMUTABLE": "jj.ignore_immutable",
		"JJK_KEYS_SET_BOOKMARK":   "keys.set_bookmark",
		"JJK_VERBOSE":             "verbose",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMergeKeybindings(t *testing.T) {
	t.Parallel()

	got := MergeKeybindings(Keybindings{"quit": {"Q"}, "help": nil})
	if diff := cmp.Diff([]string{"Q"}, got["quit"]); diff != "" {
		t.Fatalf("quit mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"?"}, got["help"]); diff != "" {
		t.Fatalf("empty override must keep default (-want +got):\n%s", diff)
	}
}
