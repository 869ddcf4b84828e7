package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/thiagokokada/jjk-go/internal/config"
	"github.com/thiagokokada/jjk-go/internal/jj"
)

type RunConfig struct {
	RepoPath string
	Config   *config.Config
}

// Run opens the repository at cfg.RepoPath and drives the interface until the
// user quits.
func Run(ctx context.Context, cfg RunConfig) error {
	if cfg.RepoPath == "" {
		cfg.RepoPath = "."
	}
	if cfg.Config == nil {
		cfg.Config = config.Default()
	}
	jjCfg := cfg.Config.JJ
	svc, err := jj.Open(ctx, cfg.RepoPath, jj.Options{
		Binary:  jjCfg.Binary,
		Revset:  jjCfg.Revset,
		Timeout: jjCfg.Timeout,
	})
	if err != nil {
		return err
	}
	root := svc.Root()
	ui := cfg.Config.UI
	model := New(svc, Options{
		Bookmark:        jjCfg.Bookmark,
		IgnoreImmutable: jjCfg.IgnoreImmutable,
		Keys:            cfg.Config.Keys,
		Theme:           ThemePreferenceFromMode(ui.Mode),
		Syntax:          ui.Syntax,
		Mouse:           ui.Mouse,
		OpHeads:         func() ([]string, error) { return jj.OpHeads(root) },
		Remotes:         func() ([]jj.Remote, error) { return jj.Remotes(root) },
	})
	defer model.shutdown()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if ui.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(model, opts...)

	if ui.Watch {
		if w := startRepoWatcher(root, p.Send); w != nil {
			defer func() {
				if err := w.Close(); err != nil {
					slog.Error("failed to stop watcher", slog.Any("error", err))
				}
			}()
		}
	}

	slog.Info("starting", slog.String("root", root), slog.String("revset", jjCfg.Revset))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}

// startRepoWatcher returns nil when the operation heads cannot be watched;
// manual refresh keeps working without it.
func startRepoWatcher(root string, send func(tea.Msg)) *watcher {
	dir, err := jj.OpHeadsDir(root)
	if err != nil {
		slog.Warn("auto reload disabled", slog.Any("error", err))
		return nil
	}
	w, err := startWatcher(dir, send)
	if err != nil {
		slog.Warn("auto reload disabled", slog.Any("error", err))
		return nil
	}
	return w
}
