package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/thiagokokada/jjk-go/internal/buildinfo"
	"github.com/thiagokokada/jjk-go/internal/config"
	"github.com/thiagokokada/jjk-go/internal/tui"
)

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout)
}

type options struct {
	repository  string
	configPath  string
	showVersion bool
	overrides   map[string]any
}

func parseArgs(args []string, out io.Writer) (*options, error) {
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(out)
	opts := &options{overrides: make(map[string]any)}
	fs.StringVarP(&opts.repository, "repository", "R", ".", "path to the jj workspace")
	revset := fs.StringP("revisions", "r", "", "revset to display (default: jj's revsets.log)")
	fs.StringVar(&opts.configPath, "config", "", "configuration file (default: "+defaultConfigPath()+")")
	mode := fs.String("mode", string(config.ModeAuto), "color mode: auto, light, or dark")
	noWatch := fs.Bool("nowatch", false, "disable automatic reload when the repository changes")
	noSyntax := fs.Bool("nosyntax", false, "disable syntax highlighting in diffs")
	noMouse := fs.Bool("nomouse", false, "disable mouse support")
	ignoreImmutable := fs.Bool("ignore-immutable", false, "pass --ignore-immutable to mutating commands")
	logFile := fs.String("log-file", "", "log destination (default: "+defaultLogPath()+")")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	fs.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if rest := fs.Args(); len(rest) > 0 && !fs.Changed("repository") {
		opts.repository = rest[len(rest)-1]
	}

	// Only flags given on the command line override the configuration.
	set := func(name, key string, value any) {
		if fs.Changed(name) {
			opts.overrides[key] = value
		}
	}
	set("revisions", "jj.revset", *revset)
	set("mode", "ui.mode", *mode)
	set("nowatch", "ui.watch", !*noWatch)
	set("nosyntax", "ui.syntax", !*noSyntax)
	set("nomouse", "ui.mouse", !*noMouse)
	set("ignore-immutable", "jj.ignore_immutable", *ignoreImmutable)
	set("log-file", "log.file", *logFile)
	set("verbose", "log.verbose", *verbose)
	return opts, nil
}

func defaultConfigPath() string {
	p, err := config.DefaultPath()
	if err != nil {
		return "none"
	}
	return p
}

func defaultLogPath() string {
	p, err := config.DefaultLogFile()
	if err != nil {
		return "stderr"
	}
	return p
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseArgs(args, out)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.showVersion {
		fmt.Fprintln(out, buildinfo.String(config.AppName))
		return nil
	}
	cfg, err := config.Load(opts.configPath, opts.overrides)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.Debug("configuration loaded", slog.String("version", buildinfo.VersionWithTags()))
	return tui.Run(ctx, tui.RunConfig{RepoPath: opts.repository, Config: cfg})
}

// setupLogging points the default slog logger at the log file, since the
// terminal belongs to the interface.
func setupLogging(cfg config.LogConfig) (func(), error) {
	path := cfg.File
	if path == "" {
		p, err := config.DefaultLogFile()
		if err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return func() { _ = f.Close() }, nil
}
