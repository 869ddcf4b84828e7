package jj

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
)

// RepoDir returns the ".jj/repo" directory of the workspace at root. In
// secondary workspaces ".jj/repo" is a file holding the path of the main
// repository's directory.
func RepoDir(root string) (string, error) {
	dotJJ := filepath.Join(root, ".jj")
	repo := filepath.Join(dotJJ, "repo")
	info, err := os.Stat(repo)
	if err != nil {
		return "", fmt.Errorf("locate jj repository: %w", err)
	}
	if info.IsDir() {
		return repo, nil
	}
	data, err := os.ReadFile(repo)
	if err != nil {
		return "", fmt.Errorf("locate jj repository: %w", err)
	}
	target := strings.TrimSpace(string(data))
	if target == "" {
		return "", fmt.Errorf("locate jj repository: %s is empty", repo)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dotJJ, target)
	}
	return filepath.Clean(target), nil
}

// OpHeadsDir is the directory jj rewrites on every operation.
func OpHeadsDir(root string) (string, error) {
	repo, err := RepoDir(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(repo, "op_heads", "heads"), nil
}

// OpHeads returns the current operation heads, sorted. Two equal results mean
// no operation ran in between.
func OpHeads(root string) ([]string, error) {
	dir, err := OpHeadsDir(root)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read op heads: %w", err)
	}
	heads := make([]string, 0, len(entries))
	for _, e := range entries {
		heads = append(heads, e.Name())
	}
	slices.Sort(heads)
	return heads, nil
}

type Remote struct {
	Name string
	URLs []string
}

// Remotes reads the remotes of the git repository backing the workspace:
// the colocated ".git" when present, otherwise the store's git target.
func Remotes(root string) ([]Remote, error) {
	repo, err := openBackingRepo(root)
	if err != nil {
		return nil, err
	}
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}
	out := make([]Remote, 0, len(remotes))
	for _, r := range remotes {
		cfg := r.Config()
		out = append(out, Remote{Name: cfg.Name, URLs: slices.Clone(cfg.URLs)})
	}
	slices.SortFunc(out, func(a, b Remote) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// ErrNoGitBackend is returned by Remotes for workspaces not backed by git.
var ErrNoGitBackend = errors.New("workspace is not backed by a git repository")

func openBackingRepo(root string) (*gitlib.Repository, error) {
	if _, err := os.Stat(filepath.Join(root, ".git")); err == nil {
		repo, err := gitlib.PlainOpen(root)
		if err != nil {
			return nil, fmt.Errorf("open colocated git repository: %w", err)
		}
		return repo, nil
	}
	repoDir, err := RepoDir(root)
	if err != nil {
		return nil, err
	}
	store := filepath.Join(repoDir, "store")
	data, err := os.ReadFile(filepath.Join(store, "git_target"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoGitBackend
		}
		return nil, fmt.Errorf("read git target: %w", err)
	}
	target := strings.TrimSpace(string(data))
	if !filepath.IsAbs(target) {
		target = filepath.Join(store, target)
	}
	repo, err := gitlib.PlainOpen(filepath.Clean(target))
	if err != nil {
		return nil, fmt.Errorf("open git repository %s: %w", target, err)
	}
	return repo, nil
}
