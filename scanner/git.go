package scanner

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	gitRevParseTimeout = 5 * time.Second
	gitListTimeout     = 10 * time.Second
)

// gitToplevel reports whether root is the toplevel of a git work tree.
// Any git failure (missing binary, not a repo, nested directory) means
// the caller falls back to a directory walk.
func gitToplevel(ctx context.Context, root string) bool {
	runCtx, cancel := context.WithTimeout(ctx, gitRevParseTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	toplevel := strings.TrimSpace(string(output))
	if toplevel == "" {
		return false
	}
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		resolvedRoot = root
	}
	resolvedTop, err := filepath.EvalSymlinks(filepath.FromSlash(toplevel))
	if err != nil {
		resolvedTop = filepath.FromSlash(toplevel)
	}
	return filepath.Clean(resolvedTop) == filepath.Clean(resolvedRoot)
}

// gitListFiles returns the tracked files of the repository at root as
// relative POSIX paths, or ok=false when git cannot produce the list.
func gitListFiles(ctx context.Context, root string) ([]string, bool) {
	runCtx, cancel := context.WithTimeout(ctx, gitListTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "git", "ls-files", "-z")
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		return nil, false
	}

	var files []string
	for _, entry := range strings.Split(string(output), "\x00") {
		if entry != "" {
			files = append(files, entry)
		}
	}
	return files, true
}
