package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/TingjiaInFuture/pixrep/analyzer/models"
)

const defaultMaxFileSize = 512 * 1024

// RepoScanner walks a repository root and produces the ordered file
// list the analysis engine runs over.
type RepoScanner struct {
	Root            string
	MaxFileSize     int64
	ExtraIgnore     []string
	PreferGitSource bool
	Logger          *slog.Logger
}

// NewRepoScanner initializes a scanner with defaults applied.
func NewRepoScanner(root string, logger *slog.Logger) *RepoScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepoScanner{
		Root:            root,
		MaxFileSize:     defaultMaxFileSize,
		PreferGitSource: true,
		Logger:          logger,
	}
}

// Scan collects every analyzable file under the root. File order is
// deterministic: git index order when git supplies the list, sorted
// relative path otherwise.
func (s *RepoScanner) Scan(ctx context.Context) (*models.RepoInfo, error) {
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scan root: %w", err)
	}
	rootInfo, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root: %w", err)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf("scan root is not a directory: %s", root)
	}

	maxSize := s.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxFileSize
	}
	matcher := newIgnoreMatcher(root, s.ExtraIgnore)
	stats := map[string]int{
		"ignored":  0,
		"oversize": 0,
		"binary":   0,
		"empty":    0,
		"missing":  0,
	}

	var relPaths []string
	fromGit := false
	if s.PreferGitSource && gitToplevel(ctx, root) {
		if listed, ok := gitListFiles(ctx, root); ok {
			relPaths = listed
			fromGit = true
		}
	}
	if !fromGit {
		relPaths, err = s.walkFiles(ctx, root)
		if err != nil {
			return nil, err
		}
		sort.Strings(relPaths)
	}

	repo := &models.RepoInfo{
		Root:          root,
		Name:          filepath.Base(root),
		LanguageStats: map[string]int{},
		ScanStats:     stats,
	}

	for _, rel := range relPaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)
		if matcher.Matches(rel) || hasIgnoredDirComponent(rel) {
			stats["ignored"]++
			continue
		}

		absPath := filepath.Join(root, filepath.FromSlash(rel))
		fileStat, err := os.Stat(absPath)
		if err != nil || fileStat.IsDir() {
			stats["missing"]++
			continue
		}
		if fileStat.Size() == 0 {
			stats["empty"]++
			continue
		}
		if fileStat.Size() > maxSize {
			stats["oversize"]++
			continue
		}

		content, err := os.ReadFile(absPath)
		if err != nil {
			stats["missing"]++
			continue
		}
		if !isProbablyText(content) {
			stats["binary"]++
			continue
		}

		info := &models.FileInfo{
			Path:      rel,
			AbsPath:   absPath,
			Language:  detectLanguage(rel),
			Size:      fileStat.Size(),
			MtimeNs:   fileStat.ModTime().UnixNano(),
			LineCount: countLines(content),
			Index:     len(repo.Files),
		}
		info.SetContent(string(content))

		repo.Files = append(repo.Files, info)
		repo.TotalLines += info.LineCount
		repo.TotalSize += info.Size
		repo.LanguageStats[info.Language]++
	}

	s.Logger.Debug("repository scan complete",
		"root", root,
		"source", scanSource(fromGit),
		"files", len(repo.Files),
		"ignored", stats["ignored"],
		"oversize", stats["oversize"],
		"binary", stats["binary"])

	return repo, nil
}

// walkFiles descends the tree directly, pruning ignored directories.
func (s *RepoScanner) walkFiles(ctx context.Context, root string) ([]string, error) {
	var relPaths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && shouldIgnoreDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPaths = append(relPaths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk repository: %w", err)
	}
	return relPaths, nil
}

// hasIgnoredDirComponent re-applies directory pruning to git-sourced
// paths, which never pass through the walk.
func hasIgnoredDirComponent(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, part := range parts[:len(parts)-1] {
		if shouldIgnoreDir(part) {
			return true
		}
	}
	return false
}

func scanSource(fromGit bool) string {
	if fromGit {
		return "git"
	}
	return "walk"
}
