package models

import (
	"fmt"
	"os"
)

// SemanticMap is a bounded textual summary of one file's structure: a
// UML-like class listing plus a best-effort call graph.
type SemanticMap struct {
	Kind      string   `json:"kind"`
	Lines     []string `json:"lines"`
	NodeCount int      `json:"node_count"`
	EdgeCount int      `json:"edge_count"`
	Truncated bool     `json:"truncated"`
}

// LintIssue is a single finding reported by an external lint tool,
// already reconciled to a scanned file.
type LintIssue struct {
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Tool     string `json:"tool"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// FileInfo holds identity metadata and lazily-loaded content for one
// scanned file. Path is repository-relative with forward slashes.
type FileInfo struct {
	Path      string
	AbsPath   string
	Language  string
	Size      int64
	MtimeNs   int64
	LineCount int
	Index     int

	SemanticMap SemanticMap
	LintIssues  []LintIssue

	content       string
	contentLoaded bool
}

// LoadContent returns the file text, reading from disk the first time.
// A file is only ever handled by one worker at a time, so no locking.
func (f *FileInfo) LoadContent() (string, error) {
	if f.contentLoaded {
		return f.content, nil
	}
	raw, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", f.Path, err)
	}
	f.content = string(raw)
	f.contentLoaded = true
	return f.content, nil
}

// SetContent pre-populates the content cache so LoadContent never hits
// the disk. Used by the scanner when it already read the file.
func (f *FileInfo) SetContent(content string) {
	f.content = content
	f.contentLoaded = true
}

// ReleaseContent drops the in-memory text after downstream consumers
// are done with it, bounding memory over large trees.
func (f *FileInfo) ReleaseContent() {
	f.content = ""
	f.contentLoaded = false
}

// RepoInfo is the scanner's view of a repository: an ordered file list
// plus aggregate statistics.
type RepoInfo struct {
	Root          string
	Name          string
	Files         []*FileInfo
	TotalLines    int
	TotalSize     int64
	LanguageStats map[string]int
	ScanStats     map[string]int
}

// CacheStats summarizes disk-cache effectiveness for one engine run.
type CacheStats struct {
	CacheDir       string
	SemanticHits   int64
	SemanticMisses int64
	LintHits       int64
	LintMisses     int64
	Entries        int
	TotalSizeBytes int64
}
