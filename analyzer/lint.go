package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/TingjiaInFuture/pixrep/analyzer/models"
)

// Batch bounds keep subprocess argument lists under command-line
// length limits on every platform.
const (
	maxBatchItems = 200
	maxBatchChars = 60000
)

// targetBatches splits targets into invocation-sized groups bounded by
// both item count and total character length, preserving order.
func targetBatches(targets []string) [][]string {
	if len(targets) == 0 {
		return nil
	}
	var batches [][]string
	var batch []string
	chars := 0
	for _, target := range targets {
		targetLen := len(target) + 1
		if len(batch) > 0 && (len(batch) >= maxBatchItems || chars+targetLen > maxBatchChars) {
			batches = append(batches, batch)
			batch = nil
			chars = 0
		}
		batch = append(batch, target)
		chars += targetLen
	}
	if len(batch) > 0 {
		batches = append(batches, batch)
	}
	return batches
}

// ruffSeverity maps a ruff rule code to an issue severity via prefix.
func ruffSeverity(code string) string {
	for _, prefix := range []string{"F", "E", "B", "SIM", "PLR"} {
		if strings.HasPrefix(code, prefix) {
			return "high"
		}
	}
	return "medium"
}

// runJSONCommand runs one tool batch under the per-tool timeout and
// decodes its stdout into v. Lint tools exit non-zero when they have
// findings, so an exit error with output is still a success; timeouts,
// spawn failures, empty output and malformed JSON all report ok=false.
func (e *AnalysisEngine) runJSONCommand(ctx context.Context, tool string, args []string, v any) bool {
	runCtx, cancel := context.WithTimeout(ctx, e.linterTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, tool, args...)
	cmd.Dir = e.resolvedRoot
	out, err := cmd.Output()
	if runCtx.Err() != nil {
		e.logger.Debug("lint tool invocation timed out", "tool", tool)
		return false
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			e.logger.Debug("lint tool invocation failed", "tool", tool, "error", err)
			return false
		}
	}

	payload := bytes.TrimSpace(out)
	if len(payload) == 0 {
		return false
	}
	if err := json.Unmarshal(payload, v); err != nil {
		e.logger.Debug("lint tool output was not valid json", "tool", tool)
		return false
	}
	return true
}

// targetsForLanguages returns the normalized relative paths of scanned
// files whose language matches the tool's family, in scan order.
func (e *AnalysisEngine) targetsForLanguages(languages ...string) []string {
	want := make(map[string]struct{}, len(languages))
	for _, lang := range languages {
		want[lang] = struct{}{}
	}
	var targets []string
	for _, info := range e.repo.Files {
		if _, ok := want[info.Language]; ok {
			targets = append(targets, normalizePosixPath(info.Path))
		}
	}
	return targets
}

type ruffFinding struct {
	Filename string `json:"filename"`
	Location struct {
		Row int `json:"row"`
	} `json:"location"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// collectRuff gathers python findings. A missing binary is a normal,
// silent condition; each batch degrades independently.
func (e *AnalysisEngine) collectRuff(ctx context.Context) map[string][]models.LintIssue {
	if _, err := exec.LookPath("ruff"); err != nil {
		return nil
	}
	targets := e.targetsForLanguages("python")
	if len(targets) == 0 {
		return nil
	}

	merged := make(map[string][]models.LintIssue)
	for _, batch := range targetBatches(targets) {
		key := e.lintCacheKey("ruff", batch)
		if cached, ok := e.loadLintCache("ruff", key); ok {
			mergeIssues(merged, cached)
			continue
		}

		args := append([]string{"check", "--output-format", "json"}, batch...)
		var findings []ruffFinding
		if !e.runJSONCommand(ctx, "ruff", args, &findings) {
			continue
		}

		batchIssues := make(map[string][]models.LintIssue)
		for _, item := range findings {
			rel, ok := e.relativeToRepo(item.Filename)
			if !ok {
				continue
			}
			row := item.Location.Row
			if row < 1 {
				row = 1
			}
			code := item.Code
			if code == "" {
				code = "RUFF"
			}
			message := item.Message
			if message == "" {
				message = "ruff finding"
			}
			batchIssues[rel] = append(batchIssues[rel], models.LintIssue{
				Line:     row,
				Severity: ruffSeverity(code),
				Tool:     "ruff",
				Code:     code,
				Message:  message,
			})
		}
		e.saveLintCache("ruff", key, batchIssues)
		mergeIssues(merged, batchIssues)
	}
	return merged
}

type eslintFileResult struct {
	FilePath string `json:"filePath"`
	Messages []struct {
		Line     int    `json:"line"`
		Severity int    `json:"severity"`
		RuleID   string `json:"ruleId"`
		Message  string `json:"message"`
	} `json:"messages"`
}

// collectEslint gathers javascript/typescript findings, mirroring the
// ruff adapter's contract.
func (e *AnalysisEngine) collectEslint(ctx context.Context) map[string][]models.LintIssue {
	if _, err := exec.LookPath("eslint"); err != nil {
		return nil
	}
	targets := e.targetsForLanguages("javascript", "typescript")
	if len(targets) == 0 {
		return nil
	}

	merged := make(map[string][]models.LintIssue)
	for _, batch := range targetBatches(targets) {
		key := e.lintCacheKey("eslint", batch)
		if cached, ok := e.loadLintCache("eslint", key); ok {
			mergeIssues(merged, cached)
			continue
		}

		args := append([]string{"--format", "json"}, batch...)
		var files []eslintFileResult
		if !e.runJSONCommand(ctx, "eslint", args, &files) {
			continue
		}

		batchIssues := make(map[string][]models.LintIssue)
		for _, entry := range files {
			rel, ok := e.relativeToRepo(entry.FilePath)
			if !ok {
				continue
			}
			for _, msg := range entry.Messages {
				line := msg.Line
				if line < 1 {
					line = 1
				}
				severity := "medium"
				if msg.Severity >= 2 {
					severity = "high"
				}
				code := msg.RuleID
				if code == "" {
					code = "ESLINT"
				}
				message := msg.Message
				if message == "" {
					message = "eslint finding"
				}
				batchIssues[rel] = append(batchIssues[rel], models.LintIssue{
					Line:     line,
					Severity: severity,
					Tool:     "eslint",
					Code:     code,
					Message:  message,
				})
			}
		}
		e.saveLintCache("eslint", key, batchIssues)
		mergeIssues(merged, batchIssues)
	}
	return merged
}

func mergeIssues(dst, src map[string][]models.LintIssue) {
	for rel, issues := range src {
		dst[rel] = append(dst[rel], issues...)
	}
}

// loadLintCache restores a batch's issue map, sanitizing fields so a
// tampered or stale payload can never produce invalid issues.
func (e *AnalysisEngine) loadLintCache(tool, key string) (map[string][]models.LintIssue, bool) {
	if e.lintCache == nil {
		return nil, false
	}
	payload, ok := e.lintCache.Get(tool + "_" + key + ".json")
	if !ok {
		return nil, false
	}
	var raw map[string][]models.LintIssue
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, false
	}
	restored := make(map[string][]models.LintIssue, len(raw))
	for rel, issues := range raw {
		kept := make([]models.LintIssue, 0, len(issues))
		for _, issue := range issues {
			if issue.Line < 1 {
				issue.Line = 1
			}
			if issue.Severity != "high" && issue.Severity != "medium" {
				issue.Severity = "medium"
			}
			if issue.Tool == "" {
				issue.Tool = tool
			}
			kept = append(kept, issue)
		}
		restored[rel] = kept
	}
	return restored, true
}

// saveLintCache is best-effort; write failures are swallowed.
func (e *AnalysisEngine) saveLintCache(tool, key string, issues map[string][]models.LintIssue) {
	if e.lintCache == nil {
		return
	}
	payload, err := json.Marshal(issues)
	if err != nil {
		return
	}
	if err := e.lintCache.Set(tool+"_"+key+".json", payload); err != nil {
		e.logger.Debug("lint cache write failed", "tool", tool, "error", err)
	}
}

// collectLintIssues runs every adapter concurrently and waits up to a
// bounded multiple of the per-tool timeout. Adapters still unfinished
// at the deadline are abandoned; their subprocesses die via their own
// per-batch timeout contexts.
func (e *AnalysisEngine) collectLintIssues(ctx context.Context) map[string][]models.LintIssue {
	type toolResult struct {
		tool   string
		issues map[string][]models.LintIssue
	}

	adapters := []struct {
		tool    string
		collect func(context.Context) map[string][]models.LintIssue
	}{
		{"ruff", e.collectRuff},
		{"eslint", e.collectEslint},
	}

	results := make(chan toolResult, len(adapters))
	for _, adapter := range adapters {
		adapter := adapter
		go func() {
			results <- toolResult{tool: adapter.tool, issues: adapter.collect(ctx)}
		}()
	}

	overall := 2 * e.linterTimeout
	if overall < time.Second {
		overall = time.Second
	}
	deadline := time.NewTimer(overall)
	defer deadline.Stop()

	merged := make(map[string][]models.LintIssue)
	for pending := len(adapters); pending > 0; {
		select {
		case result := <-results:
			pending--
			mergeIssues(merged, result.issues)
		case <-deadline.C:
			e.logger.Debug("abandoning unfinished lint adapters", "pending", pending)
			pending = 0
		case <-ctx.Done():
			pending = 0
		}
	}
	return merged
}
