package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/TingjiaInFuture/pixrep/analyzer"
	"github.com/TingjiaInFuture/pixrep/analyzer/models"
	"github.com/TingjiaInFuture/pixrep/constants/lipgloss"
	"github.com/TingjiaInFuture/pixrep/scanner"
)

// reportCmd: pixrep report [path]
var reportCmd = &cobra.Command{
	Use:   "report [path]",
	Short: "Scan a repository and print an enriched analysis summary.",
	Long: `The 'report' command scans the target directory (default: current
directory), builds a semantic map for every analyzable file, collects
lint findings from ruff and eslint when they are installed, and prints
a per-file summary with aggregate statistics.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		target := rootDependencies.Cwd
		if len(args) > 0 {
			target = args[0]
		}
		handleReportCommand(rootDependencies, target)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func handleReportCommand(rootDependencies *RootDependencies, target string) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)

	spinnerScan, _ := spinner.Start("Scanning repository...")

	repoScanner := scanner.NewRepoScanner(target, rootDependencies.Logger)
	repoScanner.MaxFileSize = rootDependencies.Config.MaxFileSize
	repoScanner.ExtraIgnore = rootDependencies.Config.ExtraIgnore
	repoScanner.PreferGitSource = rootDependencies.Config.PreferGitSource

	repo, err := repoScanner.Scan(ctx)
	spinnerScan.Stop()
	fmt.Print("\r")
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	if len(repo.Files) == 0 {
		fmt.Println(lipgloss.Yellow.Render("No analyzable files found."))
		return
	}

	engine := analyzer.NewAnalysisEngine(repo, analyzer.Options{
		EnableSemanticMinimap: rootDependencies.Config.EnableSemanticMinimap,
		EnableLintHeatmap:     rootDependencies.Config.EnableLintHeatmap,
		LinterTimeout:         time.Duration(rootDependencies.Config.LinterTimeout) * time.Second,
		CacheDir:              rootDependencies.Config.CacheDir,
		Logger:                rootDependencies.Logger,
	})

	spinnerEnrich, _ := spinner.Start("Analyzing files...")
	engine.EnrichRepo(ctx)
	spinnerEnrich.Stop()
	fmt.Print("\r")

	renderReport(repo, engine.CacheStats())
}

func renderReport(repo *models.RepoInfo, stats models.CacheStats) {
	header := fmt.Sprintf("%s  |  %d files, %d lines", repo.Name, len(repo.Files), repo.TotalLines)
	fmt.Println(lipgloss.BoxStyle.Render(header))

	totalHigh := 0
	totalMedium := 0
	for _, info := range repo.Files {
		high, medium := severityCounts(info.LintIssues)
		totalHigh += high
		totalMedium += medium

		line := fmt.Sprintf("%-50s %-10s %-10s nodes=%-3d edges=%-3d",
			truncatePath(info.Path, 50), info.Language, info.SemanticMap.Kind,
			info.SemanticMap.NodeCount, info.SemanticMap.EdgeCount)
		if high > 0 {
			line += "  " + lipgloss.Red.Render(fmt.Sprintf("high:%d", high))
		}
		if medium > 0 {
			line += "  " + lipgloss.Yellow.Render(fmt.Sprintf("med:%d", medium))
		}
		fmt.Println(line)
	}

	fmt.Println()
	fmt.Println(lipgloss.Info.Render("Languages:"))
	for _, lang := range sortedKeys(repo.LanguageStats) {
		fmt.Printf("  %-12s %d\n", lang, repo.LanguageStats[lang])
	}

	fmt.Println()
	fmt.Println(lipgloss.Info.Render("Lint:"))
	fmt.Printf("  high: %d  medium: %d\n", totalHigh, totalMedium)

	fmt.Println()
	fmt.Println(lipgloss.Info.Render("Cache:"))
	fmt.Printf("  semantic: %d hits / %d misses\n", stats.SemanticHits, stats.SemanticMisses)
	fmt.Printf("  lint:     %d hits / %d misses\n", stats.LintHits, stats.LintMisses)
	if stats.CacheDir != "" {
		fmt.Printf("  dir:      %s (%d entries, %.2f MB)\n",
			stats.CacheDir, stats.Entries, float64(stats.TotalSizeBytes)/(1024*1024))
	}
}

func severityCounts(issues []models.LintIssue) (high, medium int) {
	for _, issue := range issues {
		if issue.Severity == "high" {
			high++
		} else {
			medium++
		}
	}
	return high, medium
}

func truncatePath(path string, max int) string {
	runes := []rune(path)
	if len(runes) <= max {
		return path
	}
	return "…" + string(runes[len(runes)-max+1:])
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return strings.Compare(keys[i], keys[j]) < 0
	})
	return keys
}
