package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/TingjiaInFuture/pixrep/analyzer"
	"github.com/TingjiaInFuture/pixrep/analyzer/models"
	"github.com/TingjiaInFuture/pixrep/constants/lipgloss"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the analysis cache for pixrep",
	Long: `The 'reset-cache' command removes all cached analysis entries for the
current repository. This includes semantic map payloads and lint batch
results. Use this command to clear corrupted cache or after upgrading
lint tools.`,
	Run: func(cmd *cobra.Command, args []string) {
		var force bool
		var stats bool

		// Parse flags
		force, _ = cmd.Flags().GetBool("force")
		stats, _ = cmd.Flags().GetBool("stats")

		handleResetCacheCommand(force, stats, cmd)
	},
}

func init() {
	// Define command-specific flags
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics before reset")

	// Add the reset-cache command to the root command
	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(force bool, showStats bool, cmd *cobra.Command) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}

	// An engine over an empty file list is enough to address the cache.
	repo := &models.RepoInfo{
		Root: rootDependencies.Cwd,
		Name: filepath.Base(rootDependencies.Cwd),
	}
	engine := analyzer.NewAnalysisEngine(repo, analyzer.Options{
		CacheDir:      rootDependencies.Config.CacheDir,
		LinterTimeout: time.Duration(rootDependencies.Config.LinterTimeout) * time.Second,
		Logger:        rootDependencies.Logger,
	})

	// Show cache statistics if requested
	if showStats {
		cacheStats := engine.CacheStats()
		fmt.Println(lipgloss.Info.Render("Cache Statistics:"))
		if cacheStats.CacheDir == "" {
			fmt.Println("  Cache is disabled")
			return
		}
		fmt.Printf("  Cache Directory: %s\n", cacheStats.CacheDir)
		fmt.Printf("  Cached Entries: %d\n", cacheStats.Entries)
		fmt.Printf("  Total Size: %.2f MB\n", float64(cacheStats.TotalSizeBytes)/(1024*1024))

		// Only show stats, skip the actual reset
		return
	}

	// Confirm reset for full cache reset (if not forced)
	if !force {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Are you sure you want to reset the analysis cache? (y/N): ")
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return
		}
	}

	// Reset the cache
	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Resetting analysis cache...")

	err := engine.ClearCache()
	if err != nil {
		spinnerInstance.Stop()
		fmt.Print("\r")
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error resetting cache: %v", err)))
		return
	}

	spinnerInstance.Stop()
	fmt.Print("\r")
	fmt.Println(lipgloss.Green.Render("✓ Analysis cache has been successfully reset!"))
}
