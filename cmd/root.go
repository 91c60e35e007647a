package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/TingjiaInFuture/pixrep/config"
	"github.com/TingjiaInFuture/pixrep/constants/lipgloss"
)

// RootDependencies holds the common dependencies for all subcommands.
type RootDependencies struct {
	Config *config.Config
	Cwd    string
	Logger *slog.Logger
}

// rootCmd: pixrep
var rootCmd = &cobra.Command{
	Use:   "pixrep",
	Short: "pixrep analyzes a repository and enriches every file with semantic and lint data.",
	Long: `pixrep scans a source repository, builds a bounded semantic map for each
file (class structure and call graph), and collects lint findings from
external tools. Results are cached on disk keyed by file identity so
repeated runs only re-analyze what changed.`,
	Run: func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

// handleRootCommand loads configuration and builds the shared
// dependencies. Returns nil when the working directory is unavailable.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}

	cfg := config.LoadConfigs(cmd.Root(), cwd)

	level := slog.LevelWarn
	if os.Getenv("PIXREP_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &RootDependencies{
		Config: cfg,
		Cwd:    cwd,
		Logger: logger,
	}
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}
