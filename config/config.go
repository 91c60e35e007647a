package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TingjiaInFuture/pixrep/constants/lipgloss"
)

// Config represents the structure of the configuration file
type Config struct {
	Version               string   `mapstructure:"version"`
	EnableSemanticMinimap bool     `mapstructure:"enable_semantic_minimap"`
	EnableLintHeatmap     bool     `mapstructure:"enable_lint_heatmap"`
	LinterTimeout         int      `mapstructure:"linter_timeout"`
	MaxFileSize           int64    `mapstructure:"max_file_size"`
	PreferGitSource       bool     `mapstructure:"prefer_git_source"`
	ExtraIgnore           []string `mapstructure:"extra_ignore"`
	CacheDir              string   `mapstructure:"cache_dir"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:               "0.3.0",
	EnableSemanticMinimap: true,
	EnableLintHeatmap:     true,
	LinterTimeout:         20,
	MaxFileSize:           512 * 1024,
	PreferGitSource:       true,
	ExtraIgnore:           nil,
	CacheDir:              "",
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	setDefaults()

	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else {
		// Look for pixrep-config.yaml / .yml / .json in the working directory
		viper.SetConfigName("pixrep-config")
		viper.AddConfigPath(cwd)

		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigType("json")
			_ = viper.ReadInConfig() // continue with defaults when no file exists
		}
	}

	// Bind CLI flags to override config values
	bindFlags(rootCmd)

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("enable_semantic_minimap", DefaultConfig.EnableSemanticMinimap)
	viper.SetDefault("enable_lint_heatmap", DefaultConfig.EnableLintHeatmap)
	viper.SetDefault("linter_timeout", DefaultConfig.LinterTimeout)
	viper.SetDefault("max_file_size", DefaultConfig.MaxFileSize)
	viper.SetDefault("prefer_git_source", DefaultConfig.PreferGitSource)
	viper.SetDefault("extra_ignore", DefaultConfig.ExtraIgnore)
	viper.SetDefault("cache_dir", DefaultConfig.CacheDir)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("enable_semantic_minimap", "PIXREP_SEMANTIC_MINIMAP")
	_ = viper.BindEnv("enable_lint_heatmap", "PIXREP_LINT_HEATMAP")
	_ = viper.BindEnv("linter_timeout", "PIXREP_LINTER_TIMEOUT")
	_ = viper.BindEnv("max_file_size", "PIXREP_MAX_FILE_SIZE")
	_ = viper.BindEnv("prefer_git_source", "PIXREP_PREFER_GIT_SOURCE")
	_ = viper.BindEnv("cache_dir", "PIXREP_CACHE_DIR")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("enable_semantic_minimap", rootCmd.PersistentFlags().Lookup("semantic"))
	_ = viper.BindPFlag("enable_lint_heatmap", rootCmd.PersistentFlags().Lookup("lint"))
	_ = viper.BindPFlag("linter_timeout", rootCmd.PersistentFlags().Lookup("linter_timeout"))
	_ = viper.BindPFlag("max_file_size", rootCmd.PersistentFlags().Lookup("max_file_size"))
	_ = viper.BindPFlag("prefer_git_source", rootCmd.PersistentFlags().Lookup("prefer_git_source"))
	_ = viper.BindPFlag("extra_ignore", rootCmd.PersistentFlags().Lookup("extra_ignore"))
	_ = viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache_dir"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().Bool("semantic", DefaultConfig.EnableSemanticMinimap, "Enable or disable per-file semantic minimaps")
	rootCmd.PersistentFlags().Bool("lint", DefaultConfig.EnableLintHeatmap, "Enable or disable the lint issue heatmap")
	rootCmd.PersistentFlags().Int("linter_timeout", DefaultConfig.LinterTimeout, "Per-batch lint subprocess timeout in seconds")
	rootCmd.PersistentFlags().Int64("max_file_size", DefaultConfig.MaxFileSize, "Skip files larger than this many bytes when scanning")
	rootCmd.PersistentFlags().Bool("prefer_git_source", DefaultConfig.PreferGitSource, "Use 'git ls-files' for file discovery when the target is a git repository")
	rootCmd.PersistentFlags().StringSlice("extra_ignore", DefaultConfig.ExtraIgnore, "Additional glob patterns to exclude from scanning")
	rootCmd.PersistentFlags().String("cache_dir", DefaultConfig.CacheDir, "Override the analysis cache directory")

	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}
