package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberforge/pyrite/internal/build"
)

const version = "0.1.0"

var (
	inputPath   string
	configPath  string
	gameName    string
	quiet       bool
	skipCompile bool
	skipPackage bool
	skipZip     bool
	versionFlag bool
	rootCmd     *cobra.Command
)

func getBuildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func init() {
	rootCmd = &cobra.Command{
		Use:          "pyrite",
		Short:        "Build Papyrus script projects",
		Long:         `Build Papyrus script projects: compile sources, package game archives, and write distributable zips.`,
		RunE:         runBuild,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to the .ppj project file (required)")
	rootCmd.Flags().StringVarP(&gameName, "game", "g", "", "Target game: tes5, sse, or fo4 (overrides the project)")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to pyrite.toml")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.Flags().BoolVar(&skipCompile, "skip-compile", false, "Do not compile scripts")
	rootCmd.Flags().BoolVar(&skipPackage, "skip-package", false, "Do not build game archives")
	rootCmd.Flags().BoolVar(&skipZip, "skip-zip", false, "Do not write zip archives")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	if err := rootCmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("pyrite %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	if versionFlag {
		fmt.Printf("pyrite %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		return nil
	}

	return build.Run(cmd.Context(), build.Options{
		ProjectPath: inputPath,
		ConfigPath:  configPath,
		Game:        gameName,
		Quiet:       quiet,
		SkipCompile: skipCompile,
		SkipPackage: skipPackage,
		SkipZip:     skipZip,
	})
}
