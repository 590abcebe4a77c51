package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/docweaver/internal/config"
	"github.com/spf13/cobra"
)

var setupFlags struct {
	project bool
	force   bool
	apiRoot string
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create docweaver configuration file",
	Long: `Create a docweaver configuration file with sensible defaults.

By default, creates a global config at ~/.config/docweaver/docweaver.yml.
Use --project to create a project-local config in the current directory.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
	setupCmd.Flags().StringVar(&setupFlags.apiRoot, "api-root", "", "Translation resources API root URL")
}

func runSetup(cmd *cobra.Command, args []string) error {
	// Determine target path
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	// Check if config already exists
	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	cfg := &config.Config{
		APIRoot:            setupFlags.apiRoot,
		FileServerRoot:     "",
		AssemblyStrategy:   config.AssemblyBookMajor,
		ChunkSize:          config.ChunkChapter,
		ShowTopNav:         true,
		ShowResourceCounts: false,
		NotifyEmail:        "",
		DataDir:            ".docweaver",
		LogLevel:           "info",
		LogFile:            "",
	}

	// Write config to target location
	var err error
	if setupFlags.project {
		err = config.WriteProject(cfg)
	} else {
		err = config.WriteGlobal(cfg)
	}

	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// Print success message
	fmt.Printf("Config written to: %s\n\n", targetPath)
	if setupFlags.apiRoot == "" {
		fmt.Println("Set api_root in the config before running 'docweaver compose'.")
	} else {
		fmt.Println("Run 'docweaver compose' to get started.")
	}

	return nil
}

// fileExists checks if a file exists (helper for setup command).
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
