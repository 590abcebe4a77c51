package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mark3labs/docweaver/internal/config"
	"github.com/mark3labs/docweaver/internal/lookup"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and API connectivity",
	Long: `Check that docweaver is ready to run: configuration loads and
validates, and the translation resources API answers the language
directory query.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("Checking configuration...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("  ✗ config failed to load")
		return err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println("  ✗ config is invalid")
		return err
	}
	fmt.Printf("  ✓ config ok (api_root: %s)\n", cfg.APIRoot)

	fmt.Println("Checking API connectivity...")
	client := lookup.New(cfg.APIRoot)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	start := time.Now()
	langs, err := client.LangCodesNames(ctx)
	if err != nil {
		fmt.Println("  ✗ language directory query failed")
		return err
	}
	fmt.Printf("  ✓ language directory ok (%d languages, %s)\n", len(langs), time.Since(start).Round(time.Millisecond))

	fmt.Println("\nAll checks passed.")
	return nil
}
