package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/mark3labs/docweaver/internal/config"
	"github.com/mark3labs/docweaver/internal/lookup"
	docnats "github.com/mark3labs/docweaver/internal/nats"
	"github.com/mark3labs/docweaver/internal/selection"
	"github.com/mark3labs/docweaver/internal/transfer"
)

var resolveFlags struct {
	bookName string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <repo-url>",
	Short: "Resolve a resource repository link without the TUI",
	Long: `Resolve a resource repository link into selection state and print it
as JSON. Useful for checking what a deep link would preselect before running
the full wizard.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFlags.bookName, "book-name", "", "Display name for the seeded book")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dataDir, err := os.MkdirTemp("", "docweaver-resolve-*")
	if err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	defer os.RemoveAll(dataDir)

	ns, err := docnats.StartEmbeddedNATS(dataDir)
	if err != nil {
		return fmt.Errorf("failed to start embedded NATS: %w", err)
	}
	nc, err := docnats.ConnectInProcess(ns)
	if err != nil {
		ns.Shutdown()
		return fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}
	defer func() { _ = docnats.Shutdown(nc, ns) }()

	ctx := context.Background()
	js, err := docnats.CreateJetStream(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	stream, err := docnats.SetupStream(ctx, js)
	if err != nil {
		return fmt.Errorf("failed to set up selection stream: %w", err)
	}

	store := selection.NewStore(js, stream, selection.DefaultSettings(cfg))
	client := lookup.New(cfg.APIRoot)
	resolver := transfer.New(client, store)

	const session = "resolve"
	route := url.Values{}
	route.Set("repo_url", args[0])
	if resolveFlags.bookName != "" {
		route.Set("book_name", resolveFlags.bookName)
	}

	outcome, resolveErr := resolver.ResolveRoute(ctx, session, route.Encode())

	state, err := store.LoadState(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	fmt.Println(string(out))

	if resolveErr != nil {
		return fmt.Errorf("resolution failed: %w", resolveErr)
	}
	fmt.Fprintf(os.Stderr, "Resolved to step: %s\n", outcome.Step)
	return nil
}
