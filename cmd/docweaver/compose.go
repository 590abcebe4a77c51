package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
	"github.com/spf13/cobra"

	"github.com/mark3labs/docweaver/internal/config"
	"github.com/mark3labs/docweaver/internal/logger"
	"github.com/mark3labs/docweaver/internal/lookup"
	docnats "github.com/mark3labs/docweaver/internal/nats"
	"github.com/mark3labs/docweaver/internal/selection"
	"github.com/mark3labs/docweaver/internal/transfer"
	"github.com/mark3labs/docweaver/internal/tui"
	"github.com/mark3labs/docweaver/internal/wizard"
)

var composeFlags struct {
	name     string
	repoURL  string
	bookName string
	dataDir  string
	headless bool
}

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Run the document composition wizard",
	Long: `Run the interactive document composition wizard.

The wizard walks four gated steps: languages, books, resource types, and
output settings. Passing --repo-url seeds the session from a resource
repository link and jumps straight to the settings step.`,
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().StringVarP(&composeFlags.name, "name", "n", "", "Session name (default: derived from repo URL, else \"compose\")")
	composeCmd.Flags().StringVar(&composeFlags.repoURL, "repo-url", "", "Resource repository URL to seed selections from")
	composeCmd.Flags().StringVar(&composeFlags.bookName, "book-name", "", "Display name for the seeded book")
	composeCmd.Flags().StringVar(&composeFlags.dataDir, "data-dir", "", "Data directory for NATS storage (default: from config)")
	composeCmd.Flags().BoolVar(&composeFlags.headless, "headless", false, "Run without TUI: seed the session, print its state, exit")
}

func runCompose(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	applyLogConfig(cfg)

	session := composeFlags.name
	if session == "" {
		if composeFlags.repoURL != "" {
			session = slug.Make(composeFlags.repoURL)
		} else {
			session = "compose"
		}
	} else {
		session = slug.Make(session)
	}
	if len(session) > 64 {
		session = session[:64]
	}

	dataDir := composeFlags.dataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}

	// Listen on a localhost port so "docweaver tool" commands can attach
	// to this session from other processes.
	natsDir := filepath.Join(dataDir, "nats")
	ns, err := docnats.StartEmbeddedNATSListening(natsDir)
	if err != nil {
		return fmt.Errorf("failed to start embedded NATS: %w", err)
	}
	nc, err := docnats.ConnectInProcess(ns)
	if err != nil {
		ns.Shutdown()
		return fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}
	defer func() {
		docnats.RemovePort(natsDir)
		if err := docnats.Shutdown(nc, ns); err != nil {
			logger.Warn("NATS shutdown: %v", err)
		}
	}()

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

	startStep := wizard.StepLanguages
	if composeFlags.repoURL != "" {
		route := url.Values{}
		route.Set("repo_url", composeFlags.repoURL)
		if composeFlags.bookName != "" {
			route.Set("book_name", composeFlags.bookName)
		}

		resolver := transfer.New(client, store)
		outcome, err := resolver.ResolveRoute(ctx, session, route.Encode())
		if err != nil {
			// The error is already recorded on the session; the wizard
			// surfaces it and starts from the first step.
			logger.Warn("Transfer resolution failed: %v", err)
			fmt.Fprintf(os.Stderr, "Could not seed from repository link: %v\n", err)
		} else {
			startStep = outcome.Step
		}
	}

	if composeFlags.headless {
		state, err := store.LoadState(ctx, session)
		if err != nil {
			return fmt.Errorf("failed to load session state: %w", err)
		}
		out, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode state: %w", err)
		}
		fmt.Println(string(out))
		fmt.Fprintf(os.Stderr, "Session %q ready at step: %s\n", session, startStep)
		return nil
	}

	return tui.Run(store, client, cfg, session, startStep)
}

// applyLogConfig pushes config-file log settings into the package logger.
// Environment variables still win; they were applied at init.
func applyLogConfig(cfg *config.Config) {
	if os.Getenv("DOCWEAVER_LOG_LEVEL") == "" && cfg.LogLevel != "" {
		if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
			logger.Default.SetLevel(level)
		}
	}
	if os.Getenv("DOCWEAVER_LOG_FILE") == "" && cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			logger.Default.SetOutput(f)
		}
	}
}
