package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/mark3labs/docweaver/internal/config"
	docnats "github.com/mark3labs/docweaver/internal/nats"
	"github.com/mark3labs/docweaver/internal/selection"
)

var toolFlags struct {
	name    string
	dataDir string
}

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Execute session tools against a running compose session",
	Long: `Execute selection tools against a running docweaver compose session.
These commands attach over the session's local NATS port and are meant for
scripting and integrations, not interactive use.`,
}

func init() {
	rootCmd.AddCommand(toolCmd)

	toolCmd.AddCommand(langsAddCmd)
	toolCmd.AddCommand(booksAddCmd)
	toolCmd.AddCommand(booksAddAllCmd)
	toolCmd.AddCommand(typesAddCmd)
	toolCmd.AddCommand(settingsSetCmd)
	toolCmd.AddCommand(resetCmd)
	toolCmd.AddCommand(stateCmd)

	// Common flags for all tool subcommands
	toolCmd.PersistentFlags().StringVarP(&toolFlags.name, "name", "n", "", "Session name (required)")
	toolCmd.PersistentFlags().StringVar(&toolFlags.dataDir, "data-dir", "", "Data directory (default: from config)")
}

// connectToSession connects to a running compose session's NATS server.
func connectToSession() (*selection.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	dataDir := toolFlags.dataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}

	port, err := docnats.ReadPort(filepath.Join(dataDir, "nats"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to session (is docweaver compose running?): %w", err)
	}

	nc, err := docnats.ConnectToPort(port)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx := context.Background()
	stream, err := js.Stream(ctx, docnats.StreamName)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to get stream: %w", err)
	}

	store := selection.NewStore(js, stream, selection.DefaultSettings(cfg))

	cleanup := func() {
		nc.Close()
	}

	return store, cleanup, nil
}

// langs-add command
var langsAddCmd = &cobra.Command{
	Use:   "langs-add",
	Short: "Add a language to the selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		if toolFlags.name == "" {
			return fmt.Errorf("session name is required (--name)")
		}

		code, _ := cmd.Flags().GetString("code")
		name, _ := cmd.Flags().GetString("lang-name")
		gateway, _ := cmd.Flags().GetBool("gateway")

		if code == "" {
			return fmt.Errorf("code is required")
		}
		if name == "" {
			name = code
		}

		store, cleanup, err := connectToSession()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		err = store.LanguagesAdd(ctx, toolFlags.name, selection.Language{
			Code:      code,
			Name:      name,
			IsGateway: gateway,
		})
		if err != nil {
			return err
		}

		// Output JSON for parsing
		output, _ := json.Marshal(map[string]string{
			"code": code,
			"name": name,
		})
		fmt.Println(string(output))
		return nil
	},
}

func init() {
	langsAddCmd.Flags().String("code", "", "Language code (required)")
	langsAddCmd.Flags().String("lang-name", "", "Language display name (default: the code)")
	langsAddCmd.Flags().Bool("gateway", false, "Mark as a gateway language")
}

// books-add command
var booksAddCmd = &cobra.Command{
	Use:   "books-add",
	Short: "Add a book to the selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		if toolFlags.name == "" {
			return fmt.Errorf("session name is required (--name)")
		}

		code, _ := cmd.Flags().GetString("code")
		if code == "" {
			return fmt.Errorf("code is required")
		}

		store, cleanup, err := connectToSession()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := store.BooksAdd(context.Background(), toolFlags.name, code); err != nil {
			return err
		}

		fmt.Println("OK")
		return nil
	},
}

func init() {
	booksAddCmd.Flags().String("code", "", "USFM book code, e.g. gen or mat (required)")
}

// books-add-all command
var booksAddAllCmd = &cobra.Command{
	Use:   "books-add-all",
	Short: "Add every canonical book to the selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		if toolFlags.name == "" {
			return fmt.Errorf("session name is required (--name)")
		}

		store, cleanup, err := connectToSession()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := store.BooksAddAll(context.Background(), toolFlags.name); err != nil {
			return err
		}

		fmt.Println("OK")
		return nil
	},
}

// types-add command
var typesAddCmd = &cobra.Command{
	Use:   "types-add",
	Short: "Add a resource type for a selected language",
	RunE: func(cmd *cobra.Command, args []string) error {
		if toolFlags.name == "" {
			return fmt.Errorf("session name is required (--name)")
		}

		langCode, _ := cmd.Flags().GetString("lang")
		typeCode, _ := cmd.Flags().GetString("code")
		typeName, _ := cmd.Flags().GetString("type-name")

		if langCode == "" {
			return fmt.Errorf("lang is required")
		}
		if typeCode == "" {
			return fmt.Errorf("code is required")
		}
		if typeName == "" {
			typeName = typeCode
		}

		store, cleanup, err := connectToSession()
		if err != nil {
			return err
		}
		defer cleanup()

		err = store.ResourceTypesAdd(context.Background(), toolFlags.name, selection.ResourceType{
			LangCode: langCode,
			TypeCode: typeCode,
			TypeName: typeName,
		})
		if err != nil {
			return err
		}

		fmt.Println("OK")
		return nil
	},
}

func init() {
	typesAddCmd.Flags().String("lang", "", "Language code the type belongs to (required)")
	typesAddCmd.Flags().String("code", "", "Resource type code, e.g. ulb-wa (required)")
	typesAddCmd.Flags().String("type-name", "", "Resource type display name (default: the code)")
}

// settings-set command
var settingsSetCmd = &cobra.Command{
	Use:   "settings-set",
	Short: "Update output settings; only the flags given are changed",
	RunE: func(cmd *cobra.Command, args []string) error {
		if toolFlags.name == "" {
			return fmt.Errorf("session name is required (--name)")
		}

		store, cleanup, err := connectToSession()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := context.Background()
		state, err := store.LoadState(ctx, toolFlags.name)
		if err != nil {
			return err
		}

		settings := state.Settings
		if cmd.Flags().Changed("layout-for-print") {
			settings.LayoutForPrint, _ = cmd.Flags().GetBool("layout-for-print")
		}
		if cmd.Flags().Changed("assembly-strategy") {
			settings.AssemblyStrategy, _ = cmd.Flags().GetString("assembly-strategy")
		}
		if cmd.Flags().Changed("chunk-size") {
			settings.ChunkSize, _ = cmd.Flags().GetString("chunk-size")
		}
		if cmd.Flags().Changed("pdf") {
			settings.Formats.PDF, _ = cmd.Flags().GetBool("pdf")
		}
		if cmd.Flags().Changed("epub") {
			settings.Formats.EPub, _ = cmd.Flags().GetBool("epub")
		}
		if cmd.Flags().Changed("docx") {
			settings.Formats.Docx, _ = cmd.Flags().GetBool("docx")
		}
		if cmd.Flags().Changed("email") {
			settings.Email, _ = cmd.Flags().GetString("email")
		}

		if err := store.SettingsSet(ctx, toolFlags.name, settings); err != nil {
			return err
		}

		fmt.Println("OK")
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().Bool("layout-for-print", false, "Lay out for print")
	settingsSetCmd.Flags().String("assembly-strategy", "", fmt.Sprintf("Assembly strategy: %s or %s", config.AssemblyBookMajor, config.AssemblyLanguageMajor))
	settingsSetCmd.Flags().String("chunk-size", "", fmt.Sprintf("Chunk size: %s or %s", config.ChunkChapter, config.ChunkVerse))
	settingsSetCmd.Flags().Bool("pdf", false, "Generate PDF output")
	settingsSetCmd.Flags().Bool("epub", false, "Generate ePub output (print layout only)")
	settingsSetCmd.Flags().Bool("docx", false, "Generate Docx output (print layout only)")
	settingsSetCmd.Flags().String("email", "", "Notification email address")
}

// reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a selection group to its defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if toolFlags.name == "" {
			return fmt.Errorf("session name is required (--name)")
		}

		group, _ := cmd.Flags().GetString("group")
		if !selection.ValidGroup(group) {
			return fmt.Errorf("invalid group: %q", group)
		}

		store, cleanup, err := connectToSession()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := store.ResetGroup(context.Background(), toolFlags.name, selection.Group(group)); err != nil {
			return err
		}

		fmt.Println("OK")
		return nil
	},
}

func init() {
	resetCmd.Flags().String("group", "", "Group to reset: languages, books, resource_types, settings or notifications")
}

// state command
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the session's selection state as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if toolFlags.name == "" {
			return fmt.Errorf("session name is required (--name)")
		}

		store, cleanup, err := connectToSession()
		if err != nil {
			return err
		}
		defer cleanup()

		state, err := store.LoadState(context.Background(), toolFlags.name)
		if err != nil {
			return err
		}

		output, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	},
}
