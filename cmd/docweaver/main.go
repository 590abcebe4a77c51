package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/mark3labs/docweaver/internal/logger"
	"github.com/spf13/cobra"
)

const (
	logoText1 = "█▀▄ █▀█ █▀▀ █ █ █ █▀▀ ▄▀█ █ █ █▀▀ █▀█"
	logoText2 = "█▄▀ █▄█ █▄▄ ▀▄▀▄▀ ██▄ █▀█ ▀▄▀ ██▄ █▀▄"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "docweaver",
	Short: "Interleaved scripture document composer with embedded persistence and TUI",
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	line1 := applyGradient(logoText1, "#cba6f7", "#b4befe")
	line2 := applyGradient(logoText2, "#cba6f7", "#b4befe")
	return strings.Join([]string{line1, line2}, "\n")
}

// applyGradient colors each rune by interpolating between two hex colors.
func applyGradient(text, from, to string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return text
	}

	var r1, g1, b1, r2, g2, b2 uint8
	_, _ = fmt.Sscanf(strings.TrimPrefix(from, "#"), "%02x%02x%02x", &r1, &g1, &b1)
	_, _ = fmt.Sscanf(strings.TrimPrefix(to, "#"), "%02x%02x%02x", &r2, &g2, &b2)

	var b strings.Builder
	for i, r := range runes {
		pos := float64(i) / float64(len(runes)-1)
		red := uint8(float64(r1)*(1-pos) + float64(r2)*pos)
		green := uint8(float64(g1)*(1-pos) + float64(g2)*pos)
		blue := uint8(float64(b1)*(1-pos) + float64(b2)*pos)
		b.WriteString(fmt.Sprintf("\x1b[38;2;%d;%d;%dm%c", red, green, blue, r))
	}
	b.WriteString("\x1b[0m")
	return b.String()
}

func init() {
	// Set Long description with logo
	rootCmd.Long = renderLogo() + `

docweaver assembles multi-language Bible translation resources into single
documents. It walks a four-step selection wizard (languages, books, resource
types, output settings), keeps session state via embedded NATS JetStream,
and queues document generation against a translation resources API.`

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(setupCmd)
}
