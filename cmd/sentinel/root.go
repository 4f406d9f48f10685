package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raaihank/meeting-sentinel/internal/app"
	"github.com/raaihank/meeting-sentinel/internal/clipboard"
	"github.com/raaihank/meeting-sentinel/internal/config"
)

var (
	configPath string
	verbose    bool

	// swapped in tests
	clip   clipboard.Clipboard = clipboard.New()
	stdin  io.Reader           = os.Stdin
	stdout io.Writer           = os.Stdout
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "meeting-sentinel",
	Short: "Anonymize meeting transcripts before they reach an LLM",
	Long: `meeting-sentinel replaces known people and company names in a transcript
with Person_<i> and Company_<i> placeholders, restores them in the summary
that comes back, and drafts the follow-up email.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig reads the configuration. Commands keep stdout for their
// output, so logs always go to stderr.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Logging.Output = "stderr"
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// openApp loads config and opens the session.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := app.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return app.Open(ctx, cfg, log)
}

// readInput returns the contents of path, stdin for "-", or the clipboard
// when path is empty.
func readInput(path string) (string, error) {
	switch path {
	case "":
		return clipboard.Paste(clip)
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// writeOutput prints text and optionally copies it to the clipboard.
func writeOutput(text string, toClipboard bool) error {
	if toClipboard {
		if err := clip.Write(text); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Copied to clipboard.")
		return nil
	}
	_, err := io.WriteString(stdout, strings.TrimRight(text, "\n")+"\n")
	return err
}

func argOrEmpty(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
