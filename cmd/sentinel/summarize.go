package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raaihank/meeting-sentinel/internal/summarizer"
)

var (
	summarizeDraft bool
	summarizeCopy  bool
	summarizeRaw   bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [transcript]",
	Short: "Anonymize, summarize with Gemini and restore names in one step",
	Long: `Runs the whole round trip: anonymizes the transcript, sends only the
anonymized prompt to Gemini, then restores names in the reply. Needs
summarizer.api_keys in the config or GEMINI_API_KEY in the environment.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := summarizer.New(a.Config.Summarizer, a.Logger.Logger)
		if err != nil {
			return err
		}

		text, err := readInput(argOrEmpty(args))
		if err != nil {
			return err
		}
		result, err := a.Session.AnonymizeText(ctx, text)
		if err != nil {
			return err
		}

		a.Logger.Info("Requesting summary", zap.Int("prompt_chars", len(result.Text)))
		reply, err := sum.Summarize(ctx, a.Session.BuildPrompt(result.Text))
		if err != nil {
			return err
		}
		if summarizeRaw {
			return writeOutput(reply, summarizeCopy)
		}

		restored, err := a.Session.Deanonymize(ctx, reply)
		if err != nil {
			return err
		}
		if len(restored.Unresolved) > 0 {
			fmt.Fprintf(os.Stderr, "Warning: unknown placeholders left as-is: %v\n", restored.Unresolved)
		}
		if !summarizeDraft {
			return writeOutput(restored.Text, summarizeCopy)
		}

		d, err := a.Session.ComposeDraft(restored.Text)
		if err != nil {
			return err
		}
		return writeOutput(d.String(), summarizeCopy)
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().BoolVar(&summarizeDraft, "draft", false, "Print the full email draft")
	summarizeCmd.Flags().BoolVar(&summarizeCopy, "copy", false, "Copy the result to the clipboard instead of printing it")
	summarizeCmd.Flags().BoolVar(&summarizeRaw, "raw", false, "Print the anonymized summary without restoring names")
}
