package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	anonymizeCopy bool
	anonymizeBare bool
)

var anonymizeCmd = &cobra.Command{
	Use:   "anonymize [transcript]",
	Short: "Replace known names in a transcript and print the prompt",
	Long: `Reads a transcript from a file, from stdin ("-") or from the clipboard when no
argument is given. Prints the summarization prompt, or copies it with --copy.
The placeholder map is saved so "restore" can reverse it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		path := argOrEmpty(args)
		text, err := readInput(path)
		if err != nil {
			return err
		}

		result, err := a.Session.AnonymizeText(ctx, text)
		if err != nil {
			return err
		}
		for _, f := range result.Findings {
			fmt.Fprintf(os.Stderr, "%-12s %d replacement(s)\n", f.Placeholder, f.Count)
		}

		out := result.Text
		if !anonymizeBare {
			out = a.Session.BuildPrompt(result.Text)
		}
		return writeOutput(out, anonymizeCopy)
	},
}

func init() {
	rootCmd.AddCommand(anonymizeCmd)
	anonymizeCmd.Flags().BoolVar(&anonymizeCopy, "copy", false, "Copy the prompt to the clipboard instead of printing it")
	anonymizeCmd.Flags().BoolVar(&anonymizeBare, "bare", false, "Output the anonymized text without the prompt prefix")
}
