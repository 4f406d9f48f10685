package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raaihank/meeting-sentinel/internal/email"
)

var (
	restoreCopy       bool
	restoreDraft      bool
	restoreEML        string
	restoreDocx       string
	restoreTranscript string
	restoreTo         string
)

var restoreCmd = &cobra.Command{
	Use:     "restore [summary]",
	Aliases: []string{"deanonymize"},
	Short:   "Put real names back into a summary",
	Long: `Reads an anonymized summary from a file, stdin ("-") or the clipboard,
restores names from the saved placeholder map and cleans up the text.
With --draft the result is wrapped in the email intro and signature.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		text, err := readInput(argOrEmpty(args))
		if err != nil {
			return err
		}

		result, err := a.Session.Deanonymize(ctx, text)
		if err != nil {
			return err
		}
		if len(result.Unresolved) > 0 {
			fmt.Fprintf(os.Stderr, "Warning: unknown placeholders left as-is: %v\n", result.Unresolved)
		}

		if restoreEML == "" && restoreDocx == "" && !restoreDraft {
			return writeOutput(result.Text, restoreCopy)
		}

		if restoreTranscript != "" {
			if err := a.Session.LoadTranscript(restoreTranscript); err != nil {
				return err
			}
		}
		draft, err := a.Session.ComposeDraft(result.Text)
		if err != nil {
			return err
		}
		draft.To = restoreTo
		return exportDraft(draft, restoreEML, restoreDocx, restoreTranscript != "", restoreCopy)
	},
}

// exportDraft writes the draft to the requested files, or prints it.
func exportDraft(d email.Draft, emlPath, docxPath string, attach, toClipboard bool) error {
	if emlPath != "" {
		if err := email.SaveEML(emlPath, d, attach); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Draft saved to %s\n", emlPath)
	}
	if docxPath != "" {
		if err := email.WriteDocx(docxPath, d); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Document saved to %s\n", docxPath)
	}
	if emlPath == "" && docxPath == "" {
		return writeOutput(d.String(), toClipboard)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().BoolVar(&restoreCopy, "copy", false, "Copy the result to the clipboard instead of printing it")
	restoreCmd.Flags().BoolVar(&restoreDraft, "draft", false, "Print the full email draft")
	restoreCmd.Flags().StringVar(&restoreEML, "eml", "", "Save the email draft as an .eml file")
	restoreCmd.Flags().StringVar(&restoreDocx, "docx", "", "Save the email draft as a .docx document")
	restoreCmd.Flags().StringVar(&restoreTranscript, "attach", "", "Attach this transcript file to the .eml draft")
	restoreCmd.Flags().StringVar(&restoreTo, "to", "", "Recipient for the .eml draft")
}
