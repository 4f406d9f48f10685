package main

import (
	"github.com/spf13/cobra"
)

var (
	draftEML        string
	draftDocx       string
	draftTranscript string
	draftTo         string
	draftCopy       bool
)

var draftCmd = &cobra.Command{
	Use:   "draft [summary]",
	Short: "Wrap an already restored summary in the email intro and signature",
	Long: `Composes the email draft from a restored summary (file, stdin "-" or
clipboard). Prints it, or saves it with --eml and/or --docx.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := readInput(argOrEmpty(args))
		if err != nil {
			return err
		}
		if draftTranscript != "" {
			if err := a.Session.LoadTranscript(draftTranscript); err != nil {
				return err
			}
		}

		d, err := a.Session.ComposeDraft(summary)
		if err != nil {
			return err
		}
		d.To = draftTo
		return exportDraft(d, draftEML, draftDocx, draftTranscript != "", draftCopy)
	},
}

func init() {
	rootCmd.AddCommand(draftCmd)
	draftCmd.Flags().StringVar(&draftEML, "eml", "", "Save the draft as an .eml file")
	draftCmd.Flags().StringVar(&draftDocx, "docx", "", "Save the draft as a .docx document")
	draftCmd.Flags().StringVar(&draftTranscript, "attach", "", "Attach this transcript file to the .eml draft")
	draftCmd.Flags().StringVar(&draftTo, "to", "", "Recipient for the .eml draft")
	draftCmd.Flags().BoolVar(&draftCopy, "copy", false, "Copy the draft to the clipboard instead of printing it")
}
