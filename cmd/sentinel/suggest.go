package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raaihank/meeting-sentinel/internal/tui"
)

var (
	suggestInteractive bool
	suggestAccept      bool
	suggestJSON        bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [transcript]",
	Short: "Suggest people and companies that are not in the name lists yet",
	Long: `Runs entity recognition over a transcript (file, stdin "-" or clipboard) and
lists names not yet known. --interactive opens a picker to choose which to
add; --accept adds all of them.`,
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
		a.Session.SetTranscript(text)

		sugg, err := a.Session.Suggest(ctx)
		if err != nil {
			return err
		}

		people, companies := sugg.People, sugg.Companies
		switch {
		case suggestInteractive:
			var ok bool
			people, companies, ok, err = tui.Pick(ctx, sugg, os.Stdin, os.Stderr)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(os.Stderr, "Cancelled, nothing added.")
				return nil
			}
		case !suggestAccept:
			if suggestJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(sugg)
			}
			if sugg.Empty() {
				fmt.Fprintln(stdout, "No new names found.")
				return nil
			}
			fmt.Fprintf(stdout, "People:    %s\n", strings.Join(sugg.People, ", "))
			fmt.Fprintf(stdout, "Companies: %s\n", strings.Join(sugg.Companies, ", "))
			return nil
		}

		list, err := a.Session.AcceptSuggestions(ctx, people, companies)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Added %d people and %d companies (now %d and %d).\n",
			len(people), len(companies), len(list.People), len(list.Companies))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestCmd.Flags().BoolVarP(&suggestInteractive, "interactive", "i", false, "Pick suggestions in a terminal UI")
	suggestCmd.Flags().BoolVar(&suggestAccept, "accept", false, "Add every suggestion")
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "Output suggestions as JSON")
}
