package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	namesJSON      bool
	editPeople     string
	editCompanies  string
	addPeople      []string
	addCompanies   []string
	importFromClip bool
)

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "Manage the people and company lists",
}

var namesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the known names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		list := a.Session.Names()
		if namesJSON {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}
		fmt.Fprintf(stdout, "People (%d):    %s\n", len(list.People), strings.Join(list.People, ", "))
		fmt.Fprintf(stdout, "Companies (%d): %s\n", len(list.Companies), strings.Join(list.Companies, ", "))
		return nil
	},
}

var namesEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Replace the lists with comma-separated values",
	Long: `Replaces a list with the given comma-separated names. A list whose flag is
not given keeps its current value.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		current := a.Session.Names()
		people := strings.Join(current.People, ",")
		companies := strings.Join(current.Companies, ",")
		if cmd.Flags().Changed("people") {
			people = editPeople
		}
		if cmd.Flags().Changed("companies") {
			companies = editCompanies
		}
		return a.Session.EditNames(ctx, people, companies)
	},
}

var namesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append names to the lists, skipping ones already known",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = a.Session.AcceptSuggestions(ctx, addPeople, addCompanies)
		return err
	},
}

var namesImportCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Replace both lists from a two-line CSV file",
	Long: `Imports the two-line CSV format: people on the first line, companies on
the second. Reads stdin for "-", or the clipboard with --clipboard.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !importFromClip {
			return fmt.Errorf("give a CSV file, \"-\" for stdin, or --clipboard")
		}
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
		if err := a.Session.ImportCSV(ctx, []byte(text)); err != nil {
			return err
		}
		list := a.Session.Names()
		fmt.Fprintf(os.Stderr, "Imported %d people and %d companies.\n", len(list.People), len(list.Companies))
		return nil
	},
}

var namesExportCmd = &cobra.Command{
	Use:   "export [file.csv]",
	Short: "Write both lists as a two-line CSV file (stdout when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var buf bytes.Buffer
		if err := a.Session.ExportCSV(&buf); err != nil {
			return err
		}
		if len(args) == 0 || args[0] == "-" {
			_, err := stdout.Write(buf.Bytes())
			return err
		}
		return os.WriteFile(args[0], buf.Bytes(), 0o600)
	},
}

func init() {
	rootCmd.AddCommand(namesCmd)
	namesCmd.AddCommand(namesListCmd, namesEditCmd, namesAddCmd, namesImportCmd, namesExportCmd)

	namesListCmd.Flags().BoolVar(&namesJSON, "json", false, "Output in JSON format")
	namesEditCmd.Flags().StringVar(&editPeople, "people", "", "Comma-separated people")
	namesEditCmd.Flags().StringVar(&editCompanies, "companies", "", "Comma-separated companies")
	namesAddCmd.Flags().StringSliceVarP(&addPeople, "person", "p", nil, "Person to add (repeatable)")
	namesAddCmd.Flags().StringSliceVarP(&addCompanies, "company", "o", nil, "Company to add (repeatable)")
	namesImportCmd.Flags().BoolVar(&importFromClip, "clipboard", false, "Read the CSV from the clipboard")
}
