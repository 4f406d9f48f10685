package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var (
	defaultsPrompt    string
	defaultsIntro     string
	defaultsSignature string
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Show or change the prompt prefix and email texts",
}

var defaultsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current texts as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a.Session.Defaults())
	},
}

var defaultsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one or more texts; the rest keep their value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		text := a.Session.Defaults()
		if cmd.Flags().Changed("prompt-prefix") {
			text.PromptPrefix = defaultsPrompt
		}
		if cmd.Flags().Changed("intro") {
			text.EmailIntro = defaultsIntro
		}
		if cmd.Flags().Changed("signature") {
			text.EmailSignature = defaultsSignature
		}
		_, err = a.Session.UpdateDefaults(ctx, text)
		return err
	},
}

func init() {
	rootCmd.AddCommand(defaultsCmd)
	defaultsCmd.AddCommand(defaultsShowCmd, defaultsSetCmd)

	defaultsSetCmd.Flags().StringVar(&defaultsPrompt, "prompt-prefix", "", "Text placed before the anonymized transcript")
	defaultsSetCmd.Flags().StringVar(&defaultsIntro, "intro", "", "Email greeting placed before the summary")
	defaultsSetCmd.Flags().StringVar(&defaultsSignature, "signature", "", "Email closing placed after the summary")
}
