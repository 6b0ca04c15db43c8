package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/map-veto-backend/internal/template"
)

var (
	validateMaps  []string
	validateRules []string
)

func init() {
	validateCmd.Flags().StringSliceVar(&validateMaps, "maps", nil, "comma-separated map pool")
	validateCmd.Flags().StringSliceVar(&validateRules, "rules", nil, "comma-separated steps (Ban, Pick, Side, Continue)")
	_ = validateCmd.MarkFlagRequired("maps")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [name]",
	Short: "Check that a template's maps and rules can run as a veto",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tpl := template.Template{Name: "cli", Maps: validateMaps, Rules: validateRules}
		if len(args) == 1 {
			tpl.Name = args[0]
		}
		if err := tpl.Validate(); err != nil {
			return err
		}
		program, err := tpl.Program()
		if err != nil {
			return err
		}
		bans, picks, sides := program.Counts()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d maps; %d bans, %d picks, %d sides)\n",
			tpl.Name, len(tpl.Maps), bans, picks, sides)
		return nil
	},
}
