package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// presetsCommand lists the preset catalog, including presets from the
// config file.
func (c *CLI) presetsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List label sheet presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			presets := cfg.Catalog().All()
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(presets)
			}

			fmt.Fprintln(out, StyleTitle.Render("Label sheet presets"))
			fmt.Fprintln(out, presetTable(presets, cfg.Defaults.Preset))
			printNextStep(out, "Use one", "labelsheet render codes.xlsx --preset <name>")
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}
