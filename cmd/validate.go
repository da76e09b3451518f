package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/EdenOved/formpilot/internal/form"
)

func newValidateCmd() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Checks the configuration and run data without opening a browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}

			spec := form.SpecFromConfig(cfg.Form)
			result := form.Validate(form.NewData(spec, form.ValuesFromConfig(cfg.Run.Data)), spec)
			out := cmd.OutOrStdout()
			if result.Valid() {
				fmt.Fprintf(out, "%s Run data is valid\n", color.GreenString("✓"))
				return nil
			}
			for _, msg := range result.Messages {
				fmt.Fprintf(out, "%s %s\n", color.RedString("✗"), msg)
			}
			return fmt.Errorf("%w: %s", ErrNotAccepted, result.String())
		},
	}

	addDataFlags(validateCmd.Flags())
	validateCmd.Flags().String("url", "", "address of the page holding the form")
	return validateCmd
}
