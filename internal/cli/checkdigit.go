package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/labelsheet/pkg/ean"
	"github.com/matzehuels/labelsheet/pkg/errors"
)

// checkDigitCommand prints the EAN-13 check digit of each argument.
func (c *CLI) checkDigitCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "check-digit <12 digits>...",
		Aliases: []string{"ean"},
		Short:   "Compute EAN-13 check digits",
		Long: `Compute the EAN-13 check digit for 12-digit codes and print the full
13-digit code. Separators such as spaces and dashes are ignored.`,
		Example: "  labelsheet check-digit 400638133393 978-0-201-37962",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, arg := range args {
				digits := ean.Digits(arg)
				d, err := ean.CheckDigit(digits)
				if err != nil {
					printError(out, "%s: %s", arg, errors.UserMessage(err))
					failed++
					continue
				}
				fmt.Fprintf(out, "%s  %s  %s\n",
					StyleValue.Render(arg),
					StyleHighlight.Render(fmt.Sprint(d)),
					StyleSuccess.Render(fmt.Sprintf("%s%d", digits, d)))
			}
			if failed > 0 {
				return errors.New(errors.ErrCodeInvalidInput, "%d of %d codes are not 12 digits", failed, len(args))
			}
			return nil
		},
	}
}
