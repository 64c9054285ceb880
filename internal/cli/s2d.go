package cli

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"valuation-service/internal/s2d"
)

// NewS2DCmd scores the sale-to-delivery battery offline.
func NewS2DCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "s2d [answers.json]",
		Short: "Score sale-to-delivery answers from a JSON file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answers, err := readAnswers(cmd, args)
			if err != nil {
				return err
			}
			result := s2d.Score(answers)
			switch format {
			case "json":
				return printJSON(cmd.OutOrStdout(), result)
			case "markdown", "md":
				_, err := fmt.Fprint(cmd.OutOrStdout(), s2d.Report(result))
				return err
			default:
				return eris.Errorf("unknown format %q", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or markdown")
	return cmd
}
