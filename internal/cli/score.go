package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"valuation-service/internal/domain"
	"valuation-service/internal/questionnaire"
	"valuation-service/internal/valuation"
)

// NewScoreCmd values a completed answer set offline.
func NewScoreCmd() *cobra.Command {
	var bankPath string
	cmd := &cobra.Command{
		Use:   "score [answers.json]",
		Short: "Compute a valuation from a JSON answer file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bank := questionnaire.Default()
			if bankPath != "" {
				data, err := os.ReadFile(bankPath)
				if err != nil {
					return eris.Wrap(err, "read question bank")
				}
				if bank, err = questionnaire.ParseYAML(data); err != nil {
					return err
				}
			}
			answers, err := readAnswers(cmd, args)
			if err != nil {
				return err
			}
			if err := bank.Validate(answers); err != nil {
				return err
			}
			result := valuation.Evaluate(bank.Questions, bank.Industries, answers)
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&bankPath, "questionnaire", "", "YAML question bank (defaults to the embedded bank)")
	return cmd
}

// readAnswers decodes a JSON object from the file named in args, or stdin.
func readAnswers(cmd *cobra.Command, args []string) (domain.Answers, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, eris.Wrap(err, "open answers")
		}
		defer f.Close()
		r = f
	}
	var answers domain.Answers
	if err := json.NewDecoder(r).Decode(&answers); err != nil {
		return nil, eris.Wrap(err, "decode answers")
	}
	return answers, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
