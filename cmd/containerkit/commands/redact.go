package commands

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/systmms/containerkit/pkg/redact"
)

func NewRedactCommand(app *App) *cobra.Command {
	var words []string

	cmd := &cobra.Command{
		Use:   "redact",
		Short: "Filter stdin to stdout, masking known secrets",
		Long: `Copy stdin to stdout with every known secret replaced by asterisks.

The vocabulary is built from the secret folder plus any --word extras,
each expanded to the encoded forms that tend to leak into logs.

Examples:
  # Scrub a captured log
  containerkit redact < task.log > task.scrubbed.log

  # Add an ad-hoc secret
  some-tool 2>&1 | containerkit redact --word "$API_TOKEN"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Vocab.Add(words...)

			w := redact.NewWriter(cmd.OutOrStdout(), app.Vocab)
			if _, err := io.Copy(w, cmd.InOrStdin()); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&words, "word", nil, "Additional secret to mask (repeatable)")
	return cmd
}
