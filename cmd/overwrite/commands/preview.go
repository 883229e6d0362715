package commands

import (
	"github.com/masasakano/file-overwrite/cmd/overwrite/opts"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewPreviewCmd creates a new preview command
func NewPreviewCmd(root *opts.RootOpts) *cobra.Command {
	var flags applyArgs

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Show what apply would do without touching the file",
		Long: `Preview runs the same rules and commit decisions as apply with dry-run
forced on: it reports the outcome, the backup path and the sizes, and
leaves the filesystem alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "preview").Logger().WithContext(ctx)

			flags.dryRun = true
			return runApply(ctx, cmd, root, args[0], flags)
		},
	}

	addApplyFlags(cmd, &flags)

	return cmd
}
