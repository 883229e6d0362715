package commands

import (
	"fmt"
	"time"

	"github.com/masasakano/file-overwrite/cmd/overwrite/opts"
	"github.com/masasakano/file-overwrite/pkg/backup"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewBackupPathCmd creates a new backup-path command
func NewBackupPathCmd(root *opts.RootOpts) *cobra.Command {
	var flags applyArgs

	cmd := &cobra.Command{
		Use:   "backup-path FILE",
		Short: "Print the backup path a replacing commit would use",
		Long: `Backup-path resolves the backup destination for FILE from the flags or
the rules file and prints it, staging and committing nothing. Nothing
is printed when backups are disabled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			target := args[0]

			policy := backupPolicy(root)
			if p, ok := flagPolicy(flags); ok {
				policy = p
			}

			path := policy.Resolve(target, "", time.Now())
			if path == "" {
				zerolog.Ctx(ctx).Info().Str("target", target).Msg("no backup would be created")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	addBackupFlags(cmd, &flags)

	return cmd
}

// backupPolicy returns the rules file's policy, or the zero policy when
// no rules file was loaded.
func backupPolicy(root *opts.RootOpts) backup.Policy {
	if root.Config == nil {
		return backup.Policy{}
	}
	return root.Config.BackupPolicy()
}
