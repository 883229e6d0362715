// Copyright 2026 Masa Sakano
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"context"
	"fmt"

	"github.com/masasakano/file-overwrite/cmd/overwrite/opts"
	"github.com/masasakano/file-overwrite/pkg/backup"
	"github.com/masasakano/file-overwrite/pkg/config"
	"github.com/masasakano/file-overwrite/pkg/overwrite"
	"github.com/masasakano/file-overwrite/pkg/status"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// applyArgs carries the flag values shared by apply and preview.
type applyArgs struct {
	dryRun          bool
	backupPath      string
	backupSuffix    string
	timestampBackup bool
	noBackup        bool
	clobber         bool
	touch           bool
	sizes           bool
	inputEnc        string
	outputEnc       string
	transferEnc     string
	verbose         bool
}

// NewApplyCmd creates a new apply command
func NewApplyCmd(root *opts.RootOpts) *cobra.Command {
	var flags applyArgs

	cmd := &cobra.Command{
		Use:   "apply FILE",
		Short: "Apply the configured rules to a file and rewrite it in place",
		Long: `Apply runs the rules file against FILE and commits the result.
It will:
1. Select the rules whose file globs match FILE
2. Run each rule against the staged text, in order
3. Skip the write when the result is byte-identical
4. Back up the original if configured, then rename the replacement into place`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "apply").Logger().WithContext(ctx)

			// TODO(masa): accept multiple FILE arguments once the report
			// lines carry enough context to interleave.
			return runApply(ctx, cmd, root, args[0], flags)
		},
	}

	addApplyFlags(cmd, &flags)
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "decide and report without touching the file")

	return cmd
}

// addApplyFlags registers the flags apply and preview share.
func addApplyFlags(cmd *cobra.Command, flags *applyArgs) {
	addBackupFlags(cmd, flags)
	cmd.Flags().BoolVar(&flags.clobber, "clobber", false, "allow overwriting an existing backup file")
	cmd.Flags().BoolVar(&flags.touch, "touch", false, "update the modification time even when content is identical")
	cmd.Flags().BoolVar(&flags.sizes, "sizes", false, "report old and new byte counts on replacement")
	cmd.Flags().StringVar(&flags.inputEnc, "input-encoding", "", "charset of the file content (IANA name)")
	cmd.Flags().StringVar(&flags.outputEnc, "output-encoding", "", "charset to write (defaults to the input charset)")
	cmd.Flags().StringVar(&flags.transferEnc, "transfer-encoding", "", "charset the replacement text must stay representable in")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "log commit decisions and print an aligned summary line")
}

// addBackupFlags registers the backup selectors. They are mutually
// exclusive; whichever is given replaces the rules file's policy.
func addBackupFlags(cmd *cobra.Command, flags *applyArgs) {
	cmd.Flags().StringVar(&flags.backupPath, "backup", "", "write the backup to this exact path")
	cmd.Flags().StringVar(&flags.backupSuffix, "backup-suffix", "", "append this suffix to the target for the backup path")
	cmd.Flags().BoolVar(&flags.timestampBackup, "timestamp-backup", false, "use the timestamped .YYYYMMDDHHMMSS.bak suffix")
	cmd.Flags().BoolVar(&flags.noBackup, "no-backup", false, "keep no copy of the original")
	cmd.MarkFlagsMutuallyExclusive("backup", "backup-suffix", "timestamp-backup", "no-backup")
}

// runApply is the shared engine behind apply and preview: stage the
// target, run the matching rules, commit, report.
func runApply(ctx context.Context, cmd *cobra.Command, root *opts.RootOpts, target string, flags applyArgs) error {
	cfg := root.Config
	if cfg == nil {
		return errors.Errorf("no rules file at %s (set --config or OVERWRITE_CONFIG)", root.ConfigPath)
	}

	rules, err := cfg.RulesFor(target)
	if err != nil {
		return errors.Errorf("selecting rules: %w", err)
	}
	if len(rules) == 0 {
		zerolog.Ctx(ctx).Warn().Str("target", target).Msg("no rules apply to this target")
	}

	sess, err := overwrite.New(ctx, target, sessionOptions(cmd, cfg, flags))
	if err != nil {
		return err
	}
	defer sess.Close()

	policy := cfg.BackupPolicy()
	if p, ok := flagPolicy(flags); ok {
		policy = p
	}
	if err := sess.SetBackup(policy); err != nil {
		return err
	}

	for _, rule := range rules {
		n, err := runRule(ctx, sess, rule)
		if err != nil {
			return err
		}
		root.UserLogger.LogRule(rule.DisplayName(), n)
	}

	outcome, err := sess.Commit(ctx)
	if err != nil {
		root.UserLogger.LogCommit(status.CommitReport{Path: target, DryRun: flags.dryRun, Err: err})
		return errors.Errorf("committing %s: %w", target, err)
	}

	report := status.CommitReport{
		Path:       target,
		Status:     outcome.Status.String(),
		BackupPath: outcome.BackupPath,
		DryRun:     flags.dryRun,
	}
	if outcome.Sizes != nil {
		report.OldBytes = outcome.Sizes.OldBytes
		report.NewBytes = outcome.Sizes.NewBytes
		report.HasSizes = true
	}
	root.UserLogger.LogCommit(report)
	if flags.verbose {
		fmt.Fprintln(cmd.OutOrStdout(), root.Formatter.FormatCommit(report))
	}

	return nil
}

// runRule compiles and executes one rule against the session, returning
// the substitution count.
func runRule(ctx context.Context, sess *overwrite.Session, rule config.Rule) (int, error) {
	re, err := rule.Compile()
	if err != nil {
		return 0, err
	}
	fn := rule.Transform()

	if rule.All {
		max, err := rule.MaxCount()
		if err != nil {
			return 0, err
		}
		n, err := sess.ReplaceAll(ctx, re, fn, max)
		if err != nil {
			return 0, errors.Errorf("rule %s: %w", rule.DisplayName(), err)
		}
		return n, nil
	}

	ok, err := sess.ReplaceFirst(ctx, re, fn)
	if err != nil {
		return 0, errors.Errorf("rule %s: %w", rule.DisplayName(), err)
	}
	if !ok {
		return 0, nil
	}
	return 1, nil
}

// sessionOptions merges the rules file's settings with the command
// line. Flags win when given; Changed distinguishes an explicit
// --clobber=false from an unset flag.
func sessionOptions(cmd *cobra.Command, cfg *config.Config, flags applyArgs) overwrite.Options {
	o := overwrite.Options{
		DryRun:         flags.dryRun,
		Verbose:        flags.verbose,
		AllowClobber:   cfg.AllowClobber,
		ForceTimestamp: cfg.ForceTimestamp,
		ReportSizes:    flags.sizes,
		Codec:          cfg.Codec(),
	}
	if cmd.Flags().Changed("clobber") {
		o.AllowClobber = flags.clobber
	}
	if cmd.Flags().Changed("touch") {
		o.ForceTimestamp = flags.touch
	}
	if flags.inputEnc != "" {
		o.Codec.Input = flags.inputEnc
	}
	if flags.outputEnc != "" {
		o.Codec.Output = flags.outputEnc
	}
	if flags.transferEnc != "" {
		o.Codec.Transfer = flags.transferEnc
	}
	return o
}

// flagPolicy converts the backup flags to a policy. ok is false when no
// backup flag was given, leaving the rules file's policy in charge.
func flagPolicy(flags applyArgs) (backup.Policy, bool) {
	switch {
	case flags.noBackup:
		return backup.Policy{Suffix: backup.None()}, true
	case flags.backupPath != "":
		return backup.Policy{Path: flags.backupPath}, true
	case flags.backupSuffix != "":
		return backup.Policy{Suffix: backup.Literal(flags.backupSuffix)}, true
	case flags.timestampBackup:
		return backup.Policy{Suffix: backup.Timestamped()}, true
	}
	return backup.Policy{}, false
}
