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

package main

import (
	"context"
	"os"

	"github.com/masasakano/file-overwrite/cmd/overwrite/commands"
	"github.com/masasakano/file-overwrite/cmd/overwrite/opts"
	"github.com/masasakano/file-overwrite/pkg/status"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	ctx := log.Logger.WithContext(context.Background())

	// Create user logger
	userLogger := status.NewUserLogger(ctx)

	// Shared options, filled once flags are parsed
	root := &opts.RootOpts{}

	// Create root command
	rootCmd := &cobra.Command{
		Use:   "overwrite",
		Short: "Rewrite files in place with staged, atomic replacement",
		Long: `overwrite stages replacement content for a file, skips the write when
the result is byte-identical, and otherwise swaps the new content in
atomically, keeping the original as a backup when asked to.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Logging and config loading depend on parsed flag values.
			setupLogging()
			return newRootOpts(cmd.Context(), root)
		},
	}
	rootCmd.Version = GetVersionInfo().Version
	rootCmd.SetVersionTemplate(FormatVersion())

	// Add shared flags
	addRootFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(
		commands.NewApplyCmd(root),
		commands.NewPreviewCmd(root),
		commands.NewBackupPathCmd(root),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		userLogger.LogValidation(false, "Command failed", err)
		os.Exit(1)
	}
}
