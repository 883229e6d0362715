package main

import (
	"context"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/masasakano/file-overwrite/cmd/overwrite/opts"
	"github.com/masasakano/file-overwrite/pkg/config"
	"github.com/masasakano/file-overwrite/pkg/status"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/term"
)

var (
	// Flags
	configFile string
	debug      bool
)

// newRootOpts fills the shared options with initialized dependencies.
// A missing rules file is tolerated: Config stays nil and the commands
// that need one say so. A rules file that exists but does not parse or
// validate is fatal.
func newRootOpts(ctx context.Context, o *opts.RootOpts) error {
	o.ConfigPath = configFile
	o.UserLogger = status.NewUserLogger(ctx)
	o.Formatter = status.NewDefaultFileFormatter()

	cfg, err := config.Load(ctx, configFile)
	switch {
	case err == nil:
		o.Config = cfg
	case errors.Is(err, fs.ErrNotExist):
		zerolog.Ctx(ctx).Debug().
			Str("path", configFile).
			Msg("rules file not found; continuing without config")
	default:
		return errors.Errorf("loading config: %w", err)
	}

	return nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c",
		env.Str("OVERWRITE_CONFIG", ".overwrite.yaml"), "rules file path (env OVERWRITE_CONFIG)")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d",
		env.Bool("OVERWRITE_DEBUG"), "enable debug logging (env OVERWRITE_DEBUG)")
}

// setupLogging configures zerolog and the console printers from the
// parsed flags. Colors are dropped when stderr is not a terminal.
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		pterm.EnableDebugMessages()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log

	if !term.IsTerminal(int(os.Stderr.Fd())) {
		pterm.DisableColor()
		color.NoColor = true
	}
}
