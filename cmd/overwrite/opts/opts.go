package opts

import (
	"github.com/masasakano/file-overwrite/pkg/config"
	"github.com/masasakano/file-overwrite/pkg/status"
)

// RootOpts contains shared options used by all commands. The fields are
// filled after flag parsing, so commands read them inside RunE, never at
// construction time.
type RootOpts struct {
	Config     *config.Config // nil when the rules file does not exist
	ConfigPath string
	UserLogger *status.UserLogger
	Formatter  status.FileFormatter
}
