package port

import (
	"fmt"

	"github.com/shinji-kodama/tunnel-launcher/internal/config"
	"github.com/shinji-kodama/tunnel-launcher/internal/model"
)

// Source names where a resolved port came from, for verbose output.
type Source string

const (
	SourceArgument Source = "argument"
	SourceConfig   Source = "config"
	SourceDefault  Source = "default"
)

// Resolve picks the port to expose from the positional arguments and the
// loaded config. cfg may be nil.
//
// An invalid positional value is reported as a CLIError with
// ExitInvalidInput rather than silently falling back to the default.
func Resolve(args []string, cfg *config.Config) (model.Port, Source, error) {
	if len(args) > 0 {
		p, err := model.ParsePort(args[0])
		if err != nil {
			return 0, "", model.WrapCLIError(model.ExitInvalidInput,
				fmt.Sprintf("invalid port argument %q", args[0]), err)
		}
		return p, SourceArgument, nil
	}

	// A file that spells out the default port still counts as config.
	if cfg != nil && (cfg.PortSet() || (cfg.Port != 0 && cfg.Port != model.DefaultPort)) {
		return cfg.Port, SourceConfig, nil
	}

	return model.DefaultPort, SourceDefault, nil
}
