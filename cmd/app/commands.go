package main

import (
	"github.com/urfave/cli/v3"

	"github.com/allisson/kds/internal/config"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getKeyCommands()...)
	cmds = append(cmds, getClientCommands()...)
	return cmds
}

// loadConfig loads the environment configuration and rejects it before the
// container creates anything from it, the master key file included.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
