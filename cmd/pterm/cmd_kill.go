package main

import (
	"github.com/ianremillard/pterm/internal/config"
	"github.com/ianremillard/pterm/internal/perrors"
	"github.com/ianremillard/pterm/internal/session"
	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:   "kill <name>",
	Short: "Unlink a session's socket, causing its daemon to exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		sockPath := config.SocketPath(root, args[0])
		if !session.IsAlive(sockPath) {
			return perrors.New("cmd.kill", perrors.KindNotFound, nil)
		}
		return session.Kill(sockPath)
	},
}
