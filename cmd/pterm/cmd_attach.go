package main

import (
	"os"

	"github.com/ianremillard/pterm/internal/bridge"
	"github.com/ianremillard/pterm/internal/config"
	"github.com/ianremillard/pterm/internal/perrors"
	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach <name>",
	Short: "Attach the controlling terminal to an existing session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := configureLogger(cmd)
		if err != nil {
			return err
		}
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(config.ConfigPath(root))
		if err != nil {
			return err
		}
		sockPath := config.SocketPath(root, args[0])
		if _, err := os.Stat(sockPath); err != nil {
			return perrors.New("cmd.attach", perrors.KindNotFound, err)
		}
		code, err := bridge.Run(sockPath, uint32(cfg.MaxFrameLenBytes), logger)
		if err != nil {
			return err
		}
		os.Exit(code)
		return nil
	},
}
