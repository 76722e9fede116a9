package main

import (
	"os"

	"github.com/ianremillard/pterm/internal/bridge"
	"github.com/ianremillard/pterm/internal/config"
	"github.com/spf13/cobra"
)

var (
	openCols int
	openRows int
)

var openCmd = &cobra.Command{
	Use:   "open <name> [-- cmd args...]",
	Short: "Attach to a session, creating it first if it does not exist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := configureLogger(cmd)
		if err != nil {
			return err
		}
		name := args[0]
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(config.ConfigPath(root))
		if err != nil {
			return err
		}
		sockPath := config.SocketPath(root, name)

		if _, err := os.Stat(sockPath); err != nil {
			if _, cerr := createSession(logger, name, openCols, openRows, args[1:]); cerr != nil {
				return cerr
			}
		}

		code, err := bridge.Run(sockPath, uint32(cfg.MaxFrameLenBytes), logger)
		if err != nil {
			return err
		}
		os.Exit(code)
		return nil
	},
}

func init() {
	openCmd.Flags().IntVar(&openCols, "cols", 80, "initial terminal columns")
	openCmd.Flags().IntVar(&openRows, "rows", 24, "initial terminal rows")
}
