package main

import (
	"fmt"
	"os"

	"github.com/ianremillard/pterm/internal/config"
	"github.com/ianremillard/pterm/internal/perrors"
	"github.com/spf13/cobra"
)

var socketCmd = &cobra.Command{
	Use:   "socket <name>",
	Short: "Print the resolved socket path for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		sockPath := config.SocketPath(root, args[0])
		if _, err := os.Stat(sockPath); err != nil {
			return perrors.New("cmd.socket", perrors.KindNotFound, err)
		}
		fmt.Println(sockPath)
		return nil
	},
}
