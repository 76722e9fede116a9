// Command pterm provides persistent terminal sessions decoupled from any
// editor process: `pterm new` starts a daemon owning a PTY and child
// command, `pterm attach`/`pterm open` bridge a local terminal to it, and
// `pterm list`/`pterm socket`/`pterm kill` manage sessions by name.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ianremillard/pterm/internal/perrors"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pterm",
	Short: "Persistent terminal sessions decoupled from any editor process",
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.AddCommand(newCmd, attachCmd, openCmd, listCmd, socketCmd, killCmd, supervisorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var pe *perrors.Error
		if errors.As(err, &pe) {
			fmt.Fprintf(os.Stderr, "pterm: %s\n", pe.Error())
		} else {
			fmt.Fprintf(os.Stderr, "pterm: %s\n", err.Error())
		}
		os.Exit(perrors.ExitCode(err))
	}
}
