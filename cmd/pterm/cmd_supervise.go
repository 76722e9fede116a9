package main

import (
	"fmt"

	"github.com/ianremillard/pterm/internal/config"
	"github.com/ianremillard/pterm/internal/session"
	"github.com/spf13/cobra"
)

// supervisorCmd is the hidden re-exec target daemonize.Spawn launches in its
// own session (setsid) with stdio redirected to /dev/null. It is never
// invoked directly by a user; `pterm new` constructs its argv.
var supervisorCmd = &cobra.Command{
	Use:    "__supervise",
	Hidden: true,
	RunE:   runSupervise,
}

var (
	supName   string
	supSocket string
	supCols   int
	supRows   int
	supLog    string
)

func init() {
	supervisorCmd.Flags().StringVar(&supName, "name", "", "")
	supervisorCmd.Flags().StringVar(&supSocket, "socket", "", "")
	supervisorCmd.Flags().IntVar(&supCols, "cols", 80, "")
	supervisorCmd.Flags().IntVar(&supRows, "rows", 24, "")
	supervisorCmd.Flags().StringVar(&supLog, "log", "", "")
}

func runSupervise(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("__supervise: missing command")
	}

	logger, err := configureLogger(cmd)
	if err != nil {
		return err
	}
	if supLog != "" {
		f, ferr := openLogFile(supLog)
		if ferr == nil {
			logger.SetOutput(f)
		}
	}

	root, err := resolveRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(config.ConfigPath(root))
	if err != nil {
		return err
	}

	s, err := session.New(session.Options{
		Name:       supName,
		SocketPath: supSocket,
		Cols:       uint16(supCols),
		Rows:       uint16(supRows),
		Command:    args[0],
		Args:       args[1:],
		Config:     cfg,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	return s.Run()
}
