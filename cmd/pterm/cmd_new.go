package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ianremillard/pterm/internal/config"
	"github.com/ianremillard/pterm/internal/daemonize"
	"github.com/ianremillard/pterm/internal/perrors"
	"github.com/ianremillard/pterm/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	newCols int
	newRows int
)

var newCmd = &cobra.Command{
	Use:   "new <name> [-- cmd args...]",
	Short: "Create and daemonize a new PTY session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := configureLogger(cmd)
		if err != nil {
			return err
		}
		name := args[0]
		rest := args[1:]
		_, err = createSession(logger, name, newCols, newRows, rest)
		if err != nil {
			return err
		}
		fmt.Println(name)
		return nil
	},
}

func init() {
	newCmd.Flags().IntVar(&newCols, "cols", 80, "initial terminal columns")
	newCmd.Flags().IntVar(&newRows, "rows", 24, "initial terminal rows")
}

// createSession daemonizes a fresh session named name and blocks until its
// socket is observable or the daemonize timeout elapses. It returns the
// resolved socket path.
func createSession(logger *logrus.Logger, name string, cols, rows int, cmdArgs []string) (string, error) {
	root, err := resolveRoot()
	if err != nil {
		return "", err
	}
	cfgPath := config.ConfigPath(root)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return "", err
	}

	sockPath := config.SocketPath(root, name)
	if session.IsAlive(sockPath) {
		return "", perrors.New("cmd.new", perrors.KindAlreadyRunning,
			fmt.Errorf("session %q already has a live daemon", name))
	}
	if err := os.MkdirAll(config.SessionDir(root, name), 0o700); err != nil {
		return "", perrors.New("cmd.new", perrors.KindPtyIO, err)
	}

	command := config.DefaultShell()
	var shellArgs []string
	if len(cmdArgs) > 0 {
		command = cmdArgs[0]
		shellArgs = cmdArgs[1:]
	}

	supArgs := []string{
		"__supervise",
		"--name", name,
		"--socket", sockPath,
		"--cols", itoa(cols),
		"--rows", itoa(rows),
		"--log", config.LogPath(root, name),
		"--",
		command,
	}
	supArgs = append(supArgs, shellArgs...)

	timeout := time.Duration(cfg.DaemonizeTimeoutMS) * time.Millisecond
	if err := daemonize.Spawn(supArgs, sockPath, timeout, session.IsAlive); err != nil {
		return "", err
	}
	return sockPath, nil
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
