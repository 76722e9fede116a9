package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/ianremillard/pterm/internal/session"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/spf13/cobra"
)

var listWatch bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		if listWatch {
			return watchSessions(root)
		}
		infos, err := session.List(root)
		if err != nil {
			return err
		}
		printSessions(infos)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listWatch, "watch", false, "redraw the session table once per second until interrupted")
}

// watchSessions redraws the session table once per second in the terminal's
// alternate screen buffer, the same shape as the teacher's `grove watch`
// (entering/leaving the alternate buffer, a one-second ticker, SIGINT/SIGTERM
// restoring the screen before exit) minus its project/branch banner, which
// has no equivalent in a session daemon's table.
func watchSessions(root string) error {
	fmt.Print("\033[?1049h\033[?25l")
	defer fmt.Print("\033[?25h\033[?1049l")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	redraw := func() {
		infos, err := session.List(root)
		fmt.Print("\033[H")
		if err != nil {
			fmt.Printf("list failed: %v\n\033[J", err)
			return
		}
		printSessions(infos)
		fmt.Print("\033[J")
	}

	redraw()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-sigCh:
			return nil
		case <-ticker.C:
			redraw()
		}
	}
}

// printSessions renders a name-ordered table of sessions. The encounter
// order from session.List (filesystem walk order) is preserved via an
// ordered map rather than re-sorted, matching how the teacher's instance
// listing preserves scan order. session.List only reports sessions with a
// live listener, so every row is running; there is no "dead" state to render.
func printSessions(infos []session.Info) {
	om := orderedmap.New[string, session.Info]()
	for _, info := range infos {
		om.Set(info.Name, info)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATE\tAGE")
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		info := pair.Value
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, stateLabel(), ageLabel(info.ModTime))
	}
	w.Flush()
}

func stateLabel() string {
	return color.GreenString("running")
}

func ageLabel(modTime time.Time) string {
	if modTime.IsZero() {
		return "-"
	}
	return humanize.Time(modTime)
}
