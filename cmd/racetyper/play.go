package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/racetyper/internal/client"
	"github.com/verte-zerg/racetyper/internal/log"
	"github.com/verte-zerg/racetyper/internal/tui"
)

const defaultPlayURL = "ws://localhost:8080/ws/"

var (
	playURL    string
	playTextID int64
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Type against a racetyper server in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runPlayCmd,
	}
	cmd.Flags().StringVar(&playURL, "url", defaultPlayURL, "server WebSocket URL")
	cmd.Flags().Int64Var(&playTextID, "text", 0, "text id to type (default random)")
	return cmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	// Log lines would corrupt the alternate screen.
	conn, err := client.Dial(commandContext(cmd), playURL, log.Discard())
	if err != nil {
		return errors.Wrap(err, "connect failed")
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logErrf("failed to close connection: %v\n", cerr)
		}
	}()

	var textID *int64
	if playTextID > 0 {
		textID = &playTextID
	}
	program := tea.NewProgram(tui.NewModel(conn, textID), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return errors.Wrap(err, "run TUI failed")
	}
	return nil
}
