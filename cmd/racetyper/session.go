package main

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/racetyper/internal/analysis"
	"github.com/verte-zerg/racetyper/internal/config"
	"github.com/verte-zerg/racetyper/internal/model"
	"github.com/verte-zerg/racetyper/internal/stats"
)

var (
	replaySegments   int
	sessionListLimit int
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect stored sessions",
	}
	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionReplayCmd())
	cmd.AddCommand(newSessionListCmd())
	return cmd
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored session result",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionShowCmd,
	}
}

func runSessionShowCmd(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := st.SessionByID(commandContext(cmd), id)
	if err != nil {
		return errors.Wrap(err, "load session failed")
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, res); err != nil {
		return err
	}
	if err := stats.RenderSegmentTable(out, res.Segments); err != nil {
		return err
	}
	return stats.RenderSegmentChart(out, res.Segments, 0)
}

func newSessionReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <id>",
		Short: "Recompute a stored session from its edit log",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionReplayCmd,
	}
	cmd.Flags().IntVar(&replaySegments, "segments", 0, "segment count (default from config)")
	return cmd
}

func runSessionReplayCmd(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	cfg := config.DefaultServerConfig()
	if err := fileCfg.Apply(&cfg); err != nil {
		return errors.Wrap(err, "apply config failed")
	}
	segments := cfg.Session.Segments
	if replaySegments > 0 {
		segments = replaySegments
	}

	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := commandContext(cmd)
	res, err := st.SessionByID(ctx, id)
	if err != nil {
		return errors.Wrap(err, "load session failed")
	}
	text, err := st.TextByID(ctx, res.ParentID)
	if err != nil {
		return errors.Wrap(err, "load text failed")
	}
	var events []model.EditEvent
	if err := json.Unmarshal([]byte(res.Inputs), &events); err != nil {
		return errors.Wrap(err, "decode stored inputs failed")
	}

	result, err := analysis.Analyze(text.Body, events, segments, cfg.Session.Rendering)
	if err != nil {
		return errors.Wrap(err, "analyze failed")
	}
	for _, skipped := range result.Skipped {
		logger.WithError(skipped.Err).WithField("index", skipped.Index).Warn("edit event skipped during replay")
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Replayed session %d: %d events, WPM %d (stored %d), complete=%t\n\n",
		res.ID, len(events), result.WPM, res.WPM, result.Complete); err != nil {
		return err
	}
	if err := stats.RenderSegmentTable(out, result.Segments); err != nil {
		return err
	}
	return stats.RenderSegmentChart(out, result.Segments, 0)
}

func newSessionListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionListCmd,
	}
	cmd.Flags().IntVar(&sessionListLimit, "limit", defaultListLimit, "maximum number of sessions (0 for all)")
	return cmd
}

func runSessionListCmd(cmd *cobra.Command, _ []string) error {
	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions, err := st.ListSessions(commandContext(cmd), sessionListLimit)
	if err != nil {
		return errors.Wrap(err, "list sessions failed")
	}
	if len(sessions) == 0 {
		logErrf("No sessions yet. Play one with: racetyper play\n")
		return nil
	}
	out := cmd.OutOrStdout()
	for _, s := range sessions {
		created := "-"
		if !s.CreatedAt.IsZero() {
			created = s.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(out, "%5d  %s  text %-5d  %3d wpm\n", s.ID, created, s.ParentID, s.WPM); err != nil {
			return err
		}
	}
	return nil
}
