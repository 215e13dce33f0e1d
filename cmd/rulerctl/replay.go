package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Garsondee/elevation-ruler/internal/ruler"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <snapshot.json>",
	Short: "Show a ruler snapshot as another user would see it",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap ruler.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	ss, err := newSession()
	if err != nil {
		return err
	}
	segs := ss.ruler.Replay(snap)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ruler of %s\n", snap.User)
	printSegments(out, segs, ss.scene.Grid.Units)
	printLabels(out, ss.ruler.Labels())
	printLog(out, ss.log)
	return nil
}
