package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:   "move <x,y>...",
	Short: "Measure a path and drop the token along it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMove,
}

func init() {
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	points, err := parsePoints(args)
	if err != nil {
		return err
	}
	ss, err := newSession()
	if err != nil {
		return err
	}
	segs, err := ss.measure(tokenID, points, increments)
	if err != nil {
		return err
	}
	total := ss.ruler.TotalMoveDistance()

	out := cmd.OutOrStdout()
	printSegments(out, segs, ss.scene.Grid.Units)
	if err := ss.svc.MoveToken(cmd.Context(), ss.ruler); err != nil {
		printLog(out, ss.log)
		return err
	}

	tok, _ := ss.scene.Token(tokenID)
	fmt.Fprintf(out, "\n%s at (%.0f,%.0f) elevation %g %s, moved %g %s\n",
		tok.ID, tok.X, tok.Y, tok.Elevation, ss.scene.Grid.Units, total, ss.scene.Grid.Units)
	if ss.scene.InCombat() {
		fmt.Fprintf(out, "moved this round: %g %s\n", tok.LastMoveDistance, ss.scene.Grid.Units)
	}
	printLog(out, ss.log)
	return nil
}
