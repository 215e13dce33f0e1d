package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	tokenID    string
	combat     bool
	levelsUI   bool
	verbose    bool
	increments int
	forcePath  bool
	gridless   bool
)

var rootCmd = &cobra.Command{
	Use:   "rulerctl",
	Short: "Measure and move tokens across the demo canvas from the command line",
	Long: `rulerctl runs the elevation ruler headless against the demo canvas.
Points are given as x,y in canvas pixels; the last point is the destination
and any before it are waypoints. Settings come from ELEVATION_RULER_* variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&tokenID, "token", "scout", "token to measure from")
	pf.BoolVar(&combat, "combat", false, "measure inside a combat encounter")
	pf.BoolVar(&levelsUI, "levels-ui", false, "treat the levels UI as open")
	pf.BoolVar(&verbose, "verbose", false, "print the event log")
	pf.IntVar(&increments, "elevation", 0, "destination elevation change in grid steps")
	pf.BoolVar(&forcePath, "toggle-pathfinding", false, "invert the configured pathfinding setting")
	pf.BoolVar(&gridless, "gridless", false, "measure on a gridless canvas")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
