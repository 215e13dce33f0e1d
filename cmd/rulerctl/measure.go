package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var asJSON bool

var measureCmd = &cobra.Command{
	Use:   "measure <x,y>...",
	Short: "Measure a path from the token and print segments and labels",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMeasure,
}

func init() {
	rootCmd.AddCommand(measureCmd)
	measureCmd.Flags().BoolVar(&asJSON, "json", false, "print the ruler snapshot as JSON")
}

func runMeasure(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(ss.ruler.Snapshot(), "", "  ")
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	printSegments(out, segs, ss.scene.Grid.Units)
	printLabels(out, ss.ruler.Labels())
	printLog(out, ss.log)
	return nil
}
