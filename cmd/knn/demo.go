package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kneighbors/pkg/array"
	"kneighbors/pkg/neighbors"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Classify the first two iris samples using the rest as training data",
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	opts, err := flagOptions(cmd, logger)
	if err != nil {
		return err
	}
	clf, err := neighbors.New[float64, int](opts...)
	if err != nil {
		return err
	}

	x, err := array.FromRows(irisSample)
	if err != nil {
		return err
	}
	train, err := x.Slice(2, x.Len())
	if err != nil {
		return err
	}
	query, err := x.Slice(0, 2)
	if err != nil {
		return err
	}

	if err := clf.Fit(train, irisTarget[2:]); err != nil {
		return err
	}
	pred, err := clf.Predict(query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "k=%d metric=%s\n", clf.NNeighbors(), clf.Metric().Name())
	for i, p := range pred {
		fmt.Fprintf(out, "  sample %d: predicted %d (actual %d)\n", i, p, irisTarget[i])
	}
	return nil
}
