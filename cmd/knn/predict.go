package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"kneighbors/pkg/distance"
	"kneighbors/pkg/neighbors"
)

var configPath string

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Fit on the dataset's training rows and classify its query rows",
	Long: `Fit on the dataset's training rows and classify its query rows.

The dataset file is YAML:

  classifier:
    n_neighbors: 3
    metric: {kind: minkowski, p: 2}
  train:
    x: [[0, 0], [1, 0], [5, 5]]
    y: [a, a, b]
  query: [[0.5, 0.2]]`,
	RunE: runPredict,
}

var pairwiseCmd = &cobra.Command{
	Use:   "pairwise",
	Short: "Print the distance matrix between the dataset's query and training rows",
	Long: `Print the distance matrix between the dataset's query and training rows.
Without training rows the matrix is computed within the query rows.`,
	RunE: runPairwise,
}

func init() {
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(pairwiseCmd)

	for _, c := range []*cobra.Command{predictCmd, pairwiseCmd} {
		c.Flags().StringVarP(&configPath, "config", "c", "", "Dataset YAML file")
		_ = c.MarkFlagRequired("config")
	}
}

func runPredict(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ds, err := loadDataset(configPath)
	if err != nil {
		return err
	}
	opts, err := flagOptions(cmd, logger)
	if err != nil {
		return err
	}
	clf, err := neighbors.NewFromConfig[float64, string](ds.Classifier, opts...)
	if err != nil {
		return err
	}

	train, err := ds.trainArray()
	if err != nil {
		return errors.Wrap(err, "train.x")
	}
	query, err := ds.queryArray()
	if err != nil {
		return errors.Wrap(err, "query")
	}
	if err := clf.Fit(train, ds.Train.Y); err != nil {
		return err
	}
	pred, err := clf.Predict(query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, p := range pred {
		fmt.Fprintf(out, "%v\t%s\n", ds.Query[i], p)
	}
	return nil
}

func runPairwise(cmd *cobra.Command, _ []string) error {
	ds, err := loadDataset(configPath)
	if err != nil {
		return err
	}
	sel := ds.Classifier.Metric
	if cmd.Flags().Changed("metric") {
		kind, err := distance.ParseKind(flagMetric)
		if err != nil {
			return err
		}
		sel = distance.Selector{Kind: kind, P: flagP}
	} else if cmd.Flags().Changed("p") {
		sel = distance.Selector{Kind: distance.KindMinkowski, P: flagP}
	}
	metric, err := distance.GetMetric(sel)
	if err != nil {
		return err
	}

	query, err := ds.queryArray()
	if err != nil {
		return errors.Wrap(err, "query")
	}
	var d *mat.Dense
	if len(ds.Train.X) == 0 {
		d, err = distance.PairwiseArray(metric, query)
	} else {
		train, terr := ds.trainArray()
		if terr != nil {
			return errors.Wrap(terr, "train.x")
		}
		d, err = distance.PairwiseArrays(metric, query, train)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%v\n", metric.Name(), mat.Formatted(d, mat.Squeeze()))
	return nil
}
