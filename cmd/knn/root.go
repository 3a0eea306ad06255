package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kneighbors/pkg/distance"
	"kneighbors/pkg/neighbors"
)

var (
	verbose     bool
	flagK       int
	flagMetric  string
	flagP       float64
	flagWorkers int
)

var rootCmd = &cobra.Command{
	Use:          "knn",
	Short:        "Brute-force k-nearest-neighbors classifier",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().IntVarP(&flagK, "k", "k", 0, "Number of neighbors (overrides the config file)")
	rootCmd.PersistentFlags().StringVarP(&flagMetric, "metric", "m", "", "Distance metric: euclidean, manhattan or minkowski")
	rootCmd.PersistentFlags().Float64VarP(&flagP, "p", "p", 0, "Minkowski exponent")
	rootCmd.PersistentFlags().IntVarP(&flagWorkers, "workers", "w", 0, "Predict goroutines (0 = GOMAXPROCS)")
}

// newLogger builds a console logger. Stacktraces are disabled and times are
// ISO8601, matching what an operator reads in a terminal.
func newLogger() (*zap.Logger, error) {
	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if verbose {
		cfg.Level.SetLevel(zap.DebugLevel)
	}
	return cfg.Build()
}

// flagOptions turns the flags the user set into classifier options.
func flagOptions(cmd *cobra.Command, logger *zap.Logger) ([]neighbors.Option, error) {
	opts := []neighbors.Option{neighbors.WithLogger(logger)}
	flags := cmd.Flags()
	if flags.Changed("k") {
		opts = append(opts, neighbors.WithNNeighbors(flagK))
	}
	if flags.Changed("metric") {
		kind, err := distance.ParseKind(flagMetric)
		if err != nil {
			return nil, err
		}
		opts = append(opts, neighbors.WithMetric(distance.Selector{Kind: kind, P: flagP}))
	} else if flags.Changed("p") {
		opts = append(opts, neighbors.WithMetric(distance.Selector{Kind: distance.KindMinkowski, P: flagP}))
	}
	if flags.Changed("workers") {
		opts = append(opts, neighbors.WithWorkers(flagWorkers))
	}
	return opts, nil
}
