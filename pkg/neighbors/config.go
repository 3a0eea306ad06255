package neighbors

import (
	"strings"

	"go.uber.org/zap"

	"kneighbors/pkg/distance"
	"kneighbors/pkg/mlerr"
)

// Weights selects how neighbor votes are weighted.
type Weights int

const (
	// WeightsUniform gives every neighbor one vote.
	WeightsUniform Weights = iota
	// WeightsDistance weights votes by inverse distance. Not implemented.
	WeightsDistance
)

var weightsNames = map[Weights]string{
	WeightsUniform:  "uniform",
	WeightsDistance: "distance",
}

func (w Weights) String() string {
	if s, ok := weightsNames[w]; ok {
		return s
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (w Weights) MarshalText() ([]byte, error) {
	if _, ok := weightsNames[w]; !ok {
		return nil, mlerr.Configurationf("unknown weights %d", int(w))
	}
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Weights) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for k, v := range weightsNames {
		if v == name {
			*w = k
			return nil
		}
	}
	return mlerr.Configurationf("unknown weights %q", text)
}

// Algorithm selects the neighbor search strategy.
type Algorithm int

const (
	// AlgorithmAuto picks the best available strategy, currently brute force.
	AlgorithmAuto Algorithm = iota
	// AlgorithmBrute computes distances to every training sample.
	AlgorithmBrute
	// AlgorithmKDTree is a k-d tree search. Not implemented.
	AlgorithmKDTree
	// AlgorithmBallTree is a ball tree search. Not implemented.
	AlgorithmBallTree
)

var algorithmNames = map[Algorithm]string{
	AlgorithmAuto:     "auto",
	AlgorithmBrute:    "brute",
	AlgorithmKDTree:   "kd_tree",
	AlgorithmBallTree: "ball_tree",
}

func (a Algorithm) String() string {
	if s, ok := algorithmNames[a]; ok {
		return s
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	if _, ok := algorithmNames[a]; !ok {
		return nil, mlerr.Configurationf("unknown algorithm %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Algorithm) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	if name == "brute_force" {
		name = "brute"
	}
	for k, v := range algorithmNames {
		if v == name {
			*a = k
			return nil
		}
	}
	return mlerr.Configurationf("unknown algorithm %q", text)
}

// Config is the classifier configuration. It is fixed at construction.
type Config struct {
	// NNeighbors is k, the number of neighbors that vote.
	NNeighbors int       `yaml:"n_neighbors"`
	Weights    Weights   `yaml:"weights"`
	Algorithm  Algorithm `yaml:"algorithm"`
	// LeafSize is accepted for tree algorithms and unused by brute force.
	LeafSize int               `yaml:"leaf_size"`
	Metric   distance.Selector `yaml:"metric"`
	// Workers bounds predict parallelism. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns k=5, uniform weights, automatic algorithm and the
// minkowski metric with p=2.
func DefaultConfig() Config {
	return Config{
		NNeighbors: 5,
		Weights:    WeightsUniform,
		Algorithm:  AlgorithmAuto,
		LeafSize:   30,
		Metric:     distance.DefaultSelector(),
	}
}

// Validate reports the first unsupported setting. It does not resolve the
// metric; see distance.Registry.Get for that.
func (c Config) Validate() error {
	if c.NNeighbors <= 0 {
		return mlerr.Configurationf("n_neighbors must be positive, got %d", c.NNeighbors)
	}
	if c.Weights != WeightsUniform {
		return mlerr.Configurationf("weights %q not supported, only uniform is implemented", c.Weights)
	}
	if c.Algorithm != AlgorithmAuto && c.Algorithm != AlgorithmBrute {
		return mlerr.Configurationf("algorithm %q not supported, only brute force is implemented", c.Algorithm)
	}
	if c.LeafSize < 0 {
		return mlerr.Configurationf("leaf_size must not be negative, got %d", c.LeafSize)
	}
	if c.Workers < 0 {
		return mlerr.Configurationf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

type options struct {
	cfg      Config
	logger   *zap.Logger
	registry *distance.Registry
}

// Option customizes a classifier at construction.
type Option func(*options)

// WithNNeighbors sets k.
func WithNNeighbors(k int) Option {
	return func(o *options) { o.cfg.NNeighbors = k }
}

// WithWeights sets the vote weighting.
func WithWeights(w Weights) Option {
	return func(o *options) { o.cfg.Weights = w }
}

// WithAlgorithm sets the search algorithm.
func WithAlgorithm(a Algorithm) Option {
	return func(o *options) { o.cfg.Algorithm = a }
}

// WithMetric sets the distance metric.
func WithMetric(sel distance.Selector) Option {
	return func(o *options) { o.cfg.Metric = sel }
}

// WithWorkers bounds the number of goroutines Predict uses.
func WithWorkers(n int) Option {
	return func(o *options) { o.cfg.Workers = n }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegistry resolves the metric through r instead of
// distance.DefaultRegistry.
func WithRegistry(r *distance.Registry) Option {
	return func(o *options) { o.registry = r }
}
