// Package neighbors implements a brute-force k-nearest-neighbors classifier.
//
// A KNeighborsClassifier is Unfitted until Fit succeeds. Predict computes the
// distance from each query row to every training row, keeps the k closest
// (ties keep training order) and returns the most frequent label among them.
// Equal vote counts go to the label that reached the count first when the k
// neighbors are scanned nearest first.
//
// Fit must not run concurrently with any other method. Once fitted, Predict
// and the other read methods may be called from several goroutines.
package neighbors

import (
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"kneighbors/pkg/array"
	"kneighbors/pkg/distance"
	"kneighbors/pkg/mlerr"
	"kneighbors/pkg/store"
)

// maxBlockRows caps the query rows handled per distance sub-matrix, which
// bounds it at maxBlockRows × training samples.
const maxBlockRows = 256

// KNeighborsClassifier classifies feature vectors of element type T into
// labels of type L.
type KNeighborsClassifier[T array.Float, L comparable] struct {
	cfg    Config
	metric distance.Metric
	logger *zap.Logger

	train *store.TrainingSet[L]
}

// New builds a classifier from DefaultConfig adjusted by opts.
func New[T array.Float, L comparable](opts ...Option) (*KNeighborsClassifier[T, L], error) {
	return NewFromConfig[T, L](DefaultConfig(), opts...)
}

// NewFromConfig builds a classifier from cfg adjusted by opts. It fails with
// an ErrConfiguration error on any unsupported setting.
func NewFromConfig[T array.Float, L comparable](cfg Config, opts ...Option) (*KNeighborsClassifier[T, L], error) {
	o := options{cfg: cfg}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.registry == nil {
		o.registry = distance.DefaultRegistry()
	}
	metric, err := o.registry.Get(o.cfg.Metric)
	if err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &KNeighborsClassifier[T, L]{
		cfg:    o.cfg,
		metric: metric,
		logger: o.logger.With(zap.String("metric", metric.Name()), zap.Int("k", o.cfg.NNeighbors)),
	}, nil
}

// Config returns the configuration the classifier was built with.
func (c *KNeighborsClassifier[T, L]) Config() Config {
	return c.cfg
}

// NNeighbors returns k.
func (c *KNeighborsClassifier[T, L]) NNeighbors() int {
	return c.cfg.NNeighbors
}

// Metric returns the resolved distance metric.
func (c *KNeighborsClassifier[T, L]) Metric() distance.Metric {
	return c.metric
}

// IsFitted reports whether Fit has succeeded.
func (c *KNeighborsClassifier[T, L]) IsFitted() bool {
	return c.train != nil
}

// NFeatures returns the feature count fixed by Fit, or 0 when unfitted.
func (c *KNeighborsClassifier[T, L]) NFeatures() int {
	if c.train == nil {
		return 0
	}
	return c.train.Dim()
}

// NSamples returns the number of training samples, or 0 when unfitted.
func (c *KNeighborsClassifier[T, L]) NSamples() int {
	if c.train == nil {
		return 0
	}
	return c.train.Len()
}

// Classes returns the distinct training labels in order of first
// appearance, or nil when unfitted.
func (c *KNeighborsClassifier[T, L]) Classes() []L {
	if c.train == nil {
		return nil
	}
	return c.train.Classes()
}

// Fit stores a copy of the training samples x (samples × features) and
// their labels y, replacing any earlier fit. If Fit fails the classifier is
// left unfitted.
func (c *KNeighborsClassifier[T, L]) Fit(x array.Array[T], y []L) error {
	c.train = nil

	rows, _, err := x.Dims()
	if err != nil {
		return err
	}
	if rows != len(y) {
		return mlerr.DimensionMismatchf("x has %d samples, y has %d labels", rows, len(y))
	}
	xm, err := x.Matrix()
	if err != nil {
		return err
	}
	train, err := store.NewTrainingSet(xm, y)
	if err != nil {
		return err
	}
	c.train = train

	c.logger.Debug("fitted",
		zap.Int("samples", train.Len()),
		zap.Int("features", train.Dim()),
		zap.Int("classes", len(train.Classes())),
	)
	return nil
}

// Predict returns the majority label among the k nearest training samples
// of each row of x.
func (c *KNeighborsClassifier[T, L]) Predict(x array.Array[T]) ([]L, error) {
	q, err := c.queryMatrix(x)
	if err != nil {
		return nil, err
	}
	k := c.cfg.NNeighbors
	if err := c.checkK(k); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, _ := q.Dims()
	out := make([]L, rows)
	err = c.forEachBlock(q, func(first int, dist *mat.Dense) {
		n, _ := dist.Dims()
		for r := 0; r < n; r++ {
			nb := c.rank(q.RawRowView(first+r), dist.RawRowView(r), k)
			out[first+r] = c.vote(nb)
		}
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("predicted", zap.Int("rows", rows), zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

// KNeighbors returns, for each row of x, its k nearest training samples
// ordered nearest first. k == 0 uses the configured neighbor count.
func (c *KNeighborsClassifier[T, L]) KNeighbors(x array.Array[T], k int) ([][]Neighbor, error) {
	q, err := c.queryMatrix(x)
	if err != nil {
		return nil, err
	}
	if k == 0 {
		k = c.cfg.NNeighbors
	}
	if err := c.checkK(k); err != nil {
		return nil, err
	}

	rows, _ := q.Dims()
	out := make([][]Neighbor, rows)
	err = c.forEachBlock(q, func(first int, dist *mat.Dense) {
		n, _ := dist.Dims()
		for r := 0; r < n; r++ {
			out[first+r] = c.rank(q.RawRowView(first+r), dist.RawRowView(r), k)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PredictProba returns, for each row of x, the fraction of the k nearest
// neighbors carrying each label. Columns follow Classes.
func (c *KNeighborsClassifier[T, L]) PredictProba(x array.Array[T]) ([][]float64, error) {
	nbs, err := c.KNeighbors(x, 0)
	if err != nil {
		return nil, err
	}
	classes := c.train.Classes()
	col := make(map[L]int, len(classes))
	for i, l := range classes {
		col[l] = i
	}

	out := make([][]float64, len(nbs))
	for i, nb := range nbs {
		p := make([]float64, len(classes))
		for _, n := range nb {
			p[col[c.train.Label(n.Index)]]++
		}
		for j := range p {
			p[j] /= float64(len(nb))
		}
		out[i] = p
	}
	return out, nil
}

// Score returns the fraction of rows of x whose prediction equals y.
func (c *KNeighborsClassifier[T, L]) Score(x array.Array[T], y []L) (float64, error) {
	if x.Rank() == 2 && x.Len() != len(y) {
		return 0, mlerr.DimensionMismatchf("x has %d samples, y has %d labels", x.Len(), len(y))
	}
	pred, err := c.Predict(x)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := range pred {
		if pred[i] == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(pred)), nil
}

// queryMatrix validates x against the fitted state.
func (c *KNeighborsClassifier[T, L]) queryMatrix(x array.Array[T]) (*mat.Dense, error) {
	if c.train == nil {
		return nil, mlerr.Statef("call Fit before querying the classifier")
	}
	_, cols, err := x.Dims()
	if err != nil {
		return nil, err
	}
	if cols != c.train.Dim() {
		return nil, mlerr.DimensionMismatchf("x has %d features, classifier was fitted with %d", cols, c.train.Dim())
	}
	q, err := x.Matrix()
	if err != nil {
		return nil, err
	}
	if err := store.CheckFinite(q); err != nil {
		return nil, err
	}
	return q, nil
}

// rank returns the k training samples nearest to query row q. approx holds
// the block kernel's distances from q to every training sample.
func (c *KNeighborsClassifier[T, L]) rank(q, approx []float64, k int) []Neighbor {
	var tol float64
	if a, ok := c.metric.(distance.Approximate); ok {
		tol = a.PairwiseTolerance(floats.Dot(q, q), c.train.MaxSquaredNorm(), len(q))
	}
	return nearest(approx, k, tol, func(i int) float64 {
		return c.metric.Distance(q, c.train.Row(i))
	})
}

func (c *KNeighborsClassifier[T, L]) checkK(k int) error {
	if k <= 0 {
		return mlerr.Configurationf("n_neighbors must be positive, got %d", k)
	}
	if k > c.train.Len() {
		return mlerr.Configurationf("n_neighbors %d exceeds the %d training samples", k, c.train.Len())
	}
	return nil
}

// forEachBlock splits the query rows into contiguous blocks, computes each
// block's distances to the training set and hands them to fn together with
// the block's first row. Blocks run concurrently; fn must only write rows it
// was given.
func (c *KNeighborsClassifier[T, L]) forEachBlock(q *mat.Dense, fn func(first int, dist *mat.Dense)) error {
	rows, cols := q.Dims()
	workers := c.cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	block := (rows + workers - 1) / workers
	if block > maxBlockRows {
		block = maxBlockRows
	}

	train := c.train.Matrix()
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for first := 0; first < rows; first += block {
		last := min(first+block, rows)
		g.Go(func() error {
			dist, err := c.metric.PairwiseWith(q.Slice(first, last, 0, cols), train)
			if err != nil {
				return err
			}
			fn(first, dist)
			return nil
		})
	}
	return g.Wait()
}
