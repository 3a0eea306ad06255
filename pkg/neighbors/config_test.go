package neighbors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"kneighbors/pkg/distance"
	"kneighbors/pkg/mlerr"
)

func TestConfigYAML(t *testing.T) {
	cfg := DefaultConfig()
	doc := `
n_neighbors: 3
algorithm: brute_force
metric:
  kind: minkowski
  p: 3
workers: 2
`
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))
	assert.Equal(t, Config{
		NNeighbors: 3,
		Weights:    WeightsUniform,
		Algorithm:  AlgorithmBrute,
		LeafSize:   30,
		Metric:     distance.Selector{Kind: distance.KindMinkowski, P: 3},
		Workers:    2,
	}, cfg)

	c, err := NewFromConfig[float64, int](cfg)
	require.NoError(t, err)
	assert.Equal(t, "minkowski(p=3)", c.Metric().Name())
}

func TestConfigYAMLRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, yaml.Unmarshal(out, &cfg))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfigYAMLRejectsUnknownNames(t *testing.T) {
	cfg := DefaultConfig()
	err := yaml.Unmarshal([]byte("weights: gaussian\n"), &cfg)
	require.ErrorIs(t, err, mlerr.ErrConfiguration)

	err = yaml.Unmarshal([]byte("algorithm: lsh\n"), &cfg)
	require.ErrorIs(t, err, mlerr.ErrConfiguration)
}

func TestConfigYAMLParsesUnsupportedButKnownNames(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte("weights: distance\nalgorithm: kd_tree\n"), &cfg))
	assert.Equal(t, WeightsDistance, cfg.Weights)
	assert.Equal(t, AlgorithmKDTree, cfg.Algorithm)

	_, err := NewFromConfig[float64, string](cfg)
	require.ErrorIs(t, err, mlerr.ErrConfiguration)
}

func TestOptionsOverrideConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NNeighbors = 0

	_, err := NewFromConfig[float64, int](cfg)
	require.ErrorIs(t, err, mlerr.ErrConfiguration)

	c, err := NewFromConfig[float64, int](cfg, WithNNeighbors(2))
	require.NoError(t, err)
	assert.Equal(t, 2, c.NNeighbors())
}

func TestWithRegistryIsUsed(t *testing.T) {
	r := distance.NewRegistry()
	sel := distance.Selector{Kind: distance.KindMinkowski, P: 4}
	want, err := r.Get(sel)
	require.NoError(t, err)

	c, err := New[float64, int](WithRegistry(r), WithMetric(sel))
	require.NoError(t, err)
	assert.Same(t, want.(*distance.MinkowskiMetric), c.Metric().(*distance.MinkowskiMetric))
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "uniform", WeightsUniform.String())
	assert.Equal(t, "distance", WeightsDistance.String())
	assert.Equal(t, "unknown", Weights(9).String())
	assert.Equal(t, "auto", AlgorithmAuto.String())
	assert.Equal(t, "ball_tree", AlgorithmBallTree.String())
	assert.Equal(t, "unknown", Algorithm(9).String())
}

func TestClassifiersShareDefaultRegistry(t *testing.T) {
	sel := distance.Selector{Kind: distance.KindMinkowski, P: 3.5}
	a, err := New[float64, int](WithMetric(sel))
	require.NoError(t, err)
	b, err := New[float32, string](WithMetric(sel))
	require.NoError(t, err)

	want, err := distance.GetMetric(sel)
	require.NoError(t, err)
	assert.Same(t, want.(*distance.MinkowskiMetric), a.Metric().(*distance.MinkowskiMetric))
	assert.Same(t, want.(*distance.MinkowskiMetric), b.Metric().(*distance.MinkowskiMetric))
}
