package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"kneighbors/pkg/array"
	"kneighbors/pkg/neighbors"
)

// datasetFile is the YAML document read by the predict and pairwise
// commands.
type datasetFile struct {
	Classifier neighbors.Config `yaml:"classifier"`
	Train      struct {
		X [][]float64 `yaml:"x"`
		Y []string    `yaml:"y"`
	} `yaml:"train"`
	Query [][]float64 `yaml:"query"`
}

func loadDataset(path string) (*datasetFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading dataset")
	}
	return parseDataset(raw)
}

func parseDataset(raw []byte) (*datasetFile, error) {
	ds := &datasetFile{Classifier: neighbors.DefaultConfig()}
	if err := yaml.Unmarshal(raw, ds); err != nil {
		return nil, errors.Wrap(err, "parsing dataset")
	}
	return ds, nil
}

func (ds *datasetFile) trainArray() (array.Array[float64], error) {
	return array.FromRows(ds.Train.X)
}

func (ds *datasetFile) queryArray() (array.Array[float64], error) {
	return array.FromRows(ds.Query)
}

// irisSample is a fixed slice of the iris dataset: sepal length, sepal
// width, petal length, petal width.
var irisSample = [][]float64{
	{5.1, 3.5, 1.4, 0.2},
	{4.9, 3.0, 1.4, 0.2},
	{4.7, 3.2, 1.3, 0.2},
	{4.6, 3.1, 1.5, 0.2},
	{5.0, 3.6, 1.4, 0.2},
	{5.4, 3.9, 1.7, 0.4},
	{4.6, 3.4, 1.4, 0.3},
	{7.0, 3.2, 4.7, 1.4},
	{6.4, 3.2, 4.5, 1.5},
	{6.9, 3.1, 4.9, 1.5},
	{5.5, 2.3, 4.0, 1.3},
	{6.5, 2.8, 4.6, 1.5},
	{6.3, 3.3, 6.0, 2.5},
	{5.8, 2.7, 5.1, 1.9},
	{7.1, 3.0, 5.9, 2.1},
	{6.3, 2.9, 5.6, 1.8},
	{6.5, 3.0, 5.8, 2.2},
}

// irisTarget holds the species of each irisSample row: 0 setosa,
// 1 versicolor, 2 virginica.
var irisTarget = []int{0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2}
