package distance

import (
	"math"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"kneighbors/pkg/mlerr"
)

// Kind enumerates the supported metric families.
type Kind int

const (
	// KindEuclidean is the L2 distance.
	KindEuclidean Kind = iota + 1
	// KindManhattan is the L1 distance.
	KindManhattan
	// KindMinkowski is the Lp distance parameterised by Selector.P.
	KindMinkowski
)

func (k Kind) String() string {
	switch k {
	case KindEuclidean:
		return "euclidean"
	case KindManhattan:
		return "manhattan"
	case KindMinkowski:
		return "minkowski"
	default:
		return "unknown"
	}
}

// ParseKind maps a metric name to its Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "euclidean", "l2":
		return KindEuclidean, nil
	case "manhattan", "l1", "cityblock":
		return KindManhattan, nil
	case "minkowski":
		return KindMinkowski, nil
	}
	return 0, mlerr.Configurationf("unsupported metric %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k.String() == "unknown" {
		return nil, mlerr.Configurationf("unsupported metric kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// DefaultP is the Minkowski exponent used when none is given.
const DefaultP = 2

// Selector picks a metric. P is only read for KindMinkowski, where zero
// means DefaultP.
type Selector struct {
	Kind Kind    `yaml:"kind"`
	P    float64 `yaml:"p,omitempty"`
}

// UnmarshalYAML decodes a metric block as a whole, so fields it omits do not
// keep values from an earlier default.
func (s *Selector) UnmarshalYAML(value *yaml.Node) error {
	type plain Selector
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Selector(p)
	return nil
}

// DefaultSelector is minkowski with p=2, which resolves to Euclidean.
func DefaultSelector() Selector {
	return Selector{Kind: KindMinkowski, P: DefaultP}
}

// normalize folds equivalent selectors together so they share a cache
// entry: minkowski p=2 is euclidean and p=1 is manhattan.
func (s Selector) normalize() (Selector, error) {
	switch s.Kind {
	case KindEuclidean, KindManhattan:
		return Selector{Kind: s.Kind}, nil
	case KindMinkowski:
		p := s.P
		if p == 0 {
			p = DefaultP
		}
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 1 {
			return Selector{}, mlerr.Configurationf("minkowski exponent must be a finite p >= 1, got %v", s.P)
		}
		switch p {
		case 1:
			return Selector{Kind: KindManhattan}, nil
		case 2:
			return Selector{Kind: KindEuclidean}, nil
		}
		return Selector{Kind: KindMinkowski, P: p}, nil
	}
	return Selector{}, mlerr.Configurationf("unsupported metric kind %d", int(s.Kind))
}

// Registry resolves selectors to Metric instances, constructing each
// distinct metric once.
type Registry struct {
	mu      sync.Mutex
	metrics map[Selector]Metric
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[Selector]Metric)}
}

// Get returns the metric for sel, or an ErrConfiguration error when the
// selector names an unsupported kind or exponent.
func (r *Registry) Get(sel Selector) (Metric, error) {
	key, err := sel.normalize()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.metrics[key]; ok {
		return m, nil
	}
	var m Metric
	switch key.Kind {
	case KindEuclidean:
		m = EuclideanMetric{}
	case KindManhattan:
		m = ManhattanMetric{}
	default:
		m = &MinkowskiMetric{P: key.P}
	}
	r.metrics[key] = m
	return m, nil
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used by GetMetric.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// GetMetric resolves sel through the package-level registry.
func GetMetric(sel Selector) (Metric, error) {
	return defaultRegistry.Get(sel)
}
