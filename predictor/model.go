package predictor

import (
	"math"
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// A gradient-boosted ensemble of regression trees, serialized as YAML. Each
// tree is a flat array of nodes; node 0 is the root. Split nodes carry the
// feature index, the threshold and the three outgoing edges (yes, no,
// missing); leaves carry only a weight.

// Node is one node of a regression tree. A split routes features below the
// threshold to Left, others to Right and undefined ones to Missing.
type Node struct {
	Leaf      *float64 `yaml:"leaf,omitempty"`
	Feature   int      `yaml:"feature"`
	Threshold float64  `yaml:"threshold"`
	Left      int      `yaml:"left"`
	Right     int      `yaml:"right"`
	Missing   int      `yaml:"missing"`
}

// Tree is a flat regression tree.
type Tree struct {
	Nodes []Node `yaml:"nodes"`
}

// Model is a boosted ensemble for one prediction horizon.
type Model struct {
	BaseScore float64 `yaml:"base_score"`
	Trees     []Tree  `yaml:"trees"`
}

// LoadModel reads and validates a serialized model.
func LoadModel(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read model %q", path)
	}
	var m Model
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrapf(err, "cannot parse model %q", path)
	}
	for i, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return nil, errors.Errorf("model %q: tree %d is empty", path, i)
		}
		for j, n := range t.Nodes {
			if n.Leaf != nil {
				continue
			}
			if n.Left < 0 || n.Left >= len(t.Nodes) || n.Right < 0 || n.Right >= len(t.Nodes) || n.Missing < 0 || n.Missing >= len(t.Nodes) {
				return nil, errors.Errorf("model %q: tree %d node %d has an edge out of range", path, i, j)
			}
		}
	}
	return &m, nil
}

// predict evaluates the ensemble on a feature vector and squashes the margin
// through the logistic function. Features equal to the missing sentinel
// follow the missing edge.
func (m *Model) predict(features []float64) float64 {
	margin := m.BaseScore
	for i := range m.Trees {
		margin += m.Trees[i].eval(features)
	}
	return 1.0 / (1.0 + math.Exp(-margin))
}

func (t *Tree) eval(features []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf != nil {
			return *n.Leaf
		}
		f := features[n.Feature]
		switch {
		case f == MissingVal:
			i = n.Missing
		case f < n.Threshold:
			i = n.Left
		default:
			i = n.Right
		}
	}
}
