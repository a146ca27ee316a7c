package predictor

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStats() *ClauseStats {
	return &ClauseStats{
		Glue:                    4,
		OrigGlue:                5,
		GlueBeforeMinim:         8,
		GlueHistLong:            4.0,
		IntroducedAtConflict:    50,
		LastTouched:             90,
		PropsMade:               20,
		SumPropsMade:            100,
		ConflictsMade:           2,
		SumUIP1Used:             25,
		DiscountedPropsMade:     6,
		DiscountedUIP1Used3:     1.25,
		NumAntecedents:          4,
		NumTotalLitsAntecedents: 16,
		NumResolutionsHistLT:    3,
		TTLStats:                3,
	}
}

func sampleRanking() Ranking {
	return Ranking{
		SumConflicts: 100,
		ActRankRel:   0.5,
		UIP1RankRel:  0.25,
		PropRankRel:  0.75,
		AvgProps:     10,
		AvgGlue:      2,
	}
}

func TestFeatureVectorShort(t *testing.T) {
	features := make([]float64, 0, Cols)
	setUpInput(sampleStats(), sampleRanking(), ColsShort, &features)
	require.Len(t, features, ColsShort)
	assert.Equal(t, 0.25, features[0])       // uip1 rank
	assert.Equal(t, 0.05, features[1])       // act rank / last touched diff
	assert.Equal(t, 0.75, features[2])       // prop rank
	assert.Equal(t, 2.0, features[3])        // props made / avg props
	assert.Equal(t, 10.0, features[4])       // last touched diff
	assert.Equal(t, 3.0, features[5])        // ttl stats
}

func TestFeatureVectorFull(t *testing.T) {
	features := make([]float64, 0, Cols)
	setUpInput(sampleStats(), sampleRanking(), Cols, &features)
	require.Len(t, features, Cols)
	assert.Equal(t, 2.0, features[6])           // glue / conflicts made
	assert.Equal(t, 2.0, features[7])           // sum props / time inside
	assert.Equal(t, 1.0, features[8])           // (f7) / (glue / avg glue)
	assert.Equal(t, 6.0, features[9])           // log2(glue before minim) / uip1 rate
	assert.Equal(t, 5.0, features[10])          // orig glue
	assert.Equal(t, 0.125, features[11])        // log2(antecedents) / total antecedent lits
	assert.Equal(t, 0.5, features[12])          // glue hist long / glue before minim
	assert.Equal(t, MissingVal, features[13])   // not a ternary resolvent
	assert.Equal(t, 2.0, features[14])          // discounted props / resolutions hist
	assert.InDelta(t, 0.5/6.0, features[15], 1e-12)
	assert.Equal(t, 2.0, features[16])          // glue / (props made / avg props)
}

func TestFeatureVectorTernaryResolvent(t *testing.T) {
	cl := sampleStats()
	cl.IsTernaryResolvent = true
	features := make([]float64, 0, Cols)
	setUpInput(cl, sampleRanking(), Cols, &features)
	for _, i := range []int{9, 10, 11, 12, 14} {
		assert.Equal(t, MissingVal, features[i], "feature %d defined for a ternary resolvent", i)
	}
	assert.Equal(t, 1.25, features[13])
}

func TestFeatureVectorMissingDivisors(t *testing.T) {
	cl := sampleStats()
	cl.ConflictsMade = 0
	cl.PropsMade = 0
	in := sampleRanking()
	in.AvgProps = 0
	in.SumConflicts = cl.LastTouched // last touched diff == 0
	features := make([]float64, 0, Cols)
	setUpInput(cl, in, Cols, &features)
	assert.Equal(t, MissingVal, features[1])
	assert.Equal(t, MissingVal, features[3])
	assert.Equal(t, MissingVal, features[6])
	assert.Equal(t, MissingVal, features[16])
}

func TestOrigGlueOnePanics(t *testing.T) {
	cl := sampleStats()
	cl.OrigGlue = 1
	features := make([]float64, 0, Cols)
	assert.Panics(t, func() { setUpInput(cl, sampleRanking(), Cols, &features) })
}

func TestLoadModelsAndPredict(t *testing.T) {
	p := New()
	err := p.LoadModels(
		filepath.Join("testdata", "short.yaml"),
		filepath.Join("testdata", "long.yaml"),
		filepath.Join("testdata", "forever.yaml"),
	)
	require.NoError(t, err)
	defer p.Close()

	pShort, pLong, pForever := p.Predict(sampleStats(), sampleRanking())
	// short: uip1 rank 0.25 < 0.5 -> leaf 1.5 -> sigmoid(1.5)
	assert.InDelta(t, 1.0/(1.0+math.Exp(-1.5)), pShort, 1e-12)
	// long: orig glue 5 >= 4 -> -0.4 ; feature 4 = 10 < 100 -> 0.2 ; base -0.3
	assert.InDelta(t, 1.0/(1.0+math.Exp(0.5)), pLong, 1e-12)
	// forever: feature 16 = 2 < 2.5 -> 0.6 ; base -1.0
	assert.InDelta(t, 1.0/(1.0+math.Exp(0.4)), pForever, 1e-12)

	one := p.PredictOne(PredShort, sampleStats(), sampleRanking())
	assert.InDelta(t, pShort, one, 1e-12)
}

func TestMissingRouting(t *testing.T) {
	leafLow, leafHigh := 1.0, -1.0
	m := &Model{Trees: []Tree{{Nodes: []Node{
		{Feature: 1, Threshold: 10, Left: 1, Right: 2, Missing: 2},
		{Leaf: &leafLow},
		{Leaf: &leafHigh},
	}}}}
	// Feature 1 missing: routed to the missing edge even though -1 < 10.
	got := m.predict([]float64{0, MissingVal})
	assert.InDelta(t, 1.0/(1.0+math.Exp(1.0)), got, 1e-12)
	got = m.predict([]float64{0, 3})
	assert.InDelta(t, 1.0/(1.0+math.Exp(-1.0)), got, 1e-12)
}

func TestLoadModelErrors(t *testing.T) {
	_, err := LoadModel(filepath.Join("testdata", "does-not-exist.yaml"))
	require.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("base_score: 0\ntrees:\n  - nodes:\n      - feature: 0\n        threshold: 1\n        left: 7\n        right: 0\n        missing: 0\n"), 0o644))
	_, err = LoadModel(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("base_score: 0\ntrees:\n  - nodes: []\n"), 0o644))
	_, err = LoadModel(empty)
	require.Error(t, err)
}
