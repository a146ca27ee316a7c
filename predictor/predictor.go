/*
Package predictor scores learnt clauses for database pruning. For a clause's
statistics record and a handful of global counters it predicts, with one
pre-trained gradient-boosted model per horizon, the probability that keeping
the clause pays off over a short window, a long window, or forever.

The feature layout is a contract shared with the training pipeline: order
matters, and undefined features carry the -1 sentinel.
*/
package predictor

import "math"

const (
	// MissingVal marks a feature with no defined value.
	MissingVal = -1.0
	// ColsShort is the feature-vector length of the short-horizon model.
	ColsShort = 6
	// Cols is the feature-vector length of the long and forever models.
	Cols = 17
)

// Horizons of the three models.
const (
	PredShort = iota
	PredLong
	PredForever
	numPred
)

// ClauseStats mirrors the per-clause statistics block maintained by the
// solver and its outer loop. The predictor is a pure function of this record
// and the global counters in Ranking.
type ClauseStats struct {
	Glue                    uint32
	OrigGlue                uint32
	GlueBeforeMinim         uint32
	GlueHistLong            float64
	IntroducedAtConflict    uint64
	LastTouched             uint64
	PropsMade               uint64
	SumPropsMade            uint64
	ConflictsMade           uint64
	SumUIP1Used             uint64
	DiscountedPropsMade     float64
	DiscountedUIP1Used3     float64
	NumAntecedents          uint32
	NumTotalLitsAntecedents uint32
	NumResolutionsHistLT    uint32
	TTLStats                float64
	IsTernaryResolvent      bool
}

// Ranking carries the global counters and the clause's relative ranks among
// the learnt database at scoring time.
type Ranking struct {
	SumConflicts uint64
	ActRankRel   float64
	UIP1RankRel  float64
	PropRankRel  float64
	AvgProps     float64
	AvgGlue      float64
}

// Predictors owns the three loaded models. Load it once at startup with
// LoadModels and release it with Close.
type Predictors struct {
	models [numPred]*Model
}

// New returns an empty Predictors holder.
func New() *Predictors {
	return &Predictors{}
}

// LoadModels loads the three serialized models, one per horizon.
func (p *Predictors) LoadModels(short, long, forever string) error {
	paths := [numPred]string{short, long, forever}
	for i, path := range paths {
		m, err := LoadModel(path)
		if err != nil {
			return err
		}
		p.models[i] = m
	}
	return nil
}

// Close releases the loaded models.
func (p *Predictors) Close() {
	for i := range p.models {
		p.models[i] = nil
	}
}

// PredictOne evaluates a single horizon.
func (p *Predictors) PredictOne(pred int, cl *ClauseStats, in Ranking) float64 {
	cols := Cols
	if pred == PredShort {
		cols = ColsShort
	}
	features := make([]float64, 0, Cols)
	setUpInput(cl, in, cols, &features)
	return p.models[pred].predict(features)
}

// Predict evaluates the three horizons on a single feature extraction.
func (p *Predictors) Predict(cl *ClauseStats, in Ranking) (pShort, pLong, pForever float64) {
	features := make([]float64, 0, Cols)
	setUpInput(cl, in, Cols, &features)
	pShort = p.models[PredShort].predict(features[:ColsShort])
	pLong = p.models[PredLong].predict(features)
	pForever = p.models[PredForever].predict(features)
	return pShort, pLong, pForever
}

// setUpInput builds the feature vector. Order is a contract with the
// training pipeline; divisions by zero and stats undefined for ternary
// resolvents yield the missing sentinel.
func setUpInput(cl *ClauseStats, in Ranking, cols int, at *[]float64) {
	// Updated glue can reach 1 through strengthening; original glue cannot.
	if cl.OrigGlue == 1 {
		panic("original glue of a resolvent is never 1")
	}

	lastTouchedDiff := in.SumConflicts - cl.LastTouched
	timeInsideSolver := float64(in.SumConflicts - cl.IntroducedAtConflict)

	push := func(v float64) { *at = append(*at, v) }
	ratio := func(num, div float64) {
		if div == 0 {
			push(MissingVal)
		} else {
			push(num / div)
		}
	}

	push(in.UIP1RankRel)
	ratio(in.ActRankRel, float64(lastTouchedDiff))
	push(in.PropRankRel)
	ratio(float64(cl.PropsMade), in.AvgProps)
	push(float64(lastTouchedDiff))
	push(cl.TTLStats)
	if cols == ColsShort {
		return
	}

	ratio(float64(cl.Glue), float64(cl.ConflictsMade))
	ratio(float64(cl.SumPropsMade), timeInsideSolver)
	if timeInsideSolver == 0 || in.AvgGlue == 0 || cl.Glue == 0 {
		push(MissingVal)
	} else {
		push((float64(cl.SumPropsMade) / timeInsideSolver) / (float64(cl.Glue) / in.AvgGlue))
	}
	if timeInsideSolver == 0 || cl.SumUIP1Used == 0 || cl.GlueBeforeMinim == 0 || cl.IsTernaryResolvent {
		push(MissingVal)
	} else {
		push(math.Log2(float64(cl.GlueBeforeMinim)) / (float64(cl.SumUIP1Used) / timeInsideSolver))
	}
	if cl.IsTernaryResolvent {
		push(MissingVal)
	} else {
		push(float64(cl.OrigGlue))
	}
	if cl.NumAntecedents == 0 || cl.NumTotalLitsAntecedents == 0 || cl.IsTernaryResolvent {
		push(MissingVal)
	} else {
		push(math.Log2(float64(cl.NumAntecedents)) / float64(cl.NumTotalLitsAntecedents))
	}
	if cl.GlueBeforeMinim == 0 || cl.IsTernaryResolvent {
		push(MissingVal)
	} else {
		push(cl.GlueHistLong / float64(cl.GlueBeforeMinim))
	}
	if !cl.IsTernaryResolvent {
		push(MissingVal)
	} else {
		push(cl.DiscountedUIP1Used3)
	}
	if cl.NumResolutionsHistLT == 0 || cl.IsTernaryResolvent {
		push(MissingVal)
	} else {
		push(cl.DiscountedPropsMade / float64(cl.NumResolutionsHistLT))
	}
	if cl.DiscountedPropsMade == 0 || timeInsideSolver == 0 {
		push(MissingVal)
	} else {
		push((float64(cl.SumUIP1Used) / timeInsideSolver) / cl.DiscountedPropsMade)
	}
	if in.AvgProps == 0 || cl.PropsMade == 0 {
		push(MissingVal)
	} else {
		push(float64(cl.Glue) / (float64(cl.PropsMade) / in.AvgProps))
	}

	if len(*at) != cols {
		panic("feature vector length mismatch")
	}
}
