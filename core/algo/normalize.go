package algo

import (
	"slices"

	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// zeroScale is the threshold below which a column scale is treated as zero.
const zeroScale = 1e-12

// Normalizer rescales feature columns as (x - center) / scale.
type Normalizer struct {
	method schema.NormalizationMethod
	center []float64
	scale  []float64
}

// NewNormalizer creates an unfitted normalizer for a method.
func NewNormalizer(method schema.NormalizationMethod) (*Normalizer, error) {
	if _, ok := schema.ValidNormalizationMethods[method]; !ok {
		return nil, eris.Errorf("algo: unknown normalization method %q", method)
	}
	return &Normalizer{method: method}, nil
}

// Method returns the normalization method.
func (n *Normalizer) Method() schema.NormalizationMethod {
	return n.method
}

// Fitted reports whether FitTransform has been called.
func (n *Normalizer) Fitted() bool {
	return n.center != nil
}

// FitTransform learns per-column center and scale from m and returns the rescaled copy.
func (n *Normalizer) FitTransform(m *mat.Dense) (*mat.Dense, error) {
	if m == nil || m.IsEmpty() {
		return nil, eris.Wrap(ErrDataInsufficient, "algo: fit normalizer on empty matrix")
	}
	_, cols := m.Dims()
	center := make([]float64, cols)
	scale := make([]float64, cols)
	for j := range cols {
		col := mat.Col(nil, j, m)
		switch n.method {
		case schema.ZScoreNorm:
			center[j], scale[j] = stat.PopMeanStdDev(col, nil)
		case schema.RobustNorm:
			slices.Sort(col)
			center[j] = percentile(col, 50)
			scale[j] = percentile(col, 75) - percentile(col, 25)
		default:
			lo, hi := floats.Min(col), floats.Max(col)
			center[j], scale[j] = lo, hi-lo
		}
		if scale[j] < zeroScale {
			scale[j] = 1
		}
	}
	n.center, n.scale = center, scale
	return n.Transform(m)
}

// Transform rescales m with the learned parameters.
func (n *Normalizer) Transform(m *mat.Dense) (*mat.Dense, error) {
	if !n.Fitted() {
		return nil, eris.Wrap(ErrNotFitted, "algo: transform before fit")
	}
	if m == nil || m.IsEmpty() {
		return &mat.Dense{}, nil
	}
	rows, cols := m.Dims()
	if cols != len(n.center) {
		return nil, eris.Errorf("algo: normalizer fitted on %d columns, got %d", len(n.center), cols)
	}
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - n.center[j]) / n.scale[j]
	}, m)
	return out, nil
}

// percentile returns the q-th percentile of sorted values with linear interpolation
// between closest ranks, so the median of an even count is the midpoint.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q / 100 * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
