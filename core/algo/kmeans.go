package algo

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// K-means defaults.
const (
	DefaultSeed     uint64 = 42
	DefaultRestarts        = 10
	DefaultMaxIter         = 300
	DefaultTol             = 1e-4
)

// KMeans configures Lloyd's algorithm with k-means++ seeding and several restarts.
type KMeans struct {
	Seed     uint64
	Restarts int
	MaxIter  int
	Tol      float64
	Workers  int // restarts running at once, 0 or less means one
}

// NewKMeans returns the default configuration.
func NewKMeans() KMeans {
	return KMeans{
		Seed:     DefaultSeed,
		Restarts: DefaultRestarts,
		MaxIter:  DefaultMaxIter,
		Tol:      DefaultTol,
		Workers:  1,
	}
}

// ClusterFit is the best partition found across restarts.
type ClusterFit struct {
	Assignments []int
	Centroids   *mat.Dense
	Inertia     float64
	Iterations  int
	Restart     int
}

// Fit partitions the rows of m into k clusters. Each restart derives its own generator from
// Seed and its index, so the winner is the same for any worker count.
func (km KMeans) Fit(ctx context.Context, m *mat.Dense, k int) (*ClusterFit, error) {
	if k < 1 {
		return nil, eris.Errorf("algo: cluster count must be positive, got %d", k)
	}
	if m == nil || m.IsEmpty() {
		return nil, eris.Wrap(ErrDataInsufficient, "algo: kmeans on empty matrix")
	}
	rows, _ := m.Dims()
	if rows < k {
		return nil, eris.Wrapf(ErrDataInsufficient, "algo: %d rows for %d clusters", rows, k)
	}

	restarts := max(km.Restarts, 1)
	tol := km.Tol * meanColumnVariance(m)
	fits := make([]*ClusterFit, restarts)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(km.Workers, 1))
	for i := range restarts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(km.Seed, uint64(i)))
			fit := lloyd(m, seedPlusPlus(m, k, rng), max(km.MaxIter, 1), tol)
			fit.Restart = i
			fits[i] = fit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "algo: kmeans restarts")
	}

	best := fits[0]
	for _, fit := range fits[1:] {
		if fit.Inertia < best.Inertia {
			best = fit
		}
	}
	return best, nil
}

// seedPlusPlus picks k initial centers with greedy k-means++: each step draws several
// candidates proportional to squared distance and keeps the one that lowers potential most.
func seedPlusPlus(m *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	rows, cols := m.Dims()
	centers := mat.NewDense(k, cols, nil)
	trials := 2 + int(math.Log(float64(k)))

	first := rng.IntN(rows)
	centers.SetRow(0, m.RawRowView(first))
	closest := make([]float64, rows)
	for i := range rows {
		closest[i] = sqDist(m.RawRowView(i), m.RawRowView(first))
	}

	candidateDist := make([]float64, rows)
	for c := 1; c < k; c++ {
		potential := floats.Sum(closest)
		bestIdx, bestPot := -1, math.Inf(1)
		var bestDist []float64
		for trial := range trials {
			idx := sampleWeighted(closest, potential, rng)
			row := m.RawRowView(idx)
			pot := 0.0
			for i := range rows {
				candidateDist[i] = min(closest[i], sqDist(m.RawRowView(i), row))
				pot += candidateDist[i]
			}
			// A NaN potential never compares lower, so the first candidate stands in.
			if pot < bestPot || (trial == 0 && math.IsNaN(pot)) {
				bestIdx, bestPot = idx, pot
				bestDist = append(bestDist[:0], candidateDist...)
			}
		}
		centers.SetRow(c, m.RawRowView(bestIdx))
		copy(closest, bestDist)
	}
	return centers
}

// sampleWeighted draws an index with probability weights[i]/total, uniformly when total is zero.
func sampleWeighted(weights []float64, total float64, rng *rand.Rand) int {
	if total <= 0 {
		return rng.IntN(len(weights))
	}
	target := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}

// lloyd iterates assignment and update steps until the squared center shift is within tol.
func lloyd(m *mat.Dense, centers *mat.Dense, maxIter int, tol float64) *ClusterFit {
	rows, cols := m.Dims()
	k, _ := centers.Dims()
	assign := make([]int, rows)
	dist := make([]float64, rows)
	counts := make([]int, k)
	next := mat.NewDense(k, cols, nil)

	iter := 0
	for iter < maxIter {
		iter++
		assignNearest(m, centers, assign, dist)

		next.Zero()
		clear(counts)
		for i := range rows {
			c := assign[i]
			counts[c]++
			row := next.RawRowView(c)
			for j, v := range m.RawRowView(i) {
				row[j] += v
			}
		}
		for c := range k {
			if counts[c] == 0 {
				far := farthestPoint(dist)
				next.SetRow(c, m.RawRowView(far))
				dist[far] = 0
				continue
			}
			row := next.RawRowView(c)
			for j := range row {
				row[j] /= float64(counts[c])
			}
		}

		shift := 0.0
		for c := range k {
			shift += sqDist(centers.RawRowView(c), next.RawRowView(c))
		}
		centers.Copy(next)
		if shift <= tol {
			break
		}
	}

	inertia := assignNearest(m, centers, assign, dist)
	return &ClusterFit{
		Assignments: assign,
		Centroids:   centers,
		Inertia:     inertia,
		Iterations:  iter,
	}
}

// assignNearest labels each row with its nearest center, lowest index on ties, and returns
// the inertia.
func assignNearest(m, centers *mat.Dense, assign []int, dist []float64) float64 {
	rows, _ := m.Dims()
	k, _ := centers.Dims()
	inertia := 0.0
	for i := range rows {
		row := m.RawRowView(i)
		best, bestDist := 0, math.Inf(1)
		for c := range k {
			if d := sqDist(row, centers.RawRowView(c)); d < bestDist {
				best, bestDist = c, d
			}
		}
		assign[i], dist[i] = best, bestDist
		inertia += bestDist
	}
	return inertia
}

// Predict returns the nearest centroid for each row of m.
func (f *ClusterFit) Predict(m *mat.Dense) []int {
	if m == nil || m.IsEmpty() {
		return nil
	}
	rows, _ := m.Dims()
	assign := make([]int, rows)
	assignNearest(m, f.Centroids, assign, make([]float64, rows))
	return assign
}

func farthestPoint(dist []float64) int {
	far := 0
	for i, d := range dist {
		if d > dist[far] {
			far = i
		}
	}
	return far
}

func meanColumnVariance(m *mat.Dense) float64 {
	_, cols := m.Dims()
	total := 0.0
	for j := range cols {
		col := mat.Col(nil, j, m)
		_, std := stat.PopMeanStdDev(col, nil)
		total += std * std
	}
	return total / float64(cols)
}

func sqDist(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}
