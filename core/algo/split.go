package algo

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/huangsam/tierscope/schema"
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

// DefaultTestFraction is the holdout share used for the kNN accuracy diagnostic.
const DefaultTestFraction = 0.3

// ErrSplitImpossible is returned when labels cannot be split with every class represented.
var ErrSplitImpossible = eris.New("stratified split impossible")

// classMembers groups row indices by label, classes in sorted order.
func classMembers(labels []schema.Tier) ([]schema.Tier, map[schema.Tier][]int) {
	members := make(map[schema.Tier][]int)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}
	classes := make([]schema.Tier, 0, len(members))
	for c := range members {
		classes = append(classes, c)
	}
	slices.Sort(classes)
	return classes, members
}

// StratifiedSplit returns sorted train and test indices with each class split in proportion.
// The test size is ceil(testFrac * n). Every class needs at least two members and both sides
// need at least one slot per class.
func StratifiedSplit(labels []schema.Tier, testFrac float64, seed uint64) ([]int, []int, error) {
	n := len(labels)
	if testFrac <= 0 || testFrac >= 1 {
		return nil, nil, eris.Errorf("algo: test fraction must be in (0, 1), got %g", testFrac)
	}
	classes, members := classMembers(labels)
	nTest := int(math.Ceil(testFrac * float64(n)))
	nTrain := n - nTest
	for _, c := range classes {
		if len(members[c]) < 2 {
			return nil, nil, eris.Wrapf(ErrSplitImpossible, "algo: class %q has %d member", c, len(members[c]))
		}
	}
	if nTest < len(classes) || nTrain < len(classes) {
		return nil, nil, eris.Wrapf(ErrSplitImpossible, "algo: %d train and %d test slots for %d classes",
			nTrain, nTest, len(classes))
	}

	alloc := allocateTest(classes, members, nTest, n)
	rng := rand.New(rand.NewPCG(seed, 0))
	train := make([]int, 0, nTrain)
	test := make([]int, 0, nTest)
	for ci, c := range classes {
		idx := slices.Clone(members[c])
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		test = append(test, idx[:alloc[ci]]...)
		train = append(train, idx[alloc[ci]:]...)
	}
	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}

// allocateTest splits nTest slots across classes by largest remainder, leaving at least
// one member of every class for training.
func allocateTest(classes []schema.Tier, members map[schema.Tier][]int, nTest, n int) []int {
	alloc := make([]int, len(classes))
	rem := make([]float64, len(classes))
	used := 0
	for i, c := range classes {
		exact := float64(nTest) * float64(len(members[c])) / float64(n)
		alloc[i] = min(int(exact), len(members[c])-1)
		rem[i] = exact - float64(alloc[i])
		used += alloc[i]
	}

	order := make([]int, len(classes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(rem[b], rem[a])
	})
	for used < nTest {
		progressed := false
		for _, i := range order {
			if used == nTest {
				break
			}
			if alloc[i] < len(members[classes[i]])-1 {
				alloc[i]++
				used++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return alloc
}

// StratifiedKFold deals every class round robin into folds after a seeded shuffle and
// returns the sorted test indices of each fold.
func StratifiedKFold(labels []schema.Tier, folds int, seed uint64) ([][]int, error) {
	if folds < 2 {
		return nil, eris.Errorf("algo: need at least 2 folds, got %d", folds)
	}
	if len(labels) < folds {
		return nil, eris.Wrapf(ErrSplitImpossible, "algo: %d samples for %d folds", len(labels), folds)
	}
	classes, members := classMembers(labels)
	largest := 0
	for _, c := range classes {
		largest = max(largest, len(members[c]))
	}
	if largest < folds {
		return nil, eris.Wrapf(ErrSplitImpossible, "algo: every class is smaller than %d folds", folds)
	}

	rng := rand.New(rand.NewPCG(seed, 1))
	out := make([][]int, folds)
	next := 0
	for _, c := range classes {
		idx := slices.Clone(members[c])
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		for _, i := range idx {
			out[next] = append(out[next], i)
			next = (next + 1) % folds
		}
	}
	for f := range out {
		slices.Sort(out[f])
	}
	return out, nil
}

// Complement returns the indices in [0, n) that are not in sorted.
func Complement(n int, sorted []int) []int {
	out := make([]int, 0, n-len(sorted))
	j := 0
	for i := range n {
		if j < len(sorted) && sorted[j] == i {
			j++
			continue
		}
		out = append(out, i)
	}
	return out
}

// SelectRows copies the given rows of m into a new matrix.
func SelectRows(m *mat.Dense, rows []int) *mat.Dense {
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	_, cols := m.Dims()
	out := mat.NewDense(len(rows), cols, nil)
	for i, r := range rows {
		out.SetRow(i, m.RawRowView(r))
	}
	return out
}

// SelectLabels picks labels at the given indices.
func SelectLabels(labels []schema.Tier, idx []int) []schema.Tier {
	out := make([]schema.Tier, len(idx))
	for i, j := range idx {
		out[i] = labels[j]
	}
	return out
}
