package training

import (
	"math"
	"math/rand"
	"sort"

	"github.com/mikey/mailguard/internal/core"
)

// StratifiedSplit partitions sample indices into training and held-out sets,
// keeping class proportions as close as integer counts allow. The same
// labels and seed always give the same split.
func StratifiedSplit(labels []core.Label, testFraction float64, seed int64) (train, test []int, err error) {
	n := len(labels)
	nTest := int(math.Ceil(testFraction * float64(n)))
	if n == 0 || nTest <= 0 || nTest >= n {
		return nil, nil, core.InsufficientData("cannot hold out %.0f%% of %d samples", testFraction*100, n)
	}

	groups := make([][]int, len(core.Labels))
	for i, l := range labels {
		found := false
		for c, known := range core.Labels {
			if l == known {
				groups[c] = append(groups[c], i)
				found = true
				break
			}
		}
		if !found {
			return nil, nil, core.InsufficientData("sample %d has unknown label %q", i, l)
		}
	}
	for c, g := range groups {
		if len(g) < 2 {
			return nil, nil, core.InsufficientData("class %s has %d samples, need at least 2", core.Labels[c], len(g))
		}
	}

	alloc := allocate(groups, n, nTest)

	rng := rand.New(rand.NewSource(seed))
	for c, g := range groups {
		idx := append([]int(nil), g...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		test = append(test, idx[:alloc[c]]...)
		train = append(train, idx[alloc[c]:]...)
	}
	sort.Ints(train)
	sort.Ints(test)

	if len(test) == 0 {
		return nil, nil, core.InsufficientData("held-out split is empty")
	}
	return train, test, nil
}

// allocate spreads nTest held-out slots across classes by largest remainder,
// leaving every class at least one training sample.
func allocate(groups [][]int, n, nTest int) []int {
	alloc := make([]int, len(groups))
	frac := make([]float64, len(groups))
	assigned := 0
	for c, g := range groups {
		ideal := float64(nTest) * float64(len(g)) / float64(n)
		alloc[c] = int(math.Floor(ideal))
		frac[c] = ideal - float64(alloc[c])
		assigned += alloc[c]
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return frac[order[a]] > frac[order[b]] })

	for left := nTest - assigned; left > 0; {
		progressed := false
		for _, c := range order {
			if left == 0 {
				break
			}
			if alloc[c] < len(groups[c])-1 {
				alloc[c]++
				left--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	for c, g := range groups {
		if alloc[c] > len(g)-1 {
			alloc[c] = len(g) - 1
		}
	}
	return alloc
}
