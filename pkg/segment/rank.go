package segment

import (
	"math/big"
	"sort"
)

// Candidate is a dictionary word starting at the current point of the input.
type Candidate struct {
	Word  string
	Score Score
}

// exactLimit bounds scores whose priorities are computed in int64.
const exactLimit = 1 << 53

// rank orders the candidates of one node from highest to lowest priority.
//
// Each candidate, in the order given, takes its score as priority. When the
// slot is already taken it moves up by one until a free slot is found. The
// result is sorted by these unique priorities, so equal scores resolve by
// encounter order, later candidates first.
func rank(words []string, scorer *Scorer) []Candidate {
	cands := make([]Candidate, len(words))
	small := true
	for i, w := range words {
		s := scorer.Score(w)
		cands[i] = Candidate{Word: w, Score: s}
		if float64(s) >= exactLimit {
			small = false
		}
	}
	if len(cands) < 2 {
		return cands
	}
	if small {
		return rankSmall(cands)
	}
	return rankBig(cands)
}

func rankSmall(cands []Candidate) []Candidate {
	prio := make([]int64, len(cands))
	for i, c := range cands {
		p := int64(c.Score)
		for slotTaken(prio[:i], p) {
			p++
		}
		prio[i] = p
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return prio[order[a]] > prio[order[b]]
	})
	return reorder(cands, order)
}

func slotTaken(slots []int64, p int64) bool {
	for _, s := range slots {
		if s == p {
			return true
		}
	}
	return false
}

// rankBig is rankSmall for scores past the exact float64 range, where adding
// one to the float would be lost.
func rankBig(cands []Candidate) []Candidate {
	one := big.NewInt(1)
	prio := make([]*big.Int, len(cands))
	for i, c := range cands {
		p, _ := new(big.Float).SetFloat64(float64(c.Score)).Int(nil)
		for bigSlotTaken(prio[:i], p) {
			p.Add(p, one)
		}
		prio[i] = p
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return prio[order[a]].Cmp(prio[order[b]]) > 0
	})
	return reorder(cands, order)
}

func bigSlotTaken(slots []*big.Int, p *big.Int) bool {
	for _, s := range slots {
		if s.Cmp(p) == 0 {
			return true
		}
	}
	return false
}

func reorder(cands []Candidate, order []int) []Candidate {
	ranked := make([]Candidate, len(cands))
	for i, idx := range order {
		ranked[i] = cands[idx]
	}
	return ranked
}
