package crossref

import (
	"sort"
)

// DefaultThreshold is the minimum Jaro-Winkler similarity for a fuzzy match
const DefaultThreshold = 0.88

// MatchKind says how a pair was matched
type MatchKind string

const (
	KindEmail MatchKind = "email"
	KindName  MatchKind = "name"
	KindFuzzy MatchKind = "fuzzy"
	KindNone  MatchKind = "none"
)

// Match pairs a left record with its counterpart, if any
type Match struct {
	Left  Record    `json:"left"`
	Right *Record   `json:"right,omitempty"`
	Kind  MatchKind `json:"kind"`
	Score float64   `json:"score"`
}

// Matcher cross-references two contact lists
type Matcher struct {
	Threshold float64
}

// NewMatcher creates a matcher; a non-positive threshold selects the default
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{Threshold: threshold}
}

type candidate struct {
	left, right int
	score       float64
}

// Match returns one result per left record, in left order. Each right
// record is consumed by at most one left record.
func (m *Matcher) Match(left, right []Record) []Match {
	results := make([]Match, len(left))
	for i := range left {
		results[i] = Match{Left: left[i], Kind: KindNone}
	}
	usedRight := make([]bool, len(right))
	matched := make([]bool, len(left))

	assign := func(li, ri int, kind MatchKind, score float64) {
		r := right[ri]
		results[li].Right = &r
		results[li].Kind = kind
		results[li].Score = score
		matched[li] = true
		usedRight[ri] = true
	}

	// Pass 1: identical email
	byEmail := make(map[string][]int)
	for i, r := range right {
		if r.Email != "" {
			byEmail[r.Email] = append(byEmail[r.Email], i)
		}
	}
	for li, l := range left {
		if l.Email == "" {
			continue
		}
		for _, ri := range byEmail[l.Email] {
			if !usedRight[ri] {
				assign(li, ri, KindEmail, 1)
				break
			}
		}
	}

	// Pass 2: identical normalized name
	byName := make(map[string][]int)
	for i, r := range right {
		if key := NormalizeName(r.Name); key != "" {
			byName[key] = append(byName[key], i)
		}
	}
	for li, l := range left {
		if matched[li] {
			continue
		}
		key := NormalizeName(l.Name)
		if key == "" {
			continue
		}
		for _, ri := range byName[key] {
			if !usedRight[ri] {
				assign(li, ri, KindName, 1)
				break
			}
		}
	}

	// Pass 3: best similarity first, across all remaining pairs
	rightKeys := make([][]string, len(right))
	for i, r := range right {
		rightKeys[i] = fuzzyKeys(r)
	}
	var candidates []candidate
	for li, l := range left {
		if matched[li] {
			continue
		}
		lk := fuzzyKeys(l)
		if len(lk) == 0 {
			continue
		}
		for ri, rk := range rightKeys {
			if usedRight[ri] || len(rk) == 0 {
				continue
			}
			if score := fuzzyScore(lk, rk); score >= m.Threshold {
				candidates = append(candidates, candidate{left: li, right: ri, score: score})
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].left != candidates[j].left {
			return candidates[i].left < candidates[j].left
		}
		return candidates[i].right < candidates[j].right
	})
	for _, c := range candidates {
		if matched[c.left] || usedRight[c.right] {
			continue
		}
		assign(c.left, c.right, KindFuzzy, c.score)
	}

	return results
}

// Unmatched returns the right records no left record claimed
func Unmatched(matches []Match, right []Record) []Record {
	claimed := make(map[int]struct{}, len(matches))
	for _, m := range matches {
		if m.Right != nil {
			claimed[m.Right.Row] = struct{}{}
		}
	}
	var out []Record
	for _, r := range right {
		if _, ok := claimed[r.Row]; !ok {
			out = append(out, r)
		}
	}
	return out
}
