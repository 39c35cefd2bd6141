package decision

import (
	"math"
	"sort"
)

// Aggregation is the reduction of a settled attempt batch. When
// Unresolved is true no winner exists: quorum failed, the vote tied with
// unresolved outcomes permitted, or nothing voted.
type Aggregation struct {
	Distribution VoteDistribution
	Decoded      int
	Winner       *Value
	WinnerVotes  int
	Unresolved   bool
}

// Quorum returns the minimum number of decoded attempts required before
// a vote is trusted: half the voting rounds, rounded up.
func Quorum(votingRounds int) int {
	return (votingRounds + 1) / 2
}

// Aggregate reduces settled attempts to one value using the
// type-specific voting rule. Only decoded attempts vote; everything else
// is excluded from the vote but still counted by the caller. Aggregation
// is commutative over attempt order.
func Aggregate(attempts []Attempt, spec OutputSpec, allowUnresolved bool, votingRounds int) Aggregation {
	dist := make(VoteDistribution)
	// Lowest temperature seen per vote key, for the tie-break.
	minTemp := make(map[string]float64)
	byKey := make(map[string]Value)

	decoded := 0
	for _, a := range attempts {
		if !a.Voted() {
			continue
		}
		decoded++
		key := a.Value.Key()
		dist[key]++
		byKey[key] = a.Value
		if t, ok := minTemp[key]; !ok || a.Temperature < t {
			minTemp[key] = a.Temperature
		}
	}

	agg := Aggregation{Distribution: dist, Decoded: decoded}

	// A minority voice must not masquerade as a decision.
	if decoded < Quorum(votingRounds) {
		agg.Unresolved = true
		return agg
	}

	if spec.Kind == KindInteger {
		value := medianInteger(attempts)
		agg.Winner = &value
		agg.WinnerVotes = dist[value.Key()]
		return agg
	}

	winner, votes, tied := modeWithTieBreak(dist, byKey, minTemp, allowUnresolved)
	if tied {
		agg.Unresolved = true
		return agg
	}
	agg.Winner = &winner
	agg.WinnerVotes = votes
	return agg
}

// medianInteger returns the median of decoded integers, robust to
// outlier reasoning errors. An even-sized sample rounds the midpoint
// half-up; the rounded midpoint may match no attempt (e.g. [2,4] → 3),
// in which case the winner carries zero votes and therefore zero
// confidence, resolving only when the threshold is zero.
func medianInteger(attempts []Attempt) Value {
	var values []int64
	for _, a := range attempts {
		if a.Voted() {
			values = append(values, a.Value.Int)
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	n := len(values)
	if n%2 == 1 {
		return IntValue(values[n/2])
	}
	mid := (float64(values[n/2-1]) + float64(values[n/2])) / 2
	return IntValue(int64(math.Floor(mid + 0.5)))
}

// modeWithTieBreak picks the most-voted value. On an exact tie the vote
// is unresolved unless the caller opted out of "no answer", in which
// case the tied value reached at the lowest temperature wins (lower
// temperature, more deterministic reasoning).
func modeWithTieBreak(
	dist VoteDistribution,
	byKey map[string]Value,
	minTemp map[string]float64,
	allowUnresolved bool,
) (Value, int, bool) {
	best := 0
	for _, count := range dist {
		if count > best {
			best = count
		}
	}

	var tiedKeys []string
	for key, count := range dist {
		if count == best {
			tiedKeys = append(tiedKeys, key)
		}
	}

	if len(tiedKeys) == 1 {
		return byKey[tiedKeys[0]], best, false
	}
	if allowUnresolved {
		return Value{}, 0, true
	}

	// Deterministic pick: lowest temperature, then lexicographic key so
	// equal-temperature ties cannot flap between runs.
	sort.Strings(tiedKeys)
	winner := tiedKeys[0]
	for _, key := range tiedKeys[1:] {
		if minTemp[key] < minTemp[winner] {
			winner = key
		}
	}
	return byKey[winner], best, false
}
