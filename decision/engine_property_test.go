package decision

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"pgregory.net/rapid"
)

// drawAttempts generates a batch of settled attempts over a small enum
// vocabulary, mixing decoded, unknown, rejected, and failed outcomes.
func drawAttempts(t *rapid.T, spec OutputSpec) []Attempt {
	n := rapid.IntRange(1, 12).Draw(t, "rounds")
	attempts := make([]Attempt, n)
	for i := range attempts {
		temp := float64(rapid.IntRange(0, 100).Draw(t, "temp")) / 100
		switch rapid.IntRange(0, 3).Draw(t, "outcome") {
		case 0, 1:
			value := EnumValue(rapid.SampledFrom(spec.AllowedValues).Draw(t, "value"))
			attempts[i] = Attempt{Index: i, Temperature: temp, Outcome: OutcomeDecoded, Value: value}
		case 2:
			attempts[i] = Attempt{Index: i, Temperature: temp, Outcome: OutcomeUnknown}
		default:
			attempts[i] = Attempt{Index: i, Temperature: temp, Outcome: OutcomeParseRejected, Reason: RejectNotInAllowedSet}
		}
	}
	return attempts
}

func TestAggregateOrderIndependence(t *testing.T) {
	spec := EnumSpec([]string{"buy", "sell", "hold"}, false)

	rapid.Check(t, func(t *rapid.T) {
		attempts := drawAttempts(t, spec)
		allowUnresolved := rapid.Bool().Draw(t, "allow_unresolved")
		rounds := len(attempts)

		base := Aggregate(attempts, spec, allowUnresolved, rounds)

		shuffled := make([]Attempt, len(attempts))
		copy(shuffled, attempts)
		seed := rapid.Int64().Draw(t, "seed")
		rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		perm := Aggregate(shuffled, spec, allowUnresolved, rounds)

		if base.Unresolved != perm.Unresolved {
			t.Fatalf("unresolved differs under permutation: %v vs %v", base.Unresolved, perm.Unresolved)
		}
		if base.Decoded != perm.Decoded {
			t.Fatalf("decoded count differs under permutation: %d vs %d", base.Decoded, perm.Decoded)
		}
		for key, count := range base.Distribution {
			if perm.Distribution[key] != count {
				t.Fatalf("distribution differs for %q: %d vs %d", key, count, perm.Distribution[key])
			}
		}
		if base.Winner != nil {
			if perm.Winner == nil {
				t.Fatalf("winner lost under permutation")
			}
			if base.Winner.Key() != perm.Winner.Key() {
				t.Fatalf("winner differs under permutation: %s vs %s", base.Winner.Key(), perm.Winner.Key())
			}
			if base.WinnerVotes != perm.WinnerVotes {
				t.Fatalf("winner votes differ under permutation: %d vs %d", base.WinnerVotes, perm.WinnerVotes)
			}
		}
	})
}

func TestConfidenceBoundsProperty(t *testing.T) {
	spec := EnumSpec([]string{"buy", "sell", "hold"}, false)

	rapid.Check(t, func(t *rapid.T) {
		attempts := drawAttempts(t, spec)
		agg := Aggregate(attempts, spec, false, len(attempts))
		if agg.Winner == nil {
			return
		}

		c := Confidence(agg.Distribution, *agg.Winner, agg.Decoded)
		if c < 0 || c > 1 {
			t.Fatalf("confidence %g out of [0,1]", c)
		}
		if agg.WinnerVotes > agg.Decoded {
			t.Fatalf("winner votes %d exceed decoded %d", agg.WinnerVotes, agg.Decoded)
		}
		// The quorum gate held, so a winner implies enough votes.
		if agg.Decoded < Quorum(len(attempts)) {
			t.Fatalf("winner produced below quorum: %d < %d", agg.Decoded, Quorum(len(attempts)))
		}
	})
}

func TestQuorumAndMedianProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("quorum is a strict majority bound", prop.ForAll(
		func(n int) bool {
			q := Quorum(n)
			return q >= 1 && q <= n && 2*q >= n
		},
		gen.IntRange(1, 1000),
	))

	properties.Property("integer median stays within the sample bounds", prop.ForAll(
		func(values []int64) bool {
			attempts := make([]Attempt, len(values))
			lo, hi := values[0], values[0]
			for i, v := range values {
				attempts[i] = Attempt{Outcome: OutcomeDecoded, Value: IntValue(v)}
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
			agg := Aggregate(attempts, IntegerSpec(-1<<30, 1<<30), true, len(values))
			if agg.Winner == nil {
				return false
			}
			return agg.Winner.Int >= lo && agg.Winner.Int <= hi
		},
		gen.SliceOfN(5, gen.Int64Range(-1<<20, 1<<20)),
	))

	properties.TestingRun(t)
}
