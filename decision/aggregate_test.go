package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodedAttempt(v Value, temp float64) Attempt {
	return Attempt{Outcome: OutcomeDecoded, Value: v, Temperature: temp}
}

func rejectedAttempt() Attempt {
	return Attempt{Outcome: OutcomeParseRejected, Reason: RejectAmbiguousBoolean}
}

func TestQuorum(t *testing.T) {
	tests := []struct{ rounds, want int }{
		{1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {10, 5}, {11, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quorum(tt.rounds), "rounds=%d", tt.rounds)
	}
}

func TestAggregateBooleanMajority(t *testing.T) {
	attempts := []Attempt{
		decodedAttempt(BoolValue(true), 0.2),
		decodedAttempt(BoolValue(true), 0.4),
		decodedAttempt(BoolValue(true), 0.6),
		decodedAttempt(BoolValue(false), 0.8),
		decodedAttempt(BoolValue(false), 1.0),
	}

	agg := Aggregate(attempts, BooleanSpec(), true, 5)
	require.False(t, agg.Unresolved)
	require.NotNil(t, agg.Winner)
	assert.True(t, agg.Winner.Bool)
	assert.Equal(t, 3, agg.WinnerVotes)
	assert.Equal(t, 5, agg.Decoded)
	assert.InDelta(t, 0.6, Confidence(agg.Distribution, *agg.Winner, agg.Decoded), 1e-9)
}

func TestAggregateQuorumNotMet(t *testing.T) {
	// 4 decoded out of 10 rounds is below the 5-vote quorum, even though
	// every decoded attempt agrees.
	attempts := []Attempt{
		decodedAttempt(BoolValue(true), 0.2),
		decodedAttempt(BoolValue(true), 0.4),
		decodedAttempt(BoolValue(true), 0.6),
		decodedAttempt(BoolValue(true), 0.8),
		rejectedAttempt(),
		rejectedAttempt(),
	}

	agg := Aggregate(attempts, BooleanSpec(), true, 10)
	assert.True(t, agg.Unresolved)
	assert.Nil(t, agg.Winner)
	assert.Equal(t, 4, agg.Decoded)
}

func TestAggregateIntegerMedianOdd(t *testing.T) {
	attempts := []Attempt{
		decodedAttempt(IntValue(10), 0.2),
		decodedAttempt(IntValue(12), 0.4),
		decodedAttempt(IntValue(14), 0.6),
		decodedAttempt(IntValue(100), 0.8),
		decodedAttempt(IntValue(11), 1.0),
	}

	agg := Aggregate(attempts, IntegerSpec(0, 1000), true, 5)
	require.False(t, agg.Unresolved)
	require.NotNil(t, agg.Winner)
	// The outlier 100 must not drag the result; the median is 12.
	assert.Equal(t, int64(12), agg.Winner.Int)
	assert.Equal(t, 1, agg.WinnerVotes)
}

func TestAggregateIntegerMedianEvenRoundsHalfUp(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		want   int64
	}{
		{"midpoint half", []int64{1, 2, 3, 4}, 3},
		{"exact midpoint", []int64{2, 4}, 3},
		{"negative midpoint", []int64{-3, -2}, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts []Attempt
			for i, v := range tt.values {
				attempts = append(attempts, decodedAttempt(IntValue(v), 0.2+0.1*float64(i)))
			}
			agg := Aggregate(attempts, IntegerSpec(-1000, 1000), true, len(attempts))
			require.NotNil(t, agg.Winner)
			assert.Equal(t, tt.want, agg.Winner.Int)
		})
	}
}

func TestAggregateIntegerMedianAbsentFromSample(t *testing.T) {
	attempts := []Attempt{
		decodedAttempt(IntValue(2), 0.2),
		decodedAttempt(IntValue(4), 0.4),
	}

	agg := Aggregate(attempts, IntegerSpec(0, 10), true, 2)
	require.False(t, agg.Unresolved)
	require.NotNil(t, agg.Winner)
	assert.Equal(t, int64(3), agg.Winner.Int)
	// Neither attempt answered 3, so the winner carries no votes and any
	// confidence computed from them is zero.
	assert.Zero(t, agg.WinnerVotes)
	assert.InDelta(t, 0.0, Confidence(agg.Distribution, *agg.Winner, agg.Decoded), 1e-9)
}

func TestAggregateEnumTieUnresolved(t *testing.T) {
	attempts := []Attempt{
		decodedAttempt(EnumValue("buy"), 0.2),
		decodedAttempt(EnumValue("buy"), 0.4),
		decodedAttempt(EnumValue("sell"), 0.6),
		decodedAttempt(EnumValue("sell"), 0.8),
	}

	agg := Aggregate(attempts, EnumSpec([]string{"buy", "sell"}, false), true, 4)
	assert.True(t, agg.Unresolved)
	assert.Nil(t, agg.Winner)
}

func TestAggregateEnumTieBreakLowestTemperature(t *testing.T) {
	attempts := []Attempt{
		decodedAttempt(EnumValue("buy"), 0.8),
		decodedAttempt(EnumValue("buy"), 1.0),
		decodedAttempt(EnumValue("sell"), 0.2),
		decodedAttempt(EnumValue("sell"), 0.6),
	}

	// With unresolved outcomes forbidden, the tied value first reached at
	// the lowest temperature wins.
	agg := Aggregate(attempts, EnumSpec([]string{"buy", "sell"}, false), false, 4)
	require.False(t, agg.Unresolved)
	require.NotNil(t, agg.Winner)
	assert.Equal(t, "sell", agg.Winner.Str)
	assert.Equal(t, 2, agg.WinnerVotes)
}

func TestAggregateTieBreakEqualTemperatureIsDeterministic(t *testing.T) {
	attempts := []Attempt{
		decodedAttempt(EnumValue("hold"), 0.5),
		decodedAttempt(EnumValue("buy"), 0.5),
	}

	agg := Aggregate(attempts, EnumSpec([]string{"buy", "hold"}, false), false, 2)
	require.NotNil(t, agg.Winner)
	assert.Equal(t, "buy", agg.Winner.Str)
}

func TestAggregateOnlyDecodedAttemptsVote(t *testing.T) {
	attempts := []Attempt{
		decodedAttempt(BoolValue(true), 0.2),
		decodedAttempt(BoolValue(true), 0.4),
		{Outcome: OutcomeUnknown, Temperature: 0.6},
		rejectedAttempt(),
		{Outcome: OutcomeTransportFailed},
	}

	agg := Aggregate(attempts, BooleanSpec(), true, 3)
	require.False(t, agg.Unresolved)
	assert.Equal(t, 2, agg.Decoded)
	assert.Equal(t, VoteDistribution{"true": 2}, agg.Distribution)
}

func TestAggregateNothingDecoded(t *testing.T) {
	attempts := []Attempt{rejectedAttempt(), rejectedAttempt()}
	agg := Aggregate(attempts, BooleanSpec(), true, 2)
	assert.True(t, agg.Unresolved)
	assert.Equal(t, 0, agg.Decoded)
}
