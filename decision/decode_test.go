package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeBoolean(t *testing.T) {
	spec := BooleanSpec()
	tests := []struct {
		name    string
		raw     string
		outcome OutcomeKind
		value   bool
		reason  RejectReason
	}{
		{"bare yes", "YES", OutcomeDecoded, true, ""},
		{"bare no", "no", OutcomeDecoded, false, ""},
		{"sentence affirmative", "Considering the evidence, the answer is yes.", OutcomeDecoded, true, ""},
		{"true keyword", "Final answer: true", OutcomeDecoded, true, ""},
		{
			"final line wins over reasoning",
			"Is it plausible? Yes, at first glance.\nBut the data disagrees.\nFinal answer: NO",
			OutcomeDecoded, false, "",
		},
		{
			"window fallback",
			"Step 1: the premise holds.\nStep 2: so the answer is yes.\nThat settles it.",
			OutcomeDecoded, true, "",
		},
		{"both signals", "yes and no", OutcomeParseRejected, false, RejectAmbiguousBoolean},
		{"no signal", "Probably. Hard to say.", OutcomeParseRejected, false, RejectAmbiguousBoolean},
		{"empty", "   \n  \n", OutcomeParseRejected, false, RejectEmptyResponse},
		{"yes embedded in word is not a signal", "eyesight matters here", OutcomeParseRejected, false, RejectAmbiguousBoolean},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.raw, spec)
			assert.Equal(t, tt.outcome, got.Outcome)
			assert.Equal(t, tt.reason, got.Reason)
			if tt.outcome == OutcomeDecoded {
				assert.Equal(t, tt.value, got.Value.Bool)
			}
		})
	}
}

func TestDecodeSentinel(t *testing.T) {
	for _, spec := range []OutputSpec{BooleanSpec(), IntegerSpec(0, 10), EnumSpec([]string{"a", "b"}, false)} {
		got := Decode("I weighed both sides.\nUNDETERMINED", spec)
		assert.Equal(t, OutcomeUnknown, got.Outcome, "kind %s", spec.Kind)
	}

	// Case-insensitive match.
	got := Decode("undetermined", BooleanSpec())
	assert.Equal(t, OutcomeUnknown, got.Outcome)

	// The sentinel must stand alone on the final line.
	got = Decode("The outcome is UNDETERMINED at this point.", BooleanSpec())
	assert.NotEqual(t, OutcomeUnknown, got.Outcome)
}

func TestDecodeInteger(t *testing.T) {
	spec := IntegerSpec(0, 100)
	tests := []struct {
		name    string
		raw     string
		outcome OutcomeKind
		value   int64
		reason  RejectReason
	}{
		{"bare integer", "42", OutcomeDecoded, 42, ""},
		{"last integer wins", "I first guessed 10, but the final count is 7", OutcomeDecoded, 7, ""},
		{"trailing period", "The answer is 42.", OutcomeDecoded, 42, ""},
		{"out of bounds", "I estimate 150", OutcomeParseRejected, 0, RejectOutOfBounds},
		{"decimal is not an integer", "roughly 3.14 of them", OutcomeParseRejected, 0, RejectNoIntegerFound},
		{"digit inside identifier", "see the v2 release notes", OutcomeParseRejected, 0, RejectNoIntegerFound},
		{"no number at all", "plenty", OutcomeParseRejected, 0, RejectNoIntegerFound},
		{"empty", "", OutcomeParseRejected, 0, RejectEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.raw, spec)
			assert.Equal(t, tt.outcome, got.Outcome)
			assert.Equal(t, tt.reason, got.Reason)
			if tt.outcome == OutcomeDecoded {
				assert.Equal(t, tt.value, got.Value.Int)
			}
		})
	}
}

func TestDecodeIntegerNegativeBounds(t *testing.T) {
	spec := IntegerSpec(-10, 10)
	got := Decode("The delta is -5", spec)
	assert.Equal(t, OutcomeDecoded, got.Outcome)
	assert.Equal(t, int64(-5), got.Value.Int)
}

func TestDecodeIntegerNeverClamps(t *testing.T) {
	spec := IntegerSpec(0, 100)
	got := Decode("101", spec)
	assert.Equal(t, OutcomeParseRejected, got.Outcome)
	assert.Equal(t, RejectOutOfBounds, got.Reason)
	assert.Zero(t, got.Value.Int)
}

func TestDecodeEnum(t *testing.T) {
	spec := EnumSpec([]string{"buy", "sell", "hold"}, false)
	tests := []struct {
		name    string
		raw     string
		outcome OutcomeKind
		value   string
		reason  RejectReason
	}{
		{"exact", "sell", OutcomeDecoded, "sell", ""},
		{"case folded", "Some reasoning first.\nBUY", OutcomeDecoded, "buy", ""},
		{"surrounding whitespace", "  hold  ", OutcomeDecoded, "hold", ""},
		{"not in set", "purchase", OutcomeParseRejected, "", RejectNotInAllowedSet},
		{"partial match rejected", "buy now", OutcomeParseRejected, "", RejectNotInAllowedSet},
		{"empty", "\n", OutcomeParseRejected, "", RejectEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.raw, spec)
			assert.Equal(t, tt.outcome, got.Outcome)
			assert.Equal(t, tt.reason, got.Reason)
			if tt.outcome == OutcomeDecoded {
				assert.Equal(t, tt.value, got.Value.Str)
			}
		})
	}
}

func TestDecodeEnumCaseSensitive(t *testing.T) {
	spec := EnumSpec([]string{"Buy", "Sell"}, true)

	got := Decode("Buy", spec)
	assert.Equal(t, OutcomeDecoded, got.Outcome)
	assert.Equal(t, "Buy", got.Value.Str)

	got = Decode("buy", spec)
	assert.Equal(t, OutcomeParseRejected, got.Outcome)
	assert.Equal(t, RejectNotInAllowedSet, got.Reason)
}
