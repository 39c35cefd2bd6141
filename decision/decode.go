package decision

import (
	"regexp"
	"strconv"
	"strings"
)

// DecodeResult is the typed outcome of parsing one raw response.
// Outcome is one of OutcomeDecoded, OutcomeUnknown, OutcomeParseRejected.
type DecodeResult struct {
	Outcome OutcomeKind
	Value   Value
	Reason  RejectReason
}

// booleanWindowLines bounds how far back the boolean decoder looks for a
// conclusion signal. The model reasons first and concludes last, so the
// signal must sit in the trailing portion.
const booleanWindowLines = 3

var (
	affirmativePattern = regexp.MustCompile(`(?i)\b(yes|true)\b`)
	negativePattern    = regexp.MustCompile(`(?i)\b(no|false)\b`)
	numberPattern      = regexp.MustCompile(`[+-]?\d+(?:\.\d+)?`)
)

// Decode parses raw generated text against the output spec. It never
// returns an error: malformed text is a structured rejection, and the
// explicit sentinel decodes to Unknown rather than a rejection.
func Decode(raw string, spec OutputSpec) DecodeResult {
	lines := nonEmptyLines(raw)
	if len(lines) == 0 {
		return DecodeResult{Outcome: OutcomeParseRejected, Reason: RejectEmptyResponse}
	}

	finalLine := lines[len(lines)-1]
	if strings.EqualFold(strings.TrimSpace(finalLine), UnknownSentinel) {
		return DecodeResult{Outcome: OutcomeUnknown}
	}

	switch spec.Kind {
	case KindBoolean:
		return decodeBoolean(lines)
	case KindInteger:
		return decodeInteger(raw, spec)
	default:
		return decodeEnum(finalLine, spec)
	}
}

// decodeBoolean looks for an unambiguous affirmative/negative signal in
// the trailing portion: the final line first, widening to the last few
// lines only when the final line carries no signal.
func decodeBoolean(lines []string) DecodeResult {
	windows := [][]string{lines[len(lines)-1:]}
	if len(lines) > 1 {
		start := len(lines) - booleanWindowLines
		if start < 0 {
			start = 0
		}
		windows = append(windows, lines[start:])
	}

	for _, window := range windows {
		text := strings.Join(window, "\n")
		affirmative := affirmativePattern.MatchString(text)
		negative := negativePattern.MatchString(text)
		switch {
		case affirmative && negative:
			return DecodeResult{Outcome: OutcomeParseRejected, Reason: RejectAmbiguousBoolean}
		case affirmative:
			return DecodeResult{Outcome: OutcomeDecoded, Value: BoolValue(true)}
		case negative:
			return DecodeResult{Outcome: OutcomeDecoded, Value: BoolValue(false)}
		}
	}
	return DecodeResult{Outcome: OutcomeParseRejected, Reason: RejectAmbiguousBoolean}
}

// decodeInteger extracts the final standalone integer literal. Decimal
// literals and digits embedded in identifiers do not qualify. An
// out-of-bounds integer is always a rejection, never clamped.
func decodeInteger(raw string, spec OutputSpec) DecodeResult {
	matches := numberPattern.FindAllStringIndex(raw, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		start, end := matches[i][0], matches[i][1]
		token := raw[start:end]
		if strings.Contains(token, ".") {
			continue
		}
		if start > 0 {
			prev := raw[start-1]
			if isWordByte(prev) || prev == '.' {
				continue
			}
		}
		n, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			continue
		}
		if n < spec.Low || n > spec.High {
			return DecodeResult{Outcome: OutcomeParseRejected, Reason: RejectOutOfBounds}
		}
		return DecodeResult{Outcome: OutcomeDecoded, Value: IntValue(n)}
	}
	return DecodeResult{Outcome: OutcomeParseRejected, Reason: RejectNoIntegerFound}
}

// decodeEnum matches the final line exactly against the allowed set
// after normalization. No partial or fuzzy matching.
func decodeEnum(finalLine string, spec OutputSpec) DecodeResult {
	candidate := spec.NormalizeEnum(finalLine)
	for _, allowed := range spec.AllowedValues {
		if candidate == spec.NormalizeEnum(allowed) {
			return DecodeResult{Outcome: OutcomeDecoded, Value: EnumValue(candidate)}
		}
	}
	return DecodeResult{Outcome: OutcomeParseRejected, Reason: RejectNotInAllowedSet}
}

func nonEmptyLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
