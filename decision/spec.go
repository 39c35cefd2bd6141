package decision

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/BaSui01/decisionflow/types"
)

// OutputKind selects the result shape the engine is constrained to
// produce. The set is closed; decode and aggregate dispatch over it.
type OutputKind string

const (
	KindBoolean OutputKind = "boolean"
	KindInteger OutputKind = "integer"
	KindEnum    OutputKind = "enum"
)

// OutputSpec describes the expected result shape and its validation
// rules. Exactly one variant applies, selected by Kind.
type OutputSpec struct {
	Kind OutputKind `json:"kind"`

	// Integer bounds, inclusive. Used when Kind == KindInteger.
	Low  int64 `json:"low,omitempty"`
	High int64 `json:"high,omitempty"`

	// Enum values. Used when Kind == KindEnum.
	AllowedValues []string `json:"allowed_values,omitempty"`
	CaseSensitive bool     `json:"case_sensitive,omitempty"`
}

// BooleanSpec returns a yes/no output spec.
func BooleanSpec() OutputSpec {
	return OutputSpec{Kind: KindBoolean}
}

// IntegerSpec returns a bounded integer output spec.
func IntegerSpec(low, high int64) OutputSpec {
	return OutputSpec{Kind: KindInteger, Low: low, High: high}
}

// EnumSpec returns a one-of-string-set output spec.
func EnumSpec(values []string, caseSensitive bool) OutputSpec {
	return OutputSpec{Kind: KindEnum, AllowedValues: values, CaseSensitive: caseSensitive}
}

// Validate checks the spec's invariants.
func (s OutputSpec) Validate() error {
	switch s.Kind {
	case KindBoolean:
		return nil
	case KindInteger:
		if s.Low > s.High {
			return types.NewError(types.ErrInvalidOutputSpec,
				fmt.Sprintf("integer bounds inverted: low %d > high %d", s.Low, s.High))
		}
		return nil
	case KindEnum:
		if len(s.AllowedValues) == 0 {
			return types.NewError(types.ErrInvalidOutputSpec, "enum allowed values must not be empty")
		}
		seen := make(map[string]struct{}, len(s.AllowedValues))
		for _, v := range s.AllowedValues {
			norm := s.NormalizeEnum(v)
			if norm == "" {
				return types.NewError(types.ErrInvalidOutputSpec, "enum allowed values must not be blank")
			}
			if strings.EqualFold(strings.TrimSpace(v), UnknownSentinel) {
				// The sentinel marks "cannot determine" and is consumed
				// before enum matching, so it could never decode.
				return types.NewError(types.ErrInvalidOutputSpec,
					fmt.Sprintf("enum allowed value %q is reserved for the unknown sentinel", v))
			}
			if _, dup := seen[norm]; dup {
				return types.NewError(types.ErrInvalidOutputSpec,
					fmt.Sprintf("enum allowed values collide after normalization: %q", v))
			}
			seen[norm] = struct{}{}
		}
		return nil
	default:
		return types.NewError(types.ErrInvalidOutputSpec, fmt.Sprintf("unknown output kind %q", s.Kind))
	}
}

// NormalizeEnum applies the spec's normalization to an enum candidate:
// whitespace is trimmed, and unless CaseSensitive both sides of any
// comparison are lowercased.
func (s OutputSpec) NormalizeEnum(v string) string {
	v = strings.TrimSpace(v)
	if !s.CaseSensitive {
		v = strings.ToLower(v)
	}
	return v
}

// canonical returns a stable string form of the spec for digests.
func (s OutputSpec) canonical() string {
	switch s.Kind {
	case KindInteger:
		return fmt.Sprintf("integer[%d,%d]", s.Low, s.High)
	case KindEnum:
		normalized := make([]string, len(s.AllowedValues))
		for i, v := range s.AllowedValues {
			normalized[i] = s.NormalizeEnum(v)
		}
		sort.Strings(normalized)
		return fmt.Sprintf("enum[%s|cs=%t]", strings.Join(normalized, ","), s.CaseSensitive)
	default:
		return string(s.Kind)
	}
}

// Value is one decoded, normalized result. Exactly one of the typed
// fields is meaningful, selected by Kind.
type Value struct {
	Kind OutputKind `json:"kind"`
	Bool bool       `json:"bool,omitempty"`
	Int  int64      `json:"int,omitempty"`
	Str  string     `json:"str,omitempty"`
}

// BoolValue wraps a decoded boolean.
func BoolValue(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

// IntValue wraps a decoded integer.
func IntValue(n int64) Value { return Value{Kind: KindInteger, Int: n} }

// EnumValue wraps a decoded enum string (already normalized).
func EnumValue(s string) Value { return Value{Kind: KindEnum, Str: s} }

// Key returns the normalized vote key for the value. Two attempts that
// decoded the same answer always share a key.
func (v Value) Key() string {
	switch v.Kind {
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	default:
		return v.Str
	}
}

// String implements fmt.Stringer.
func (v Value) String() string { return v.Key() }
