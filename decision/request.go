package decision

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/decisionflow/types"
)

// TemperatureSchedule produces the temperature for one attempt. It must
// be pure: given the same (attemptIndex, totalRounds) it returns the same
// temperature, which keeps batches reproducible under a mocked provider.
type TemperatureSchedule func(attemptIndex, totalRounds int) float64

// FixedTemperature runs every attempt at the same temperature.
func FixedTemperature(t float64) TemperatureSchedule {
	return func(int, int) float64 { return t }
}

// LinearSpread spreads attempts evenly over [low, high]. A single round
// runs at low.
func LinearSpread(low, high float64) TemperatureSchedule {
	return func(attemptIndex, totalRounds int) float64 {
		if totalRounds <= 1 {
			return low
		}
		step := (high - low) / float64(totalRounds-1)
		return low + step*float64(attemptIndex)
	}
}

// Request is the full configuration for one ensemble reasoning call.
type Request struct {
	// Instructions is the question the model reasons about.
	Instructions string

	// Output constrains the result shape.
	Output OutputSpec

	// VotingRounds is the number of independent attempts (N >= 1).
	VotingRounds int

	// Schedule assigns one temperature per attempt. Nil defaults to
	// LinearSpread(0.2, 1.0).
	Schedule TemperatureSchedule

	// ConfidenceThreshold separates Resolved from low-confidence
	// outcomes. Must be in [0, 1]; zero means any majority resolves.
	ConfidenceThreshold float64

	// TimeBudget bounds the whole batch. Zero uses the engine default.
	TimeBudget time.Duration

	// AllowUnresolved permits returning "no answer" instead of a
	// low-confidence guess.
	AllowUnresolved bool

	// Context is optional free text appended to every prompt.
	Context string

	// Model is passed through to the provider.
	Model string
}

const (
	defaultTemperatureLow  = 0.2
	defaultTemperatureHigh = 1.0
)

// Validate checks the request's invariants. Validation failures are
// fatal: the engine surfaces them as Failed without dispatching.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Instructions) == "" {
		return types.NewError(types.ErrInvalidRequest, "instructions must not be empty")
	}
	if r.VotingRounds < 1 {
		return types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("voting rounds must be >= 1, got %d", r.VotingRounds))
	}
	if r.ConfidenceThreshold < 0 || r.ConfidenceThreshold > 1 {
		return types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("confidence threshold must be in [0,1], got %g", r.ConfidenceThreshold))
	}
	if r.TimeBudget < 0 {
		return types.NewError(types.ErrInvalidRequest, "time budget must not be negative")
	}
	if err := r.Output.Validate(); err != nil {
		return err
	}
	return nil
}

// temperatureFor resolves the schedule for one attempt.
func (r *Request) temperatureFor(attemptIndex int) float64 {
	schedule := r.Schedule
	if schedule == nil {
		schedule = LinearSpread(defaultTemperatureLow, defaultTemperatureHigh)
	}
	return schedule(attemptIndex, r.VotingRounds)
}

// Digest returns a stable key identifying the request's observable
// behavior: instructions, output spec, resolved temperatures, policy
// knobs, and context. Two requests with equal digests produce the same
// decision given a deterministic provider, which is what makes the
// result cache sound.
func (r *Request) Digest() string {
	h := sha256.New()
	fmt.Fprintf(h, "i:%s\n", r.Instructions)
	fmt.Fprintf(h, "s:%s\n", r.Output.canonical())
	fmt.Fprintf(h, "n:%d\n", r.VotingRounds)
	for i := 0; i < r.VotingRounds; i++ {
		fmt.Fprintf(h, "t%d:%.6f\n", i, r.temperatureFor(i))
	}
	fmt.Fprintf(h, "c:%.6f\n", r.ConfidenceThreshold)
	fmt.Fprintf(h, "u:%t\n", r.AllowUnresolved)
	fmt.Fprintf(h, "x:%s\n", r.Context)
	fmt.Fprintf(h, "m:%s\n", r.Model)
	return hex.EncodeToString(h.Sum(nil))
}
