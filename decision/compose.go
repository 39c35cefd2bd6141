package decision

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/decisionflow/llm/tokenizer"
)

// UnknownSentinel is the single phrase the model must emit, alone on the
// final line, to signal that the answer cannot be determined. The
// composer teaches it and the decoder matches it exactly
// (case-insensitive); there is no fuzzy detection.
const UnknownSentinel = "UNDETERMINED"

// ComposerConfig tunes prompt construction.
type ComposerConfig struct {
	// ReasoningSteps is the number of reasoning steps the prompt asks
	// the model to show before concluding.
	ReasoningSteps int `json:"reasoning_steps" yaml:"reasoning_steps"`
	// ConclusionSentences is the number of sentences the conclusion may
	// use before the final answer line.
	ConclusionSentences int `json:"conclusion_sentences" yaml:"conclusion_sentences"`
	// TokenBudget logs a warning when a composed prompt exceeds it.
	// Zero disables the check.
	TokenBudget int `json:"token_budget" yaml:"token_budget"`
	// Model selects the tokenizer for the budget estimate.
	Model string `json:"model" yaml:"model"`
}

// DefaultComposerConfig returns the default prompt shape.
func DefaultComposerConfig() ComposerConfig {
	return ComposerConfig{
		ReasoningSteps:      3,
		ConclusionSentences: 1,
	}
}

// Composer builds one reasoning prompt per attempt. Composition is
// deterministic and never includes another attempt's text.
type Composer struct {
	config ComposerConfig
	tok    tokenizer.Tokenizer
	logger *zap.Logger
}

// NewComposer creates a prompt composer.
func NewComposer(config ComposerConfig, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ReasoningSteps <= 0 {
		config.ReasoningSteps = DefaultComposerConfig().ReasoningSteps
	}
	if config.ConclusionSentences <= 0 {
		config.ConclusionSentences = DefaultComposerConfig().ConclusionSentences
	}
	var tok tokenizer.Tokenizer
	if config.TokenBudget > 0 {
		tok = tokenizer.ForModel(config.Model)
	}
	return &Composer{
		config: config,
		tok:    tok,
		logger: logger.With(zap.String("component", "composer")),
	}
}

// Compose builds the prompt for one attempt. The attempt index and
// temperature identify the attempt for logging; they do not alter the
// prompt text, so a fixed schedule yields byte-identical prompts.
func (c *Composer) Compose(req *Request, temperature float64, attemptIndex int) string {
	var b strings.Builder

	b.WriteString("Answer the following question by reasoning step by step.\n\n")
	b.WriteString("## Question\n")
	b.WriteString(strings.TrimSpace(req.Instructions))
	b.WriteString("\n")

	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		b.WriteString("\n## Context\n")
		b.WriteString(ctx)
		b.WriteString("\n")
	}

	b.WriteString("\n## Instructions\n")
	fmt.Fprintf(&b, "1. Think through the question in up to %d numbered reasoning steps.\n",
		c.config.ReasoningSteps)
	fmt.Fprintf(&b, "2. State your conclusion in at most %s.\n",
		pluralSentences(c.config.ConclusionSentences))
	b.WriteString("3. ")
	b.WriteString(c.formatConstraint(req.Output))
	b.WriteString("\n")
	fmt.Fprintf(&b, "4. If the answer cannot be determined from the available information, write %s alone on the final line instead.\n",
		UnknownSentinel)

	prompt := b.String()
	c.checkBudget(prompt, attemptIndex, temperature)
	return prompt
}

// formatConstraint renders the output-format rule for the spec so the
// decoder's grammar is learnable by the model.
func (c *Composer) formatConstraint(spec OutputSpec) string {
	switch spec.Kind {
	case KindBoolean:
		return "End with exactly one word on the final line: YES or NO."
	case KindInteger:
		return fmt.Sprintf("End with a single integer between %d and %d (inclusive) alone on the final line.",
			spec.Low, spec.High)
	case KindEnum:
		return fmt.Sprintf("End with exactly one of the following options alone on the final line: %s.",
			strings.Join(spec.AllowedValues, " | "))
	default:
		return "End with your answer alone on the final line."
	}
}

func (c *Composer) checkBudget(prompt string, attemptIndex int, temperature float64) {
	if c.tok == nil {
		return
	}
	count, err := c.tok.CountTokens(prompt)
	if err != nil {
		c.logger.Warn("token count failed, skipping budget check", zap.Error(err))
		return
	}
	if count > c.config.TokenBudget {
		c.logger.Warn("prompt exceeds token budget",
			zap.Int("tokens", count),
			zap.Int("budget", c.config.TokenBudget),
			zap.Int("attempt", attemptIndex),
			zap.Float64("temperature", temperature),
		)
	}
}

func pluralSentences(n int) string {
	if n == 1 {
		return "one sentence"
	}
	return fmt.Sprintf("%d sentences", n)
}
