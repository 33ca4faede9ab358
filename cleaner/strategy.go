package cleaner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/is-leeroy-jenkins/Soupy/models"
)

// Strategy reduces markup to text. Extraction and conversion strategies both
// implement it so one runner serves both chains.
type Strategy interface {
	// Name is the display name used in diagnostics only.
	Name() string

	// Apply returns the strategy output for markup. An empty or blank output
	// counts as a failure.
	Apply(markup string) (string, error)
}

var errEmptyResult = errors.New("empty result")

// Run evaluates strategies in order and returns the first non-blank output.
// Every strategy attempted before the winner, or every strategy when none
// wins, contributes one diagnostic to the returned error.
func Run(chain, markup string, strategies ...Strategy) (string, error) {
	diags := make([]models.Diagnostic, 0, len(strategies))
	for _, s := range strategies {
		out, err := attempt(s, markup)
		if err == nil && strings.TrimSpace(out) == "" {
			err = errEmptyResult
		}
		if err != nil {
			diags = append(diags, models.NewStrategyFailure(s.Name(), err).Diagnostic())
			continue
		}
		return out, nil
	}
	return "", models.NewAllStrategiesFailed(chain, diags)
}

// attempt runs a single strategy and turns a panic into an error, so nothing
// escapes the strategy boundary.
func attempt(s Strategy, markup string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Apply(markup)
}

// Chain is a named, ordered list of strategies.
type Chain struct {
	name       string
	strategies []Strategy
}

// NewChain creates a Chain. The strategies slice is copied.
func NewChain(name string, strategies ...Strategy) *Chain {
	return &Chain{name: name, strategies: append([]Strategy(nil), strategies...)}
}

func (c *Chain) Name() string { return c.name }

// Strategies returns the display names in evaluation order.
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Run applies the chain to markup.
func (c *Chain) Run(markup string) (string, error) {
	return Run(c.name, markup, c.strategies...)
}
