package classify

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/idelchi/dirclean/internal/dirstat"
)

// Classifier runs a set of rules over one file list.
type Classifier struct {
	rules []Rule
	log   *slog.Logger
}

// New builds a Classifier with the rules enabled in policy, in canonical order.
func New(policy Policy, log *slog.Logger) (*Classifier, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	enabled := slices.Clone(policy.Rules)
	slices.SortFunc(enabled, func(a, b Reason) int { return a.rank() - b.rank() })
	enabled = slices.Compact(enabled)

	rules := make([]Rule, 0, len(enabled))

	for _, reason := range enabled {
		switch reason {
		case ReasonOld:
			rules = append(rules, OldFiles(policy.AgeThreshold, policy.now()))
		case ReasonLarge:
			rules = append(rules, LargeFiles(policy.LargeFileBytes))
		case ReasonDuplicate:
			rules = append(rules, Duplicates(policy.hashWorkers(), log))
		case ReasonTemporary:
			rules = append(rules, TemporaryFiles(policy.IgnoredExtensions))
		case ReasonNonEssential:
			rules = append(rules, NonEssentialFiles(policy.RequiredExtensions))
		case ReasonAnomalous:
			rules = append(rules, AnomalousSize(policy.AnomalyMinBytes, policy.AnomalyMaxBytes))
		}
	}

	return &Classifier{rules: rules, log: log}, nil
}

// WithRules builds a Classifier from explicit rules.
func WithRules(log *slog.Logger, rules ...Rule) *Classifier {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Classifier{rules: rules, log: log}
}

// Rules returns the rules the classifier runs.
func (c *Classifier) Rules() []Rule {
	return slices.Clone(c.rules)
}

// Classify runs every rule over files concurrently and returns their results in
// rule order. Only regular files are considered.
func (c *Classifier) Classify(ctx context.Context, files []dirstat.Entry) ([]Result, error) {
	results := make([]Result, len(c.rules))

	g, gctx := errgroup.WithContext(ctx)

	for i, rule := range c.rules {
		g.Go(func() error {
			result, err := rule.Apply(gctx, files)
			if err != nil {
				return fmt.Errorf("applying %s rule: %w", rule.Reason(), err)
			}

			c.log.Debug("rule applied", "rule", rule.Reason(), "matches", len(result.Entries), "skipped", len(result.Skipped))
			results[i] = result

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
