package rules

import (
	"context"
	"fmt"

	"storefront/internal/model"
)

// RuleLister is the part of the rule repository a Source needs.
type RuleLister interface {
	List(ctx context.Context, filter model.RuleFilter) ([]model.DiscountRule, error)
}

type repositorySource struct {
	repo RuleLister
}

// NewRepositorySource creates a Source backed by the rule repository.
// Only rules flagged active are read.
func NewRepositorySource(repo RuleLister) Source {
	return &repositorySource{repo: repo}
}

func (s *repositorySource) Rules(ctx context.Context) ([]model.DiscountRule, error) {
	rules, err := s.repo.List(ctx, model.RuleFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list discount rules: %w", err)
	}
	return rules, nil
}
