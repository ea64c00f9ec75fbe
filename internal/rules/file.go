package rules

import (
	"context"
	"fmt"
	"os"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// fileLoader implements Loader for rule documents on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based rule loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "rule-file-loader").Logger(),
	}
}

// Load reads a rule document from disk.
func (l *fileLoader) Load(ctx context.Context, path string) ([]model.DiscountRule, error) {
	l.logger.Debug().Str("file", path).Msg("loading rule file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open rule file")
		return nil, fmt.Errorf("failed to open rule file %s: %w", path, err)
	}
	defer file.Close()

	rules, err := decode(ctx, file, path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read rule file")
		return nil, err
	}

	l.logger.Info().
		Str("file", path).
		Int("rules_loaded", len(rules)).
		Msg("rule file loaded")

	return rules, nil
}

// fileSource serves the rules found in a fixed list of documents.
type fileSource struct {
	loader Loader
	paths  []string
	logger zerolog.Logger
}

// NewFileSource creates a Source that reads every path through loader and
// concatenates the results in path order, keeping one record per rule id.
// Any failing document fails the whole read.
func NewFileSource(loader Loader, paths []string, logger zerolog.Logger) Source {
	return &fileSource{
		loader: loader,
		paths:  paths,
		logger: logger.With().Str("component", "rule-file-source").Logger(),
	}
}

func (s *fileSource) Rules(ctx context.Context) ([]model.DiscountRule, error) {
	if len(s.paths) == 0 {
		return nil, fmt.Errorf("no rule files configured")
	}

	// Load all documents concurrently
	results := make([][]model.DiscountRule, len(s.paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range s.paths {
		g.Go(func() error {
			rules, err := s.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load rule file %s: %w", path, err)
			}
			results[i] = rules
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A rule id repeated in a later document replaces the earlier record.
	all := []model.DiscountRule{}
	index := make(map[string]int)
	for i, rules := range results {
		for _, rule := range rules {
			if at, ok := index[rule.ID]; ok {
				s.logger.Warn().
					Str("rule_id", rule.ID).
					Str("file", s.paths[i]).
					Msg("duplicate rule id, later definition wins")
				all[at] = rule
				continue
			}
			index[rule.ID] = len(all)
			all = append(all, rule)
		}
	}

	s.logger.Debug().
		Int("files", len(s.paths)).
		Int("rules", len(all)).
		Msg("rule files loaded")

	return all, nil
}
