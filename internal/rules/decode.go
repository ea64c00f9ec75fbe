package rules

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"storefront/internal/model"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// decode reads a rule document. The document is a JSON array of rules, one
// JSON rule per line, or a YAML sequence of rules when the name ends in .yaml
// or .yml. Any of them may be gzipped.
func decode(ctx context.Context, r io.Reader, path string) ([]model.DiscountRule, error) {
	name := path
	if strings.HasSuffix(path, ".gz") {
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", path, err)
		}
		defer gzipReader.Close()
		r = gzipReader
		name = strings.TrimSuffix(path, ".gz")
	}

	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return decodeYAML(ctx, r, path)
	}

	br := bufio.NewReaderSize(r, 64*1024)
	first, err := firstNonSpace(br)
	if errors.Is(err, io.EOF) {
		return []model.DiscountRule{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rule document %s: %w", path, err)
	}

	decoder := json.NewDecoder(br)
	if first == '[' {
		var rules []model.DiscountRule
		if err := decoder.DecodeContext(ctx, &rules); err != nil {
			return nil, fmt.Errorf("failed to decode rule document %s: %w", path, err)
		}
		if rules == nil {
			rules = []model.DiscountRule{}
		}
		return rules, nil
	}

	rules := []model.DiscountRule{}
	for decoder.More() {
		if len(rules)%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var rule model.DiscountRule
		if err := decoder.Decode(&rule); err != nil {
			return nil, fmt.Errorf("failed to decode rule %d of %s: %w", len(rules)+1, path, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// decodeYAML re-encodes the YAML sequence as JSON so rules keep one set of
// field names and decimal parsing.
func decodeYAML(ctx context.Context, r io.Reader, path string) ([]model.DiscountRule, error) {
	var doc []map[string]interface{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.DiscountRule{}, nil
		}
		return nil, fmt.Errorf("failed to decode rule document %s: %w", path, err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert rule document %s: %w", path, err)
	}

	rules := []model.DiscountRule{}
	if err := json.UnmarshalContext(ctx, data, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode rule document %s: %w", path, err)
	}
	return rules, nil
}

// firstNonSpace peeks at the first significant byte without consuming it.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}
