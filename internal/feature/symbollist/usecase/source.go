package usecase

import (
	"context"
	"log/slog"
	"strings"
)

// SymbolSource supplies raw ticker symbols for a preload batch.
type SymbolSource interface {
	Symbols(ctx context.Context) ([]string, error)
}

// StaticSource is a fixed list of symbols, e.g. from the config file.
type StaticSource []string

// Symbols returns the list as is.
func (s StaticSource) Symbols(context.Context) ([]string, error) {
	return []string(s), nil
}

// MultiSource concatenates several sources, dropping case-insensitive duplicates
// while keeping first-seen order. A failing source is logged and skipped.
type MultiSource []SymbolSource

// Symbols returns the merged list.
func (m MultiSource) Symbols(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, src := range m {
		if src == nil {
			continue
		}
		symbols, err := src.Symbols(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("symbol source failed", "error", err)
			continue
		}
		for _, s := range symbols {
			key := strings.ToUpper(strings.TrimSpace(s))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, s)
		}
	}
	return out, nil
}
