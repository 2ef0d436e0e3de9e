package filter

import (
	"github.com/s0up4200/dexbrowse/catalog"
)

// Filter decides whether an item is kept
type Filter interface {
	// Evaluate checks if an item matches the filter criteria
	Evaluate(item catalog.ItemDetail) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// Apply returns the items f keeps, in order. A nil filter keeps everything.
func Apply(f Filter, items []catalog.ItemDetail) []catalog.ItemDetail {
	if f == nil {
		return items
	}
	out := make([]catalog.ItemDetail, 0, len(items))
	for _, item := range items {
		if f.Evaluate(item) {
			out = append(out, item)
		}
	}
	return out
}
