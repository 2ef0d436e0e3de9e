package catalog

import (
	"fmt"
	"strings"
)

// FormatOptions controls how much of each item is printed
type FormatOptions struct {
	ShowDetails bool
	// Favorites marks ids with a star
	Favorites map[int]bool
}

// ConsoleFormatter provides console output formatting for catalog items
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatItemList formats a list of items for console display
func (f *ConsoleFormatter) FormatItemList(items []ItemDetail, options FormatOptions) string {
	if len(items) == 0 {
		return "No items found"
	}

	var sb strings.Builder

	sb.WriteString("\nItem")
	if len(items) != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " (%d):\n\n", len(items))

	for i, item := range items {
		isLast := i == len(items)-1
		f.formatItem(&sb, item, isLast, options)

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatDetail formats a single item with every field
func (f *ConsoleFormatter) FormatDetail(item ItemDetail) string {
	var sb strings.Builder
	sb.WriteString("\n")
	f.formatItem(&sb, item, true, FormatOptions{ShowDetails: true})
	sb.WriteString("\n")
	return sb.String()
}

// FormatNames formats plain names, one per line
func (f *ConsoleFormatter) FormatNames(names []string) string {
	if len(names) == 0 {
		return "No suggestions"
	}
	var sb strings.Builder
	for i, name := range names {
		prefix := "├"
		if i == len(names)-1 {
			prefix = "╰"
		}
		fmt.Fprintf(&sb, "%s── %s\n", prefix, name)
	}
	return sb.String()
}

func (f *ConsoleFormatter) formatItem(sb *strings.Builder, item ItemDetail, isLast bool, options FormatOptions) {
	prefix := "├"
	if isLast {
		prefix = "╰"
	}

	star := ""
	if options.Favorites[item.ID] {
		star = " ★"
	}
	fmt.Fprintf(sb, "%s── #%04d %s%s\n", prefix, item.ID, item.Name, star)

	indent := "│   "
	if isLast {
		indent = "    "
	}

	if len(item.Categories) > 0 {
		fmt.Fprintf(sb, "%sTypes: %s\n", indent, strings.Join(item.Categories, ", "))
	}

	if !options.ShowDetails {
		return
	}

	// Upstream units are hectograms and decimetres
	fmt.Fprintf(sb, "%sWeight: %.1f kg | Height: %.1f m\n", indent, float64(item.Mass)/10, float64(item.Size)/10)

	if len(item.Traits) > 0 {
		fmt.Fprintf(sb, "%sAbilities: %s\n", indent, strings.Join(item.Traits, ", "))
	}

	if len(item.Stats) > 0 {
		parts := make([]string, 0, len(item.Stats))
		for _, s := range item.Stats {
			parts = append(parts, fmt.Sprintf("%s %d", s.Label, s.Value))
		}
		fmt.Fprintf(sb, "%sStats: %s (total %d)\n", indent, strings.Join(parts, " | "), item.StatTotal())
	}

	if item.ImageURL != "" {
		fmt.Fprintf(sb, "%sImage: %s\n", indent, item.ImageURL)
	}
}
