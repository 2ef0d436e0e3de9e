package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/dexbrowse/catalog"
	"github.com/s0up4200/dexbrowse/coordinator"
	"github.com/s0up4200/dexbrowse/filter"
	"github.com/s0up4200/dexbrowse/httpclient"
)

var (
	pages        int
	whereExpr    string
	showDetails  bool
	showVariants bool
)

// browseCmd represents the browse command
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List the catalog page by page",
	Long: `List the catalog in id order, one batch per page.

Use --where to keep only items matching an expression, for example:
  dexbrowse browse --pages 3 --where 'hasType("fire") && Total >= 500'`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search by name, partial name or alias",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

// categoryCmd represents the category command
var categoryCmd = &cobra.Command{
	Use:     "category <type>",
	Aliases: []string{"type"},
	Short:   "List every item of one type",
	Args:    cobra.ExactArgs(1),
	RunE:    runCategory,
}

// suggestCmd represents the suggest command
var suggestCmd = &cobra.Command{
	Use:   "suggest <text>",
	Short: "Suggest names for partially typed text",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show one item in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(browseCmd, searchCmd, categoryCmd, suggestCmd, showCmd)

	for _, c := range []*cobra.Command{browseCmd, searchCmd, categoryCmd} {
		c.Flags().IntVarP(&pages, "pages", "n", 1, "number of batches to load")
		c.Flags().StringVarP(&whereExpr, "where", "w", "", "filter expression applied to loaded items")
		c.Flags().BoolVar(&showDetails, "details", false, "show abilities and stats for every item")
	}
	showCmd.Flags().BoolVar(&showVariants, "variants", false, "also list the alternate forms of the item")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := coord.Reset(ctx); err != nil {
		return displayError(err)
	}
	if err := loadPages(ctx, pages-1); err != nil {
		return err
	}
	return printList()
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger.Debug().Str("query", args[0]).Msg("Searching")

	if err := coord.SearchNow(ctx, args[0]); err != nil {
		return displayError(err)
	}
	if err := loadPages(ctx, pages-1); err != nil {
		return err
	}
	return printList()
}

func runCategory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := coord.FilterByCategory(ctx, args[0]); err != nil {
		return displayError(err)
	}
	if err := loadPages(ctx, pages-1); err != nil {
		return err
	}
	return printList()
}

func runSuggest(cmd *cobra.Command, args []string) error {
	names := coord.FetchSuggestions(cmd.Context(), args[0])
	fmt.Print(formatter.FormatNames(names))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	item, err := catalogAPI.GetDetail(ctx, args[0])
	if err != nil {
		return displayError(err)
	}
	fmt.Print(formatter.FormatDetail(item))

	if favorite, err := favs.Contains(item.ID); err == nil && favorite {
		fmt.Println("★ Favorite")
	}

	if !showVariants {
		return nil
	}

	refs, err := catalogAPI.GetVariants(ctx, item.Name)
	if err != nil {
		logger.Warn().Err(err).Str("name", item.Name).Msg("Failed to load variants")
		return nil
	}
	batch := catalogAPI.GetManyDetails(ctx, refs)
	fmt.Println()
	fmt.Print(formatter.FormatItemList(batch.Items, catalog.FormatOptions{}))
	return nil
}

// loadPages loads up to n more batches, stopping early once the list is exhausted
func loadPages(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if coord.State().Exhausted {
			return nil
		}
		if err := coord.LoadMore(ctx); err != nil {
			return displayError(err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// printList renders the coordinator's items through the optional --where filter
func printList() error {
	state := coord.State()
	items := state.Items

	if whereExpr != "" {
		compiled, err := filter.NewExprCompiler(filter.WithLogger(logger)).Compile(whereExpr)
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
		items = filter.Apply(compiled, items)
		logger.Debug().
			Str("where", whereExpr).
			Int("loaded", len(state.Items)).
			Int("kept", len(items)).
			Msg("Applied filter")
	}

	ids, err := favs.IDs()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read favorites")
	}

	fmt.Print(formatter.FormatItemList(items, catalog.FormatOptions{
		ShowDetails: showDetails,
		Favorites:   ids,
	}))

	switch {
	case state.IsOffline && state.Exhausted:
		fmt.Println("\nOffline: showing cached items only.")
	case !state.Exhausted:
		fmt.Println("\nMore available, use --pages to load further.")
	}
	return nil
}

// displayError turns a data access failure into its user-facing form
func displayError(err error) error {
	var httpErr *httpclient.Error
	if !errors.As(err, &httpErr) {
		return err
	}
	if described, ok := coordinator.Describe(httpErr.Kind); ok {
		logger.Debug().Err(err).Msg("Request failed")
		return described
	}
	return err
}
