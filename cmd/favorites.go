package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/dexbrowse/catalog"
)

// favoritesCmd represents the favorites command
var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage starred items",
	Long: `Manage the local list of starred items.

Favorites are stored next to the response cache and survive cache clears.`,
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List starred items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := favs.List()
		if err != nil {
			return err
		}
		fmt.Print(formatter.FormatItemList(items, catalog.FormatOptions{ShowDetails: showDetails}))
		return nil
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <id|name>...",
	Short: "Star one or more items",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			item, err := catalogAPI.GetDetail(cmd.Context(), arg)
			if err != nil {
				return displayError(err)
			}
			if err := favs.Add(item); err != nil {
				return err
			}
			fmt.Printf("★ %s (#%d) added to favorites\n", item.Name, item.ID)
		}
		return nil
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:     "remove <id|name>...",
	Aliases: []string{"rm"},
	Short:   "Unstar one or more items",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			item, err := catalogAPI.GetDetail(cmd.Context(), arg)
			if err != nil {
				return displayError(err)
			}
			if err := favs.Remove(item.ID); err != nil {
				return err
			}
			fmt.Printf("%s (#%d) removed from favorites\n", item.Name, item.ID)
		}
		return nil
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <id|name>",
	Short: "Star an item, or unstar it when already starred",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := catalogAPI.GetDetail(cmd.Context(), args[0])
		if err != nil {
			return displayError(err)
		}
		added, err := favs.Toggle(item)
		if err != nil {
			return err
		}
		if added {
			fmt.Printf("★ %s (#%d) added to favorites\n", item.Name, item.ID)
		} else {
			fmt.Printf("%s (#%d) removed from favorites\n", item.Name, item.ID)
		}
		return nil
	},
}

var favoritesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every favorite",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := favs.Clear(); err != nil {
			return err
		}
		fmt.Println("✓ Favorites cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(favoritesCmd)
	favoritesCmd.AddCommand(favoritesListCmd, favoritesAddCmd, favoritesRemoveCmd, favoritesToggleCmd, favoritesClearCmd)

	favoritesListCmd.Flags().BoolVar(&showDetails, "details", false, "show abilities and stats for every item")
}
