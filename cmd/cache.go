package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached response",
	Long:  `Drop every cached response. Favorites are kept.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		logger.Info().Str("backend", cfg.Cache.Backend).Msg("Cache cleared")
		fmt.Println("✓ Cache cleared")
		return nil
	},
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show where and for how long responses are cached",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Backend: %s\n", cfg.Cache.Backend)
		if cfg.Cache.Backend == "badger" {
			fmt.Printf("Path:    %s\n", cfg.Cache.Path)
		}
		fmt.Printf("TTL:     %s\n", store.TTL())
		fmt.Printf("Offline: %t\n", oracle.IsOffline())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd, cacheInfoCmd)
}
