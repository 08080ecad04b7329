package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached analysis",
	Long: `Removes every analysis stored by the configured cache backend.
The next analysis of any document runs in full.`,
	RunE: runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	store, err := newResultStore(ctx, settings.Cache)
	if err != nil {
		return fmt.Errorf("failed to open %s cache: %w", settings.Cache.Backend, err)
	}
	defer store.Close() //nolint:errcheck // Best-effort close on exit

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	cmd.Printf("Cleared %s cache.\n", settings.Cache.Backend.Description())
	return nil
}
