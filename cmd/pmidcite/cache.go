package main

import (
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the lookup cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the cache backend, location and entry count",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached lookup",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// CacheInfoResponse is the JSON output for cache info.
type CacheInfoResponse struct {
	Backend  string `json:"backend"`
	Location string `json:"location"`
	Entries  int    `json:"entries"`
	TTL      string `json:"ttl,omitempty"`
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		exitWithErr(err, "loading configuration")
	}

	store, err := openStore(ctx, cfg, newLogger())
	if err != nil {
		exitWithError(ExitConfigError, "opening %s cache: %v", cfg.Cache.Backend, err)
	}
	defer store.Close()

	n, err := store.Len(ctx)
	if err != nil {
		exitWithError(ExitError, "counting cache entries: %v", err)
	}

	resp := CacheInfoResponse{Backend: cfg.Cache.Backend, Location: store.Location(), Entries: n}
	if cfg.Cache.TTL > 0 {
		resp.TTL = cfg.Cache.TTL.String()
	}

	if humanOutput {
		outputHuman("backend:  %s\n", resp.Backend)
		outputHuman("location: %s\n", resp.Location)
		outputHuman("entries:  %d\n", resp.Entries)
		if resp.TTL != "" {
			outputHuman("ttl:      %s\n", resp.TTL)
		}
		return nil
	}
	return outputJSON(resp)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		exitWithErr(err, "loading configuration")
	}

	store, err := openStore(ctx, cfg, newLogger())
	if err != nil {
		exitWithError(ExitConfigError, "opening %s cache: %v", cfg.Cache.Backend, err)
	}
	defer store.Close()

	if err := store.Clear(ctx); err != nil {
		exitWithError(ExitError, "clearing cache: %v", err)
	}

	if humanOutput {
		outputHuman("Cleared cache at %s\n", store.Location())
		return nil
	}
	return outputJSON(StatusResponse{Status: "cleared", Path: store.Location()})
}
