package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zerobounce/zerobounce-cli/pkg/zerobounce/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Aliases: []string{"ch"},
		Short:   "Manage the local response cache",
		Long: `Manage the file cache used by --cache file. Memory and Redis caches are
not touched; set ` + cache.DisableEnv + ` to bypass the file cache entirely.`,
	}

	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())
	return cmd
}

type cacheClearOutput struct {
	Dir     string `json:"dir"`
	Removed int    `json:"removed"`
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached responses",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir, err := resolveCacheDir()
			if err != nil {
				return err
			}
			removed, err := cache.ClearAll(dir)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, cacheClearOutput{Dir: dir, Removed: removed})
			}
			printIfNotQuiet(cmd, "Cache cleared: %s (%d entries)\n", dir, removed)
			return nil
		}),
	}
}

type cacheEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type cachePathOutput struct {
	Dir     string       `json:"dir"`
	Entries []cacheEntry `json:"entries"`
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the cache directory and its entries",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir, err := resolveCacheDir()
			if err != nil {
				return err
			}
			out := cachePathOutput{Dir: dir, Entries: []cacheEntry{}}

			// the directory might not exist yet
			if entries, err := os.ReadDir(dir); err == nil {
				for _, e := range entries {
					if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
						continue
					}
					info, err := e.Info()
					if err != nil {
						continue
					}
					out.Entries = append(out.Entries, cacheEntry{Name: e.Name(), Size: info.Size()})
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, out)
			}
			printIfNotQuiet(cmd, "%s\n", dir)
			for _, e := range out.Entries {
				printIfNotQuiet(cmd, "  %s (%d bytes)\n", e.Name, e.Size)
			}
			return nil
		}),
	}
}
