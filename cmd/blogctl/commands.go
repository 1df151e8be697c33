package main

import (
	"errors"
	"fmt"
	"go-blog-app/internal/auth"
	"go-blog-app/internal/cache"
	"go-blog-app/internal/data"
	"go-blog-app/internal/janitor"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/markdown"
	"go-blog-app/internal/media"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newMigrateManifestsCmd(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "migrate-manifests",
		Short: "Write manifest.json for media directories that lack one",
		Long: `Scan every article media directory and build a manifest from the files found,
detecting MIME types from the file contents. Directories that already have a
manifest are left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log, cmd.ErrOrStderr())

			store, err := data.NewMediaStore(cfg.Storage.FilesDir(), log)
			if err != nil {
				return err
			}
			report, err := media.MigrateManifests(store, log, force)
			if err != nil {
				return fmt.Errorf("migrating manifests: %w", err)
			}

			ids := make([]string, 0, len(report.Generated))
			for id := range report.Generated {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			out := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintf(out, "%s: %d file(s)\n", id, report.Generated[id])
			}
			fmt.Fprintf(out, "Generated %d manifest(s), skipped %d.\n", len(report.Generated), len(report.Skipped))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "rebuild existing manifests too")
	return cmd
}

func newSignURLCmd(opts *options) *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "sign-url <article-id> <filename>",
		Short: "Print a signed URL for a private media file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Admin.Password == "" {
				return errors.New("admin.password is not configured")
			}
			id, filename := args[0], args[1]
			if baseURL == "" {
				baseURL = cfg.Server.BaseURL
			}
			sig := auth.NewAdmin(cfg.Admin.Password).SignFile(id, filename)
			fmt.Fprintf(cmd.OutOrStdout(), "%s%s?password=%s\n", strings.TrimRight(baseURL, "/"), markdown.FilePath(id, filename), sig)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "override server.baseURL")
	return cmd
}

func newPruneCacheCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prune-cache",
		Short: "Remove expired transcode cache rows and stale scratch files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log, cmd.ErrOrStderr())

			c, err := cache.New(cfg.Cache)
			if err != nil {
				return fmt.Errorf("opening cache: %w", err)
			}
			defer c.Close()

			j, err := janitor.New(cfg.Janitor, c, cfg.Media.ScratchDir, log)
			if err != nil {
				return err
			}
			report, err := j.Run()
			if err != nil {
				return fmt.Errorf("pruning: %w", err)
			}
			if report.CacheRows == 0 && report.ScratchFiles == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to prune.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d cache row(s) and %d scratch file(s).\n", report.CacheRows, report.ScratchFiles)
			return nil
		},
	}
}
