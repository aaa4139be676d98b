/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli implements the dekk command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dekk/internal/config"
	"dekk/internal/crash"
	"dekk/internal/httputil"
	applog "dekk/internal/log"
	"dekk/internal/storage"
	"dekk/internal/version"
)

const appName = "dekk"

// CLI holds shared state for all commands.
type CLI struct {
	Out io.Writer
	Err io.Writer

	cfg      config.AppConfig
	cfgPath  string
	library  string
	logLevel string
	log      *slog.Logger
}

// New creates a CLI writing command output to out and logs to errOut.
func New(out, errOut io.Writer) *CLI {
	return &CLI{Out: out, Err: errOut, cfg: config.Defaults(), log: applog.WithComponent("cli")}
}

// Execute runs the root command with os.Args.
func Execute(ctx context.Context) error {
	return New(os.Stdout, os.Stderr).RootCommand().ExecuteContext(ctx)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               appName,
		Short:             "Dekk builds slide decks on an infinite canvas",
		Long:              `Dekk keeps decks as folders of deck.json plus assets, indexes them for search, exports slides to PDF, PNG and SVG, and serves the deck API and font/image proxies.`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	root.SetVersionTemplate(version.String() + "\n")
	root.SetOut(c.Out)
	root.SetErr(c.Err)

	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "config file (default is the per-user config.yaml)")
	root.PersistentFlags().StringVarP(&c.library, "library", "L", "", "deck library folder")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug|info|warn|error")

	root.AddCommand(c.newCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.rebuildIndexCommand())
	root.AddCommand(c.backupsCommand())
	root.AddCommand(c.sliceCommand())
	root.AddCommand(c.textCommand())
	root.AddCommand(c.pictureCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.packCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.remoteCommand())
	root.AddCommand(c.fontsCommand())
	root.AddCommand(c.imagesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.uiCommand())
	root.AddCommand(c.versionCommand())
	return root
}

// setup loads the config and initializes logging before any command runs.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	var (
		cfg config.AppConfig
		err error
	)
	if c.cfgPath != "" {
		cfg, err = config.LoadFrom(c.cfgPath)
	} else {
		cfg, err = config.Load()
	}
	c.cfg = cfg
	if c.logLevel != "" {
		c.cfg.Logging.Level = c.logLevel
	}
	applog.Init(applog.Options{
		Level:     c.cfg.Logging.Level,
		Format:    c.cfg.Logging.Format,
		AddSource: c.cfg.Logging.Source,
		File:      c.cfg.Logging.File,
		Output:    c.Err,
	})
	c.log = applog.WithComponent("cli")
	if err != nil {
		c.log.Warn("config not loaded", slog.Any("err", err))
	}
	c.log.Debug("start", slog.String("cmd", cmd.CommandPath()))
	return nil
}

func (c *CLI) libraryRoot() string {
	switch {
	case c.library != "":
		return c.library
	case c.cfg.General.Library != "":
		return c.cfg.General.Library
	}
	return config.DefaultLibrary()
}

func (c *CLI) openLibrary(ctx context.Context) (*storage.Library, error) {
	root, err := filepath.Abs(c.libraryRoot())
	if err != nil {
		return nil, err
	}
	return storage.OpenLibrary(ctx, root)
}

// withDeck opens deck id in the library and runs fn.
func (c *CLI) withDeck(ctx context.Context, id string, fn func(*storage.Library, *storage.DeckHandle) error) error {
	lib, err := c.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer lib.Close()
	h, err := lib.Open(id)
	if err != nil {
		return err
	}
	if h.Recovered {
		c.log.Warn("deck recovered from backup", slog.String("deck", id))
	}
	defer crash.Recover(h)
	return fn(lib, h)
}

func (c *CLI) cacheDir() string {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(os.TempDir(), appName+"-cache")
}

// responseCache returns the shared Redis cache when configured, else a file
// cache under the cache dir. The returned close func is never nil.
func (c *CLI) responseCache(ctx context.Context, namespace string) (httputil.Cache, func()) {
	ttl := c.cfg.Fonts.CacheTTL()
	if url := strings.TrimSpace(c.cfg.Cache.RedisURL); url != "" {
		rc, err := httputil.NewRedisCache(ctx, url, ttl)
		if err == nil {
			return rc, func() { _ = rc.Close() }
		}
		c.log.Warn("redis cache unavailable, using file cache", slog.Any("err", err))
	}
	fc, err := httputil.NewFileCache(c.cacheDir(), ttl)
	if err != nil {
		c.log.Warn("file cache unavailable", slog.Any("err", err))
		return httputil.NopCache{}, func() {}
	}
	return fc.Namespace(namespace + "-"), func() {}
}

func (c *CLI) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			c.printf("%s\n", version.String())
		},
	}
}
