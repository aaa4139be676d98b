/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dekk/internal/config"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the font catalog and image search response cache",
	}
	cmd.AddCommand(c.cacheClearCommand(), c.cachePathCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := c.cacheDir()
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				c.printf("Cache is empty\n")
				return nil
			}
			count := 0
			err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil
				}
				if os.Remove(path) == nil {
					count++
				}
				return nil
			})
			if err != nil {
				return err
			}
			c.printf("Cleared %d cached entries in %s\n", count, dir)
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			c.printf("%s\n", c.cacheDir())
		},
	}
}

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the user configuration",
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.configFile()
			if err != nil {
				return err
			}
			c.printf("%s\n", p)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file, defaults and env overrides)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := yaml.Marshal(c.cfg)
			if err != nil {
				return err
			}
			_, err = c.Out.Write(b)
			for _, key := range overridableKeys {
				if env, ok := config.EnvOverrideFor(key); ok {
					c.printf("# %s set by %s\n", key, env)
				}
			}
			return err
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.configFile()
			if err != nil {
				return err
			}
			if _, err := os.Stat(p); err == nil && !force {
				return fmt.Errorf("%s exists (use --force to overwrite)", p)
			}
			if err := config.SaveTo(p, config.Defaults()); err != nil {
				return err
			}
			c.printf("Wrote %s\n", p)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	secret := &cobra.Command{
		Use:   "set-secret <name> [value]",
		Short: "Store an API key or token in the OS keyring (value read from stdin when omitted; empty deletes)",
		Long: fmt.Sprintf("Known names: %s, %s, %s, %s.",
			config.SecretGoogleAPIKey, config.SecretUnsplashAccessKey, config.SecretBackendToken, config.SecretAuthSecret),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case config.SecretGoogleAPIKey, config.SecretUnsplashAccessKey, config.SecretBackendToken, config.SecretAuthSecret:
			default:
				return fmt.Errorf("unknown secret %q", args[0])
			}
			var value string
			if len(args) == 2 {
				value = args[1]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				value = strings.TrimSpace(line)
			}
			if err := config.SetSecret(args[0], value); err != nil {
				return err
			}
			if value == "" {
				c.printf("Removed %s\n", args[0])
			} else {
				c.printf("Stored %s\n", args[0])
			}
			return nil
		},
	}

	cmd.AddCommand(path, show, initCmd, secret)
	return cmd
}

var overridableKeys = []string{
	"general.library", "general.enable_server", "general.server_addr",
	"backend.base_url", "backend.timeout_ms", "backend.database_url",
	"cache.redis_url", "cache.dir",
	"logging.level", "logging.format", "logging.source", "logging.file",
}

func (c *CLI) configFile() (string, error) {
	if c.cfgPath != "" {
		return c.cfgPath, nil
	}
	return config.ConfigPath()
}
