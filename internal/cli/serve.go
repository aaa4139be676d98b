/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dekk/internal/backend"
	"dekk/internal/config"
	"dekk/internal/domain"
	"dekk/internal/fonts"
	"dekk/internal/images"
	"dekk/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the deck API and the font and image proxies",
		Long: `Serve exposes /api/decks backed by the local library, or by Postgres when
backend.database_url (DEKK_DATABASE_URL) is set, next to the Google webfonts and
Unsplash search proxies. API keys come from the OS keyring or DEKK_* env vars.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if addr == "" {
				addr = c.cfg.General.ServerAddr
			}
			secrets, err := config.LoadSecrets()
			if err != nil {
				c.log.Warn("some secrets unavailable", slog.Any("err", err))
			}

			opts := server.Options{Secret: secrets.AuthSecret}
			if dsn := c.cfg.Backend.DatabaseURL; dsn != "" {
				repo, err := backend.Open(ctx, dsn)
				if err != nil {
					return err
				}
				defer repo.Close()
				opts.Decks, opts.Search, opts.Ready = repo, repo, repo.Ping
				c.log.Info("using postgres deck store")
			} else {
				lib, err := c.openLibrary(ctx)
				if err != nil {
					return err
				}
				defer lib.Close()
				opts.Decks, opts.Search = lib, lib
				c.log.Info("using local deck library", slog.String("root", lib.Root))
			}

			fontCache, doneFonts := c.responseCache(ctx, "fonts")
			defer doneFonts()
			imageCache, doneImages := c.responseCache(ctx, "images")
			defer doneImages()
			opts.Fonts = fonts.NewClient(c.cfg.Fonts.APIURL, secrets.GoogleAPIKey, fontCache)
			opts.Images = images.NewClient(c.cfg.Images.APIURL, secrets.UnsplashAccessKey, imageCache)

			return server.New(opts).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default general.server_addr)")
	return cmd
}

// remoteClient returns a deck API client using the stored backend token.
func (c *CLI) remoteClient() *backend.Client {
	token, err := config.Secret(config.SecretBackendToken)
	if err != nil {
		c.log.Warn("backend token unavailable", slog.Any("err", err))
	}
	return backend.NewClient(c.cfg.Backend.BaseURL, token, c.cfg.Backend.Timeout())
}

func (c *CLI) remoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Work with decks on a dekk server",
	}

	login := &cobra.Command{
		Use:   "login <subject>",
		Short: "Request a token from the server and keep it in the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := c.remoteClient()
			if err := cl.IssueToken(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := config.SetSecret(config.SecretBackendToken, cl.Token); err != nil {
				return err
			}
			c.printf("Logged in to %s as %s\n", c.cfg.Backend.BaseURL, args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List remote decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			decks, err := c.remoteClient().ListDecks(cmd.Context())
			if err != nil {
				return err
			}
			c.printSummaries(decks)
			return nil
		},
	}

	push := &cobra.Command{
		Use:   "push <deck>",
		Short: "Upload a local deck, creating or replacing the remote copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lib, err := c.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer lib.Close()
			d, err := lib.GetDeck(ctx, args[0])
			if err != nil {
				return err
			}
			if err := pushDeck(ctx, c.remoteClient(), d); err != nil {
				return err
			}
			c.printf("Pushed %s\n", d.ID)
			return nil
		},
	}

	pull := &cobra.Command{
		Use:   "pull <deck>",
		Short: "Download a remote deck into the library, replacing the local copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := c.remoteClient().GetDeck(ctx, args[0])
			if err != nil {
				return err
			}
			lib, err := c.openLibrary(ctx)
			if err != nil {
				return err
			}
			defer lib.Close()
			if err := pullDeck(ctx, lib, d); err != nil {
				return err
			}
			c.printf("Pulled %s into %s\n", d.ID, lib.DeckRoot(d.ID))
			return nil
		},
	}

	cmd.AddCommand(login, list, push, pull)
	return cmd
}

// pushDeck updates d on the remote store, creating it when missing.
func pushDeck(ctx context.Context, remote server.DeckStore, d domain.Deck) error {
	err := remote.UpdateDeck(ctx, d)
	if errors.Is(err, domain.ErrNotFound) {
		_, err = remote.CreateDeck(ctx, d)
	}
	return err
}

// pullDeck stores d in lib, replacing an existing deck of the same id.
func pullDeck(ctx context.Context, lib server.DeckStore, d domain.Deck) error {
	err := lib.UpdateDeck(ctx, d)
	if errors.Is(err, domain.ErrNotFound) {
		_, err = lib.CreateDeck(ctx, d)
	}
	return err
}
