/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"dekk/internal/config"
	"dekk/internal/fonts"
	"dekk/internal/images"
)

func (c *CLI) fontsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "Inspect the font catalog",
	}

	client := func(cmd *cobra.Command) (*fonts.Client, func()) {
		key, err := config.Secret(config.SecretGoogleAPIKey)
		if err != nil {
			c.log.Warn("font api key unavailable", slog.Any("err", err))
		}
		cache, done := c.responseCache(cmd.Context(), "fonts")
		return fonts.NewClient(c.cfg.Fonts.APIURL, key, cache), done
	}

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List the configured families and their variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, done := client(cmd)
			defer done()
			if all {
				res, err := cl.List(cmd.Context(), "popularity")
				if err != nil {
					return err
				}
				for _, f := range res.Items {
					c.printf("%-32s %s\n", f.Family, strings.Join(f.Variants, " "))
				}
				return nil
			}
			cat := fonts.NewCatalog()
			if _, err := cl.Load(cmd.Context(), cat, c.cfg.Fonts.Families); err != nil {
				return err
			}
			for _, fam := range cat.Families() {
				vs, _ := cat.Variants(fam)
				c.printf("%-32s %s\n", fam, strings.Join(vs, " "))
			}
			return nil
		},
	}
	list.Flags().BoolVar(&all, "all", false, "list the whole catalog by popularity")

	css := &cobra.Command{
		Use:   "css [family...]",
		Short: "Print the stylesheet URLs for families (default: the configured ones)",
		RunE: func(cmd *cobra.Command, args []string) error {
			families := args
			if len(families) == 0 {
				families = c.cfg.Fonts.Families
			}
			cl, done := client(cmd)
			defer done()
			cat := fonts.NewCatalog()
			if _, err := cl.Load(cmd.Context(), cat, families); err != nil {
				return err
			}
			for _, u := range cat.Stylesheets() {
				c.printf("%s\n", u)
			}
			return nil
		},
	}

	cmd.AddCommand(list, css)
	return cmd
}

func (c *CLI) imagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Search pictures to add to slices",
	}

	var q images.Query
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search Unsplash photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := config.Secret(config.SecretUnsplashAccessKey)
			if err != nil {
				c.log.Warn("unsplash key unavailable", slog.Any("err", err))
			}
			cache, done := c.responseCache(cmd.Context(), "images")
			defer done()
			q.Text = strings.Join(args, " ")
			if q.PerPage == 0 {
				q.PerPage = c.cfg.Images.PerPage
			}
			res, err := images.NewClient(c.cfg.Images.APIURL, key, cache).Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			c.printf("%d results, %d pages\n", res.Total, res.TotalPages)
			for _, p := range res.Results {
				c.printf("%-12s %5.2f  %s\n", p.ID, p.Aspect(), p.URLs.Regular)
			}
			return nil
		},
	}
	search.Flags().IntVar(&q.Page, "page", 0, "result page (default 1)")
	search.Flags().IntVar(&q.PerPage, "per-page", 0, "results per page (default images.per_page)")

	cmd.AddCommand(search)
	return cmd
}
