// Command anidock drives the extraction engine from the terminal: generate a
// driver from a seed URL, crawl catalogs, list episodes and locate videos.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/config"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/discovery"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/fetch"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/inference"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/store"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/util"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/version"
	"github.com/BuuhV-Projects/anidock-hub-sub000/pkg/anidock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	flagDebug   bool
	flagConfig  string
	flagBrowser bool
	flagRefresh bool
)

func main() {
	root := &cobra.Command{
		Use:     "anidock",
		Short:   "Driver-based catalog extraction engine",
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.SetDebugMode(flagDebug)
			util.InitLogger()
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&flagBrowser, "browser", false, "fetch through the automated browser session")

	root.AddCommand(generateCmd(), crawlCmd(), episodesCmd(), videoCmd(), driversCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	client  *anidock.Client
	store   *store.SQLite
	browser *fetch.Browser
}

func (a *app) close() {
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			util.Warn("failed to close browser session", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		util.Warn("failed to close store", "error", err)
	}
}

func newApp(needsInference bool) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, err
	}

	a := &app{store: st}

	var fetcher fetch.Fetcher
	if flagBrowser || cfg.Fetch.Strategy == "browser" {
		a.browser = fetch.NewBrowser()
		fetcher = a.browser
	} else {
		fetcher = fetch.NewProxyChain(cfg.Fetch.Relays)
	}

	var llm inference.Client
	if needsInference {
		llm, err = inference.NewClient(inference.Config{
			Provider: inference.Provider(cfg.Inference.Provider),
			APIKey:   cfg.Inference.APIKey,
			Model:    cfg.Inference.Model,
			BaseURL:  cfg.Inference.BaseURL,
		})
		if err != nil {
			a.close()
			return nil, errors.Wrap(err, "inference backend unavailable")
		}
	}

	a.client = anidock.NewClient(fetcher, st, llm)
	return a, nil
}

func progressPrinter(current, total int, status string) {
	util.Infof("[%d/%d] %s", current, total, status)
}

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <catalog-url>",
		Short: "Infer a new driver from a catalog page and index it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.client.GenerateDriver(context.Background(), args[0], progressPrinter)
			if err != nil {
				return err
			}

			for _, warning := range report.Warnings {
				util.Warn(warning)
			}
			switch report.Outcome {
			case discovery.OutcomeIndexedEmpty:
				util.Warnf("driver %s generated, but the index is empty", report.Driver.Name)
			default:
				util.Infof("driver %s generated, %d items indexed", report.Driver.Name, report.Indexed)
			}
			fmt.Println(report.Driver.ID)
			return nil
		},
	}
}

func crawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <driver-id> [page-url]",
		Short: "Extract a catalog page with a stored driver",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			pageURL := ""
			if len(args) > 1 {
				pageURL = args[1]
			}

			result, err := a.client.Crawl(context.Background(), args[0], pageURL, progressPrinter)
			if err != nil {
				return err
			}
			for _, e := range result.Errors {
				util.Warn(e)
			}
			for _, item := range result.Items {
				fmt.Printf("%s\t%s\t%s\n", item.ID, item.Title, item.SourceURL)
			}
			util.Infof("%d items, %d errors", len(result.Items), len(result.Errors))
			return nil
		},
	}
}

func episodesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episodes <driver-id> <anime-id>",
		Short: "List an anime's episodes, crawling on demand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			animes, err := a.client.Animes(ctx, args[0])
			if err != nil {
				return err
			}
			for _, anime := range animes {
				if anime.ID != args[1] {
					continue
				}
				episodes, warnings, err := a.client.Episodes(ctx, args[0], anime, flagRefresh, progressPrinter)
				if err != nil {
					return err
				}
				for _, w := range warnings {
					util.Warn(w)
				}
				for _, ep := range episodes {
					fmt.Printf("%d\t%s\t%s\n", ep.Number, ep.Title, ep.SourceURL)
				}
				return nil
			}
			return errors.Errorf("anime %s not found under driver %s", args[1], args[0])
		},
	}
	cmd.Flags().BoolVar(&flagRefresh, "refresh", false, "re-crawl even when episodes are cached")
	return cmd
}

func videoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "video <driver-id> <episode-url>",
		Short: "Locate the playable source on an episode page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			video, err := a.client.Video(context.Background(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s\n", video.Type, video.URL)
			return nil
		},
	}
}

func driversCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "List stored drivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()

			drivers, err := a.client.Drivers(context.Background())
			if err != nil {
				return err
			}
			for _, d := range drivers {
				fmt.Printf("%s\t%s\t%s\n", d.ID, d.Name, d.BaseURL)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <driver-id>",
		Short: "Delete a driver and everything it indexed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.close()
			return a.client.DeleteDriver(context.Background(), args[0])
		},
	})
	return cmd
}
