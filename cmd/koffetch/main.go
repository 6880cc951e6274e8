// Command koffetch is a thin CLI around the koffetch library core,
// exercising open().chunks().sheet().allow().follow().forEach() from the
// command line. Grounded on the teacher's airbench.go (a runnable surface
// around the air library) and on opal-lang-opal's cobra-based command
// wiring.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	yaml "github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/trieloff/koffetch"
	"github.com/trieloff/koffetch/watch"
)

type fileConfig struct {
	ChunkSize      int      `yaml:"chunk_size" toml:"chunk_size"`
	Sheet          string   `yaml:"sheet" toml:"sheet"`
	AllowedHosts   []string `yaml:"allowed_hosts" toml:"allowed_hosts"`
	MaxConcurrency int      `yaml:"max_concurrency" toml:"max_concurrency"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if strings.HasSuffix(path, ".toml") {
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func main() {
	var (
		chunkSize   int
		sheet       string
		allow       []string
		follow      string
		concurrency int
		configPath  string
		watchAddr   string
	)

	root := &cobra.Command{
		Use:   "koffetch",
		Short: "Fetch and stream a paginated JSON index",
	}

	fetchCmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Stream every entry of a paginated index as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := loadFileConfig(configPath)
			if err != nil {
				return err
			}

			p, err := koffetch.Open(args[0])
			if err != nil {
				return err
			}

			if fc.ChunkSize > 0 {
				p = p.Chunks(fc.ChunkSize)
			}
			if chunkSize > 0 {
				p = p.Chunks(chunkSize)
			}
			if fc.Sheet != "" {
				p = p.Sheet(fc.Sheet)
			}
			if sheet != "" {
				p = p.Sheet(sheet)
			}
			if len(fc.AllowedHosts) > 0 {
				p = p.Allow(fc.AllowedHosts...)
			}
			if len(allow) > 0 {
				p = p.Allow(allow...)
			}
			if fc.MaxConcurrency > 0 {
				p = p.Concurrency(fc.MaxConcurrency)
			}
			if concurrency > 0 {
				p = p.Concurrency(concurrency)
			}
			if follow != "" {
				p = p.Follow(follow)
			}

			var hub *watch.Hub
			if watchAddr != "" {
				hub = watch.NewHub()
				go hub.ListenAndServe(watchAddr)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			return p.ForEach(context.Background(), func(v any) error {
				if hub != nil {
					hub.Publish(v)
				}
				return enc.Encode(v)
			})
		},
	}

	fetchCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "page size to request")
	fetchCmd.Flags().StringVar(&sheet, "sheet", "", "sheet name to select")
	fetchCmd.Flags().StringSliceVar(&allow, "allow", nil, "additional allowed hosts for follow()")
	fetchCmd.Flags().StringVar(&follow, "follow", "", "field to follow and attach as a parsed document")
	fetchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "max concurrent follow() fetches")
	fetchCmd.Flags().StringVar(&configPath, "config", "", "YAML or TOML config file")
	fetchCmd.Flags().StringVar(&watchAddr, "watch", "", "serve a live WebSocket tail of fetched entries at this address, e.g. :8089")

	root.AddCommand(fetchCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
