package main

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/deusflow/basenews/internal/api"
	"github.com/deusflow/basenews/internal/app"
)

var (
	fetchCategory string
	fetchLimit    int
	fetchSkipAI   bool
	fetchSort     string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run the pipeline once and print the JSON envelope",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context(), appCfg, "basenews-fetch")
		if err != nil {
			return err
		}
		defer rt.cleanup()

		q := api.ParseQuery(url.Values{
			"category": {fetchCategory},
			"limit":    {strconv.Itoa(fetchLimit)},
			"skip_ai":  {strconv.FormatBool(fetchSkipAI)},
			"sort":     {fetchSort},
		}, appCfg.DefaultLimit, appCfg.MaxLimit)

		res, err := rt.aggregator.Run(cmd.Context(), q)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if errors.Is(err, app.ErrNoNews) {
			_ = enc.Encode(map[string]any{"success": false, "error": "No news found", "debug": res.Debug})
			return err
		}
		if err != nil {
			return err
		}
		return enc.Encode(api.BuildNewsResponse(res, q, time.Now()))
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchCategory, "category", "all", "all, base, crypto, ai or world")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "max items (default from config)")
	fetchCmd.Flags().BoolVar(&fetchSkipAI, "skip-ai", false, "skip LLM enrichment")
	fetchCmd.Flags().StringVar(&fetchSort, "sort", "relevance", "relevance or source")
}
