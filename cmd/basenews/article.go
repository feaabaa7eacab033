package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/deusflow/basenews/internal/logger"
	"github.com/deusflow/basenews/internal/scraper"
)

var articleCmd = &cobra.Command{
	Use:   "article <url>",
	Short: "Extract the readable text of an article",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.New("basenews-article", appCfg.LogLevel, appCfg.Debug)
		s := scraper.New(appCfg.ArticleTimeout, appCfg.ArticleMaxChars, appCfg.ArticleMinChars, log)

		article, err := s.ExtractFullArticle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(article)
	},
}
