package cmd

import (
	"github.com/spf13/cobra"
)

// crawlCommand creates the crawl command, which runs one scraping pass
// and exits.
func crawlCommand() *cobra.Command {
	var withEmbeddings bool

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one scraping pass over the configured bank pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newCommandDeps()
			if err != nil {
				return err
			}

			svcs, err := buildServices(deps)
			if err != nil {
				return err
			}
			defer svcs.DB.Close()

			ctx := cmd.Context()

			promos, err := svcs.Crawl.Run(ctx)
			if err != nil {
				return err
			}
			deps.Logger.Info("Crawl finished", "new_offers", len(promos))

			if !withEmbeddings {
				return nil
			}

			result, err := svcs.Embed.Run(ctx, false, deps.Config.Embedding.BatchLimit)
			if err != nil {
				return err
			}
			deps.Logger.Info("Embedding sync finished",
				"embedded", result.Embedded, "recovered", result.Recovered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withEmbeddings, "embed", false,
		"run an embedding sync after the crawl")
	return cmd
}
