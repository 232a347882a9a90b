package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// embeddingsCommand creates the embeddings command group for vector
// index maintenance.
func embeddingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embeddings",
		Short: "Manage promotion embeddings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(embeddingsGenerateCommand())
	cmd.AddCommand(embeddingsCheckCommand())
	return cmd
}

func embeddingsGenerateCommand() *cobra.Command {
	var (
		force bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate embeddings for promotions that lack them",
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

			if limit <= 0 {
				limit = deps.Config.Embedding.BatchLimit
			}

			result, err := svcs.Embed.Run(cmd.Context(), force, limit)
			if err != nil {
				return err
			}

			deps.Logger.Info("Embedding generation finished",
				"pending", result.Pending,
				"embedded", result.Embedded,
				"recovered", result.Recovered,
				"skipped", result.Skipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"re-embed every promotion, not just pending ones")
	cmd.Flags().IntVar(&limit, "limit", 0,
		"maximum promotions to process (default: configured batch limit)")
	return cmd
}

func embeddingsCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compare store and vector index counts",
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

			report, err := svcs.Embed.Check(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("promotions: %d\n", report.StoreTotal)
			fmt.Printf("embedded:   %d\n", report.StoreEmbedded)
			fmt.Printf("points:     %d\n", report.IndexPoints)
			if report.Consistent {
				fmt.Println("store and index are consistent")
			} else {
				fmt.Println("store and index are OUT OF SYNC; run 'embeddings generate'")
			}
			return nil
		},
	}
}
