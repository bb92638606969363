package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/hrygo/staynest/ai"
	"github.com/hrygo/staynest/ai/backfill"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Embed every listing that has no embedding yet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		storeInstance, err := openStore(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer storeInstance.Close()

		aiConfig := ai.NewConfigFromProfile(instanceProfile)
		embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		batchSize, _ := flags.GetInt("batch-size")
		concurrency, _ := flags.GetInt("concurrency")
		rps, _ := flags.GetFloat64("rps")

		report, err := backfill.New(storeInstance, embeddingService, backfill.Config{
			BatchSize:         batchSize,
			Concurrency:       concurrency,
			RequestsPerSecond: rps,
		}).Run(ctx)
		if err != nil {
			return fmt.Errorf("backfill failed: %w", err)
		}

		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	backfillCmd.Flags().Int("batch-size", backfill.DefaultBatchSize, "listings fetched per batch")
	backfillCmd.Flags().Int("concurrency", backfill.DefaultConcurrency, "concurrent embedding requests")
	backfillCmd.Flags().Float64("rps", 0, "embedding requests per second (0 = unlimited)")
}

// signalContext returns a context cancelled on the first termination signal.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), terminationSignals...)
}
