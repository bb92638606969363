package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hrygo/staynest/store"
)

// probeVectorValue fills the probe query. Any constant vector exercises the index.
const probeVectorValue = 0.1

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Run one vector search to check the index is reachable",
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

		vec := make([]float32, instanceProfile.EmbeddingDimensions)
		for i := range vec {
			vec[i] = probeVectorValue
		}

		matches, err := storeInstance.VectorSearch(ctx, &store.VectorSearchOptions{
			Vector:        vec,
			Limit:         1,
			NumCandidates: 10,
		})
		if err != nil {
			slog.Error("probe: vector search failed",
				"driver", instanceProfile.Driver,
				"index", instanceProfile.VectorIndex,
				"error", err,
			)
			return err
		}

		slog.Info("probe: vector search succeeded", "driver", instanceProfile.Driver, "matches", len(matches))
		for _, m := range matches {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.4f\n", m.ID, m.Score)
		}
		return nil
	},
}
