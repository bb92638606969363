package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrygo/staynest/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import cleaned listings from a CSV file, without embeddings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")
		limit, _ := cmd.Flags().GetInt("limit")

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		listings, err := readListings(f, limit)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

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

		for i, listing := range listings {
			if _, err := storeInstance.CreateListing(ctx, listing); err != nil {
				return fmt.Errorf("failed to create listing %d: %w", i+1, err)
			}
		}
		slog.Info("import: finished", "file", path, "listings", len(listings))
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d listings, run `staynest backfill` to embed them\n", len(listings))
		return nil
	},
}

func init() {
	importCmd.Flags().String("file", "cleaned_listings.csv", "CSV file with one listing per row")
	importCmd.Flags().Int("limit", 0, "import at most this many rows (0 = all)")
}

var requiredColumns = []string{"name", "description", "property_type", "neighbourhood_cleansed", "price", "accommodates", "amenities"}

// readListings parses the listing CSV. Missing values get the same defaults the
// data cleaning step applies before embedding.
func readListings(r io.Reader, limit int) ([]*store.Listing, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var listings []*store.Listing
	for limit <= 0 || len(listings) < limit {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		image := map[string]any{}
		if url := field("picture_url"); url != "" {
			image["url"] = url
		}
		listings = append(listings, &store.Listing{
			Text: listingText(
				withDefault(field("name"), "Untitled Listing"),
				field("property_type"),
				field("neighbourhood_cleansed"),
				formatPrice(field("price")),
				withDefault(field("accommodates"), "2"),
				withDefault(field("amenities"), "[]"),
				withDefault(field("description"), "No description provided."),
			),
			Image: image,
		})
	}
	return listings, nil
}

// listingText builds the text the embedding and chat context are computed from.
// The first line is the title shown in recommendations.
func listingText(name, propertyType, location, price, guests, amenities, description string) string {
	return "Title: " + name + "\n" +
		"Type: " + propertyType + "\n" +
		"Location: " + location + "\n" +
		"Price: $" + price + "\n" +
		"Guests: " + guests + "\n" +
		"Amenities: " + amenities + "\n" +
		"Description: " + description
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// formatPrice normalizes "$1,200.00" to "1200.0". Unparseable prices render as "N/A".
func formatPrice(raw string) string {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(raw)
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return "N/A"
	}
	if price == float64(int64(price)) {
		return strconv.FormatFloat(price, 'f', 1, 64)
	}
	return strconv.FormatFloat(price, 'f', -1, 64)
}
