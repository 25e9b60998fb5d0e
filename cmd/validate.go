package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/price-truth/internal/monitoring"
	"github.com/sells-group/price-truth/internal/pipeline"
	"github.com/sells-group/price-truth/internal/source"
)

var (
	validateCountry    string
	validateUser       string
	validateCurrency   string
	validateMaxSources int
	validateNoPersist  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <product name>",
	Short: "Validate a product's market price for publication",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !validateNoPersist {
			if err := cfg.Validate("validate"); err != nil {
				return err
			}
		}
		if validateMaxSources <= 0 {
			validateMaxSources = cfg.Pipeline.MaxSources
		}

		metrics := &monitoring.Metrics{}
		f := initFetcher()

		opts := pipeline.Options{
			Registry: source.DefaultRegistry(f),
			Runtime: source.RuntimeConfig{
				MinDelay:         cfg.Sources.MinDelay(),
				AttemptTimeout:   cfg.Sources.AttemptTimeout(),
				MaxRetries:       cfg.Sources.MaxRetries,
				BreakerThreshold: cfg.Sources.BreakerThreshold,
				BreakerCooldown:  cfg.Sources.BreakerCooldown(),
			},
			Converter:         initConverter(f, metrics),
			Metrics:           metrics,
			CollectionTimeout: cfg.Pipeline.CollectionTimeout(),
		}

		if !validateNoPersist {
			h, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer h.close()
			opts.Store = h.store
			opts.Settings = h.settings
		}

		v := pipeline.NewValidator(opts)
		result := v.ValidatePriceForPublication(ctx, pipeline.Request{
			ProductName: args[0],
			CountryCode: validateCountry,
			UserID:      validateUser,
			Currency:    validateCurrency,
			MaxSources:  validateMaxSources,
		})

		snap := metrics.Collect()
		zap.L().Info("validation finished",
			zap.Bool("success", result.Success),
			zap.String("recommendation", string(result.Recommendation)),
			zap.Int64("source_failures", snap.SourceFailures),
			zap.Int64("conversion_errors", snap.ConversionErrors),
			zap.Int64("persistence_failures", snap.PersistenceFailures),
		)

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateCountry, "country", "", "ISO country code of the target market (required)")
	validateCmd.Flags().StringVar(&validateUser, "user", "", "user ID for market settings lookup")
	validateCmd.Flags().StringVar(&validateCurrency, "currency", "", "target currency override")
	validateCmd.Flags().IntVar(&validateMaxSources, "max-sources", 0, "cap on sources queried (0 uses config)")
	validateCmd.Flags().BoolVar(&validateNoPersist, "no-persist", false, "skip writing observations and aggregations")
	_ = validateCmd.MarkFlagRequired("country")
	rootCmd.AddCommand(validateCmd)
}
