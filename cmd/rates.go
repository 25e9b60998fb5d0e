package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/price-truth/internal/currency"
)

var (
	ratesFrom string
	ratesTo   string
)

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Look up an exchange rate from the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("rates"); err != nil {
			return err
		}

		from := strings.ToUpper(ratesFrom)
		to := strings.ToUpper(ratesTo)
		if !currency.ValidCode(from) {
			return eris.Errorf("invalid currency code %q", ratesFrom)
		}
		if !currency.ValidCode(to) {
			return eris.Errorf("invalid currency code %q", ratesTo)
		}

		provider := &currency.HTTPRateProvider{
			BaseURL: cfg.Currency.RateURL,
			Fetcher: initFetcher(),
		}
		rate, err := provider.Rate(cmd.Context(), from, to)
		if err != nil {
			return eris.Wrapf(err, "rate %s->%s", from, to)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{
			"from": from,
			"to":   to,
			"rate": rate.String(),
		})
	},
}

func init() {
	ratesCmd.Flags().StringVar(&ratesFrom, "from", "", "source currency code (required)")
	ratesCmd.Flags().StringVar(&ratesTo, "to", "", "target currency code (required)")
	_ = ratesCmd.MarkFlagRequired("from")
	_ = ratesCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(ratesCmd)
}
