package main

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/price-truth/internal/source"
)

var sourcesCountry string

// sourceInfo is the JSON row printed per registered adapter.
type sourceInfo struct {
	Country string `json:"country"`
	Name    string `json:"name"`
	Domain  string `json:"domain"`
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered price sources per market",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := source.DefaultRegistry(nil)

		countries := reg.Countries()
		if sourcesCountry != "" {
			countries = []string{strings.ToUpper(sourcesCountry)}
		}
		sort.Strings(countries)

		var rows []sourceInfo
		for _, cc := range countries {
			for _, a := range reg.AdaptersFor(cc, 0) {
				rows = append(rows, sourceInfo{Country: cc, Name: a.Name(), Domain: a.Domain()})
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	},
}

func init() {
	sourcesCmd.Flags().StringVar(&sourcesCountry, "country", "", "limit listing to one ISO country code")
	rootCmd.AddCommand(sourcesCmd)
}
