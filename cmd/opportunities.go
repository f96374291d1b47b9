package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var opportunitiesLimit int

var opportunitiesCmd = &cobra.Command{
	Use:   "opportunities",
	Short: "List stored opportunities, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		records, err := st.ListOpportunities(ctx, opportunitiesLimit)
		if err != nil {
			return eris.Wrap(err, "list opportunities")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}

func init() {
	opportunitiesCmd.Flags().IntVar(&opportunitiesLimit, "limit", 0, "max records to return (0 = all)")
	rootCmd.AddCommand(opportunitiesCmd)
}
