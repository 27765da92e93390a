package cmd

import (
	"log/slog"
	"os"

	"github.com/gnames/drugref/pkg/config"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates tables, unique indices and column defaults",
	Run: func(cmd *cobra.Command, _ []string) {
		cfg := config.New(opts...)
		st, err := newStore(cfg)
		if err != nil {
			slog.Error("Cannot create store", "error", err)
			os.Exit(1)
		}
		if err = st.Open(); err != nil {
			slog.Error("Cannot open store", "error", err)
			os.Exit(1)
		}
		defer st.Close()

		reset, _ := cmd.Flags().GetBool("reset")
		if reset {
			if err = st.Reset(); err != nil {
				slog.Error("Cannot reset store", "error", err)
				os.Exit(1)
			}
		}
		if err = st.Migrate(); err != nil {
			slog.Error("Cannot migrate store", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolP("reset", "r", false, "remove all data before migration")
}
