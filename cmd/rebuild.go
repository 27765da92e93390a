package cmd

import (
	"log/slog"
	"os"

	"github.com/gnames/drugref/internal/io/buildio"
	drugref "github.com/gnames/drugref/pkg"
	"github.com/gnames/drugref/pkg/config"
	"github.com/spf13/cobra"
)

// rebuildCmd represents the rebuild command
var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Uses CSV dump files to recreate the catalog in the configured store",
	Run: func(_ *cobra.Command, _ []string) {
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

		dr := drugref.New(cfg, st)
		b := buildio.New(cfg, st)
		if err = dr.Build(b); err != nil {
			slog.Error("Cannot populate store", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}
