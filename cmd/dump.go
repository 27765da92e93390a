package cmd

import (
	"log/slog"
	"os"

	"github.com/gnames/drugref/internal/io/dumpio"
	drugref "github.com/gnames/drugref/pkg"
	"github.com/gnames/drugref/pkg/config"
	"github.com/spf13/cobra"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dumps the legacy MySQL catalog to CSV files",
	Run: func(_ *cobra.Command, _ []string) {
		cfg := config.New(opts...)
		// dump does not use the store
		dr := drugref.New(cfg, nil)

		d, err := dumpio.New(cfg)
		if err != nil {
			slog.Error("Cannot create Dumper.", "error", err)
			os.Exit(1)
		}
		if err = dr.Dump(d); err != nil {
			slog.Error("Cannot dump legacy catalog", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
