package cmd

import (
	"fmt"

	drugref "github.com/gnames/drugref/pkg"
	"github.com/gnames/drugref/pkg/config"
	"github.com/gnames/drugref/pkg/ent/atc"
	"github.com/spf13/cobra"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <code>...",
	Short: "Checks ATC codes and shows their classification levels",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		dr := drugref.New(config.New(opts...), nil)
		for _, code := range args {
			fmt.Println(validation(dr, code))
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validation(dr drugref.DrugRef, code string) string {
	if !dr.ValidateATC(code) {
		return fmt.Sprintf("%s\tinvalid", code)
	}
	seg, err := atc.Split(atc.Normalize(code))
	if err != nil {
		return fmt.Sprintf("%s\tvalid", code)
	}
	return fmt.Sprintf("%s\tvalid\t%s %s %s %s %s", code,
		seg.Anatomia, seg.Therapeutics, seg.Pharmacology, seg.Chemical, seg.Compound)
}
