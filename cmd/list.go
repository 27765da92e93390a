package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strconv"
	"time"

	drugref "github.com/gnames/drugref/pkg"
	"github.com/gnames/drugref/pkg/ent/model"
	"github.com/gnames/gnfmt"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:       "list <atc|listings|drugs|neml|neml-markers|bnmieml|bnmieml-codes>",
	Short:     "Prints records of a table as CSV or JSON lines",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{
		"atc", "listings", "drugs", "neml", "neml-markers", "bnmieml", "bnmieml-codes",
	},
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		lang, _ := cmd.Flags().GetString("lang")
		byCode, _ := cmd.Flags().GetBool("by-code")

		dr, closeFn := openDrugRef()
		defer closeFn()

		w := newWriter(os.Stdout, format, lang)
		if err := listTable(cmd.Context(), dr, args[0], byCode, w); err != nil {
			slog.Error("Cannot list records", "table", args[0], "error", err)
			closeFn()
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("format", "f", "csv", "output format: csv or json")
	listCmd.Flags().StringP("lang", "l", "en", "language of CSV header: en or zh")
	listCmd.Flags().Bool("by-code", false, "sort listings by code instead of creation time")
}

func listTable(
	ctx context.Context,
	dr drugref.DrugRef,
	table string,
	byCode bool,
	w *writer,
) error {
	switch table {
	case "atc":
		return output(w, dr.ListATC(ctx), atcFields, atcRow)
	case "listings":
		o := model.OrderByCreated
		if byCode {
			o = model.OrderByCode
		}
		return output(w, dr.ListListings(ctx, o), listingFields, listingRow)
	case "drugs":
		return output(w, dr.ListDrugNames(ctx), drugFields, drugRow)
	case "neml":
		return output(w, dr.ListNEML(ctx), codeNameFields,
			func(e model.NEMLEntry) []string { return []string{e.Code, e.Name} })
	case "neml-markers":
		return output(w, dr.ListNEMLMarkers(ctx), idFields,
			func(m model.NEMLMarker) []string { return []string{m.ID} })
	case "bnmieml":
		return output(w, dr.ListBNMIEML(ctx), codeNameFields,
			func(e model.BNMIEMLEntry) []string { return []string{e.Code, e.Name} })
	case "bnmieml-codes":
		return output(w, dr.ListBNMIEMLCodes(ctx), codeFields,
			func(c model.BNMIEMLCode) []string { return []string{c.Code} })
	}
	return fmt.Errorf("unknown table %q", table)
}

var (
	atcFields = []string{
		"atc_code", "anatomia_code", "therapeutics_code",
		"pharmacology_code", "chemical_code", "compound_code",
	}
	listingFields = []string{
		"code", "name", "pinyin", "brand", "price", "old_price",
		"is_active", "sold_amount", "is_bestseller", "manufacturer", "created_at",
	}
	drugFields = []string{
		"atc_code", "cadn_name", "cadn_name_zh_hans", "cadn_name_pinyin",
		"cadn_name_py", "inn_name", "trade_name_en", "trade_name_zh_hans",
		"chemical_name_en", "chemical_name_zh_hans",
	}
	codeNameFields = []string{"code", "name"}
	codeFields     = []string{"code"}
	idFields       = []string{"id"}
)

func atcRow(a model.ClassificationATC) []string {
	s := a.Segments()
	return []string{
		a.String(), s.Anatomia, s.Therapeutics, s.Pharmacology, s.Chemical, s.Compound,
	}
}

func listingRow(l model.ListingATC) []string {
	return []string{
		l.Code, l.Name, l.Pinyin, l.Brand,
		l.Price.StringFixed(2), l.OldPrice.StringFixed(2),
		strconv.FormatBool(l.IsActive), strconv.Itoa(l.SoldAmount),
		strconv.FormatBool(l.IsBestseller), l.Manufacturer,
		l.CreatedAt.Format(time.RFC3339),
	}
}

func drugRow(d model.DrugName) []string {
	return []string{
		d.ATCCode, d.CADNName, d.CADNNameZhHans, d.CADNNamePinyin,
		d.CADNNamePy, d.INNName, d.TradeNameEn, d.TradeNameZhHans,
		d.ChemicalNameEn, d.ChemicalNameZhHans,
	}
}

// writer prints records either as CSV with a localized header, or as JSON
// lines.
type writer struct {
	json bool
	lang string
	enc  gnfmt.GNjson
	out  io.Writer
	csv  *csv.Writer
}

func newWriter(out io.Writer, format, lang string) *writer {
	return &writer{
		json: format == "json",
		lang: lang,
		out:  out,
		csv:  csv.NewWriter(out),
	}
}

func output[T any](
	w *writer,
	seq iter.Seq2[T, error],
	fields []string,
	row func(T) []string,
) error {
	if !w.json {
		header := make([]string, len(fields))
		for i := range fields {
			header[i] = model.FieldLabel(fields[i], w.lang)
		}
		if err := w.csv.Write(header); err != nil {
			return err
		}
	}
	for rec, err := range seq {
		if err != nil {
			return err
		}
		if w.json {
			bs, err := w.enc.Encode(rec)
			if err != nil {
				return err
			}
			if _, err = fmt.Fprintln(w.out, string(bs)); err != nil {
				return err
			}
			continue
		}
		if err = w.csv.Write(row(rec)); err != nil {
			return err
		}
	}
	w.csv.Flush()
	return w.csv.Error()
}
