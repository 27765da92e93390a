package dumpio

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
)

// Table describes how a legacy table is copied to a CSV file.
type Table struct {
	// Source is the table of the legacy catalog.
	Source string
	// File is the name of the CSV file.
	File string
	// Columns are the columns of the table and the header of the file.
	Columns []string
}

// Tables of the legacy catalog. Legacy drug names have no atc_code column.
var Tables = []Table{
	{
		Source: "dicts_atc",
		File:   "atc.csv",
		Columns: []string{
			"atc_code", "anatomia_code", "therapeutics_code",
			"pharmacology_code", "chemical_code", "compound_code",
		},
	},
	{
		Source: "dicts_drugname",
		File:   "drug_names.csv",
		Columns: []string{
			"cadn_name", "cadn_name_zh_hans", "cadn_name_pinyin", "cadn_name_py",
			"inn_name",
			"trade_name_en", "trade_name_zh_hans", "trade_name_pinyin",
			"trade_name_py",
			"chemical_name_en", "chemical_name_zh_hans", "chemical_name_pinyin",
			"chemical_name_py",
			"created_at", "updated_at",
		},
	},
	{
		Source:  "dicts_neml",
		File:    "neml.csv",
		Columns: []string{"code", "name"},
	},
	{
		Source:  "dicts_bnmieml",
		File:    "bnmieml.csv",
		Columns: []string{"code", "name"},
	},
}

func (d *dumpio) initDb() (*sql.DB, error) {
	db, err := sql.Open("mysql", d.dbURI())
	if err != nil {
		slog.Error("Cannot connect to database", "error", err)
		return nil, err
	}
	return db, nil
}

func (d *dumpio) dbURI() string {
	url := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		d.cfg.MyUser, d.cfg.MyPass, d.cfg.MyHost, d.cfg.MyPort, d.cfg.MyDB)
	return url
}

func (d *dumpio) dumpTable(t Table) error {
	slog.Info("Create " + t.File)
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY id",
		strings.Join(t.Columns, ", "), t.Source)
	rows, err := d.db.Query(q)
	if err != nil {
		return err
	}
	defer rows.Close()

	file, err := d.csvFile(t.File)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err = w.Write(t.Columns); err != nil {
		return err
	}

	vals := make([]sql.NullString, len(t.Columns))
	dst := make([]any, len(vals))
	for i := range vals {
		dst[i] = &vals[i]
	}
	row := make([]string, len(vals))

	var count int64
	for rows.Next() {
		count++
		if count%10_000 == 0 {
			fmt.Printf("\r%s", strings.Repeat(" ", 40))
			fmt.Printf("\rDownloaded %s rows of %s", humanize.Comma(count), t.Source)
		}
		if err = rows.Scan(dst...); err != nil {
			return err
		}
		for i := range vals {
			row[i] = csvValue(vals[i])
		}
		if err = w.Write(row); err != nil {
			slog.Error("Cannot write to CSV file", "error", err)
			return err
		}
	}
	if err = rows.Err(); err != nil {
		return err
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return err
	}
	fmt.Printf("\r%s", strings.Repeat(" ", 40))
	fmt.Printf("\rDownloaded %s rows of %s\n", humanize.Comma(count), t.Source)
	return file.Sync()
}

// csvValue removes characters that break CSV rows. NULL becomes an empty
// field.
func csvValue(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	s := strings.ReplaceAll(v.String, "\u0000", "")
	return strings.ReplaceAll(s, "\n", " ")
}
