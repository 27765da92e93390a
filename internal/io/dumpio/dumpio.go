// Package dumpio copies tables of the legacy MySQL catalog to CSV files.
package dumpio

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnames/drugref/internal/ent/dump"
	"github.com/gnames/drugref/pkg/config"
	"github.com/gnames/gnsys"

	_ "github.com/go-sql-driver/mysql"
)

type dumpio struct {
	cfg config.Config
	db  *sql.DB
}

// New connects to MySQL and creates the dump directory.
func New(cfg config.Config) (dump.Dumper, error) {
	var err error
	res := dumpio{cfg: cfg}
	res.db, err = res.initDb()
	if err != nil {
		return nil, err
	}

	err = gnsys.MakeDir(res.cfg.DumpDir)
	if err != nil {
		slog.Error("Cannot create dump directory", "error", err)
		return nil, err
	}

	return &res, nil
}

// Dump writes every legacy table into its CSV file.
func (d *dumpio) Dump() error {
	slog.Info("Dumping legacy catalog to CSV files")

	for _, t := range Tables {
		if err := d.dumpTable(t); err != nil {
			slog.Error("Cannot dump table", "table", t.Source, "error", err)
			d.db.Close()
			return err
		}
	}

	slog.Info("CSV dump is created", "dir", d.cfg.DumpDir)
	return d.db.Close()
}

func (d *dumpio) csvFile(f string) (*os.File, error) {
	path := filepath.Join(d.cfg.DumpDir, f)
	return os.Create(path)
}
