// Package buildio fills a store from CSV files of the dump directory.
package buildio

import (
	"log/slog"

	"github.com/gnames/drugref/internal/ent/build"
	"github.com/gnames/drugref/internal/ent/store"
	"github.com/gnames/drugref/pkg/config"
	"github.com/gnames/drugref/pkg/ent/atc"
	"github.com/gnames/drugref/pkg/ent/ident"
)

// buildio is a struct that implements build.Builder interface.
type buildio struct {
	cfg   config.Config
	st    store.Store
	valid atc.Validator
	ids   *ident.Generator
}

// New returns a new instance of Builder. The store has to be open, it is
// reset and migrated by Build.
func New(cfg config.Config, st store.Store) build.Builder {
	res := buildio{
		cfg:   cfg,
		st:    st,
		valid: atc.NewValidator(cfg.LegacyATCPattern),
		ids:   ident.NewGenerator(cfg.Clock),
	}
	return &res
}

// Build reads CSV dump files and imports their data to the store. Files
// that do not exist are skipped.
func (b *buildio) Build() error {
	var err error
	if err = b.st.Reset(); err != nil {
		slog.Error("Cannot reset store", "error", err)
		return err
	}
	if err = b.st.Migrate(); err != nil {
		slog.Error("Cannot migrate store", "error", err)
		return err
	}

	for _, src := range sources {
		if err = b.importFile(src); err != nil {
			slog.Error("Cannot import file", "file", src.file, "error", err)
			return err
		}
	}
	return nil
}
