package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gnames/drugref/internal/ent/store"
	"github.com/gnames/drugref/internal/io/kvio"
	"github.com/gnames/drugref/internal/io/pgio"
	drugref "github.com/gnames/drugref/pkg"
	"github.com/gnames/drugref/pkg/config"
)

// newStore creates a storage engine chosen by the configuration.
func newStore(cfg config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StoreKV:
		return kvio.New(cfg.KVDir)
	case config.StorePg:
		return pgio.New(cfg), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// openDrugRef opens the configured store and creates DrugRef. The returned
// function closes the store.
func openDrugRef() (drugref.DrugRef, func()) {
	cfg := config.New(opts...)
	st, err := newStore(cfg)
	if err != nil {
		slog.Error("Cannot create store", "error", err)
		os.Exit(1)
	}
	if err = st.Open(); err != nil {
		slog.Error("Cannot open store", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	closeFn := func() {
		if err := st.Close(); err != nil {
			slog.Error("Cannot close store", "error", err)
		}
	}
	return drugref.New(cfg, st), closeFn
}
