package drugref

import (
	"context"
	"iter"
	"time"

	"github.com/gnames/drugref/internal/ent/build"
	"github.com/gnames/drugref/internal/ent/dump"
	"github.com/gnames/drugref/internal/ent/store"
	"github.com/gnames/drugref/pkg/config"
	"github.com/gnames/drugref/pkg/ent/atc"
	"github.com/gnames/drugref/pkg/ent/ident"
	"github.com/gnames/drugref/pkg/ent/model"
)

// drugref is an implementation of DrugRef interface.
type drugref struct {
	cfg   config.Config
	st    store.Store
	valid atc.Validator

	ids *ident.Generator
}

// New creates a new instance of DrugRef. The store has to be open.
func New(
	cfg config.Config,
	st store.Store,
) DrugRef {
	res := drugref{
		cfg:   cfg,
		st:    st,
		valid: atc.NewValidator(cfg.LegacyATCPattern),
		ids:   ident.NewGenerator(cfg.Clock),
	}
	return &res
}

// Config returns configuration of the catalog.
func (d *drugref) Config() config.Config {
	return d.cfg
}

// Dump copies the legacy catalog to CSV files.
func (d *drugref) Dump(dmp dump.Dumper) error {
	return dmp.Dump()
}

// Build fills the store from CSV files.
func (d *drugref) Build(b build.Builder) error {
	return b.Build()
}

func (d *drugref) now() time.Time {
	return d.cfg.Clock()
}

func insert[T model.Record](ctx context.Context, st store.Store, rec T) (T, error) {
	var zero T
	if err := rec.Validate(); err != nil {
		return zero, err
	}
	if err := st.Insert(ctx, rec); err != nil {
		return zero, err
	}
	return rec, nil
}

func get[T model.Record](ctx context.Context, st store.Store, id string) (T, error) {
	var res T
	err := st.Get(ctx, res.TableName(), id, &res)
	return res, err
}

func getBy[T model.Record](
	ctx context.Context,
	st store.Store,
	field, value string,
) (T, error) {
	var res T
	id, err := st.LookupUnique(ctx, res.TableName(), field, value)
	if err != nil {
		return res, err
	}
	return get[T](ctx, st, id)
}

func deleteBy[T model.Record](
	ctx context.Context,
	st store.Store,
	field, value string,
) error {
	var proto T
	id, err := st.LookupUnique(ctx, proto.TableName(), field, value)
	if err != nil {
		return err
	}
	return st.Delete(ctx, proto, id)
}

func list[T model.Record](
	ctx context.Context,
	st store.Store,
	o model.Order,
) iter.Seq2[T, error] {
	var proto T
	return func(yield func(T, error) bool) {
		for dec, err := range st.Scan(ctx, proto, o) {
			var rec T
			if err == nil {
				err = dec(&rec)
			}
			if err != nil {
				yield(rec, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}
