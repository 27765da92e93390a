// Package pgio implements store.Store for PostgreSQL. Schema and CRUD
// operations go through gorm, resets, lookups and bulk loads use a pgx
// connection pool. Unique constraints are enforced by unique indices of
// the database.
package pgio

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"reflect"

	"github.com/gnames/drugref/internal/ent/store"
	"github.com/gnames/drugref/pkg/config"
	"github.com/gnames/drugref/pkg/ent/model"
	"github.com/gnames/drugref/pkg/io/modelio"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jinzhu/gorm"
)

type pgio struct {
	cfg config.Config
	db  *pgxpool.Pool
	grm *gorm.DB
}

// New returns a PostgreSQL store. Connections are made by Open.
func New(cfg config.Config) store.Store {
	res := pgio{cfg: cfg}
	return &res
}

// Open connects to the database.
func (p *pgio) Open() error {
	var err error
	if p.db != nil {
		slog.Warn("Database is already open")
		return nil
	}
	if p.db, err = pgxConn(p.cfg); err != nil {
		return err
	}
	if p.grm, err = gormConn(p.cfg); err != nil {
		p.db.Close()
		p.db = nil
		return err
	}
	return nil
}

// Close closes both connections.
func (p *pgio) Close() error {
	if p.db == nil {
		slog.Warn("Database is not open")
		return nil
	}
	p.db.Close()
	err := p.grm.Close()
	p.db, p.grm = nil, nil
	return err
}

// Migrate creates tables, unique indices and column defaults.
func (p *pgio) Migrate() error {
	if err := p.ready(); err != nil {
		return err
	}
	slog.Info("Running database migrations", "database", p.cfg.PgDB)
	if err := modelio.New(p.grm).Migrate(); err != nil {
		slog.Error("Cannot migrate database", "error", err)
		return err
	}
	slog.Info("Database migrations completed")
	return nil
}

// Reset drops the public schema and creates it again.
func (p *pgio) Reset() error {
	if err := p.ready(); err != nil {
		return err
	}
	slog.Info("Resetting database", "database", p.cfg.PgDB)
	qs := []string{
		"DROP SCHEMA IF EXISTS public CASCADE",
		"CREATE SCHEMA public",
		"GRANT ALL ON SCHEMA public TO postgres",
		fmt.Sprintf("GRANT ALL ON SCHEMA public TO %s",
			pgx.Identifier{p.cfg.PgUser}.Sanitize()),
		"COMMENT ON SCHEMA public IS 'standard public schema'",
	}
	for i := range qs {
		if _, err := p.db.Exec(context.Background(), qs[i]); err != nil {
			slog.Error("Cannot reset database", "error", err, "query", qs[i])
			return err
		}
	}
	slog.Info("Database did reset successfully")
	return nil
}

// Insert creates a row.
func (p *pgio) Insert(ctx context.Context, rec model.Record) error {
	if err := p.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.grm.Create(ptrTo(rec)).Error
	return mapErr(rec.TableName(), err)
}

// Update writes every column of the record, including zero values.
func (p *pgio) Update(ctx context.Context, rec model.Record) error {
	if err := p.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ptr := ptrTo(rec)
	cols := make(map[string]any)
	for _, f := range p.grm.NewScope(ptr).Fields() {
		if f.IsIgnored || f.IsPrimaryKey {
			continue
		}
		cols[f.DBName] = f.Field.Interface()
	}
	res := p.grm.Model(ptr).UpdateColumns(cols)
	if res.Error != nil {
		return mapErr(rec.TableName(), res.Error)
	}
	if res.RowsAffected == 0 {
		return &model.NotFoundError{Table: rec.TableName(), Key: rec.RecordID()}
	}
	return nil
}

// Get finds a row by ID.
func (p *pgio) Get(ctx context.Context, table, id string, dst any) error {
	if err := p.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.grm.Table(table).Where("id = ?", id).First(dst).Error
	if gorm.IsRecordNotFoundError(err) {
		return &model.NotFoundError{Table: table, Key: id}
	}
	return err
}

// LookupUnique finds ID of a row by a value of a unique column.
func (p *pgio) LookupUnique(
	ctx context.Context,
	table, field, value string,
) (string, error) {
	if err := p.ready(); err != nil {
		return "", err
	}
	q := fmt.Sprintf("SELECT id FROM %s WHERE %s = $1",
		pgx.Identifier{table}.Sanitize(), pgx.Identifier{field}.Sanitize())
	var id string
	err := p.db.QueryRow(ctx, q, value).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", &model.NotFoundError{Table: table, Key: value}
	}
	return id, err
}

// Delete removes a row by ID.
func (p *pgio) Delete(ctx context.Context, proto model.Record, id string) error {
	if err := p.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	res := p.grm.Where("id = ?", id).Delete(ptrTo(proto))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &model.NotFoundError{Table: proto.TableName(), Key: id}
	}
	return nil
}

// Scan streams rows from a database cursor. A Decoder is valid only until
// the next iteration step.
func (p *pgio) Scan(
	ctx context.Context,
	proto model.Record,
	o model.Order,
) iter.Seq2[store.Decoder, error] {
	return func(yield func(store.Decoder, error) bool) {
		if err := p.ready(); err != nil {
			yield(nil, err)
			return
		}
		clause := proto.OrderBy(o)
		if clause == "" {
			yield(nil, fmt.Errorf("table %s cannot be sorted by %s",
				proto.TableName(), o))
			return
		}
		rows, err := p.grm.Model(ptrTo(proto)).Order(clause).Rows()
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			if err = ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			dec := func(dst any) error { return p.grm.ScanRows(rows, dst) }
			if !yield(dec, nil) {
				return
			}
		}
		if err = rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func (p *pgio) ready() error {
	if p.db == nil || p.grm == nil {
		return errors.New("database is not open")
	}
	return nil
}

// ptrTo returns a pointer to a copy of the record, gorm needs addressable
// values.
func ptrTo(rec model.Record) any {
	v := reflect.ValueOf(rec)
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	return ptr.Interface()
}
