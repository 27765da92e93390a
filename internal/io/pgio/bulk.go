package pgio

import (
	"context"
	"fmt"

	"github.com/gnames/drugref/pkg/ent/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// BulkInsert copies records of one table with COPY. Records must be
// validated already. A unique violation aborts the whole batch.
func (p *pgio) BulkInsert(ctx context.Context, recs []model.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	if err := p.ready(); err != nil {
		return 0, err
	}
	tbl := recs[0].TableName()

	var columns []string
	rows := make([][]any, len(recs))
	for i := range recs {
		if recs[i].TableName() != tbl {
			return 0, fmt.Errorf("bulk insert mixes tables %s and %s",
				tbl, recs[i].TableName())
		}
		var row []any
		for _, f := range p.grm.NewScope(ptrTo(recs[i])).Fields() {
			if f.IsIgnored {
				continue
			}
			if i == 0 {
				columns = append(columns, f.DBName)
			}
			row = append(row, copyValue(f.Field.Interface()))
		}
		rows[i] = row
	}

	n, err := p.insertRows(ctx, tbl, columns, rows)
	return n, mapErr(tbl, err)
}

func (p *pgio) insertRows(
	ctx context.Context,
	tbl string,
	columns []string,
	rows [][]any,
) (int64, error) {
	copyCount, err := p.db.CopyFrom(
		ctx,
		pgx.Identifier{tbl},
		columns,
		pgx.CopyFromRows(rows),
	)

	return int64(copyCount), err
}

// copyValue converts values that pgx cannot encode for COPY directly.
func copyValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
	}
	return v
}
