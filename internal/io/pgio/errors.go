package pgio

import (
	"errors"
	"regexp"

	"github.com/gnames/drugref/pkg/ent/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code of unique_violation.
const uniqueViolation = "23505"

// Detail of a unique violation looks like
// `Key (code)=(X1) already exists.`
var detailRe = regexp.MustCompile(`Key \((.+?)\)=\((.*)\) already exists`)

// mapErr converts unique violations reported either by lib/pq (gorm) or
// by pgx into *model.DuplicateKeyError.
func mapErr(table string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return duplicate(table, pqErr.Detail, pqErr.Constraint)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return duplicate(table, pgErr.Detail, pgErr.ConstraintName)
	}
	return err
}

func duplicate(table, detail, constraint string) error {
	res := &model.DuplicateKeyError{Table: table, Field: constraint}
	if m := detailRe.FindStringSubmatch(detail); m != nil {
		res.Field = m[1]
		res.Value = m[2]
	}
	return res
}
