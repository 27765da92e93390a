// Package modelio creates the relational schema of the catalog with gorm.
package modelio

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/gnames/drugref/pkg/ent/model"
	"github.com/jinzhu/gorm"
)

type modelio struct {
	db *gorm.DB
}

// New returns a new instance of model.Schema.
func New(db *gorm.DB) model.Schema {
	res := modelio{db: db}
	return &res
}

// Migrate creates tables with their unique indices, and sets column
// defaults.
func (m *modelio) Migrate() error {
	recs := model.All()
	tbls := make([]any, len(recs))
	for i := range recs {
		v := reflect.ValueOf(recs[i])
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		tbls[i] = ptr.Interface()
	}
	if err := m.db.AutoMigrate(tbls...).Error; err != nil {
		return err
	}
	return m.setDefaults()
}

// setDefaults is done outside of gorm tags, gorm skips zero values of
// fields that have a default.
func (m *modelio) setDefaults() error {
	qStr := `ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s`
	for _, v := range model.ColumnDefaults {
		q := fmt.Sprintf(qStr,
			m.db.Dialect().Quote(v.Table),
			m.db.Dialect().Quote(v.Column),
			v.Value,
		)
		if err := m.db.Exec(q).Error; err != nil {
			slog.Error(
				"Cannot set column default.",
				"table", v.Table,
				"column", v.Column,
			)
			return err
		}
	}
	return nil
}
