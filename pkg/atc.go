package drugref

import (
	"context"
	"iter"

	"github.com/gnames/drugref/pkg/ent/atc"
	"github.com/gnames/drugref/pkg/ent/ident"
	"github.com/gnames/drugref/pkg/ent/model"
)

// ValidateATC reports if a code passes the configured ATC pattern.
func (d *drugref) ValidateATC(code string) bool {
	return d.valid.Valid(code)
}

// CreateATC saves a classification ATC code.
func (d *drugref) CreateATC(
	ctx context.Context,
	code *string,
	seg atc.Segments,
) (model.ClassificationATC, error) {
	var zero model.ClassificationATC
	res, err := model.NewClassificationATC(code, seg, !d.cfg.LegacyATCPattern)
	if err != nil {
		return zero, err
	}
	if res.ATCCode != nil {
		res.ID = ident.CodeID(res.TableName(), *res.ATCCode)
	} else {
		res.ID = d.ids.New()
	}

	if err = res.ValidateWith(d.valid); err != nil {
		return zero, err
	}
	if err = d.st.Insert(ctx, res); err != nil {
		return zero, err
	}
	return res, nil
}

// GetATC finds a classification record by its code.
func (d *drugref) GetATC(
	ctx context.Context,
	code string,
) (model.ClassificationATC, error) {
	return getBy[model.ClassificationATC](ctx, d.st, "atc_code", d.normATC(code))
}

// ListATC returns classification records sorted by code.
func (d *drugref) ListATC(
	ctx context.Context,
) iter.Seq2[model.ClassificationATC, error] {
	return list[model.ClassificationATC](ctx, d.st, model.OrderByCode)
}

// DeleteATC removes a classification record by its code.
func (d *drugref) DeleteATC(ctx context.Context, code string) error {
	return deleteBy[model.ClassificationATC](ctx, d.st, "atc_code", d.normATC(code))
}

func (d *drugref) normATC(code string) string {
	if d.cfg.LegacyATCPattern {
		return code
	}
	return atc.Normalize(code)
}
