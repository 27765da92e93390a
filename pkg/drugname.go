package drugref

import (
	"context"
	"iter"

	"github.com/gnames/drugref/pkg/ent/model"
)

// CreateDrugName saves names of a drug.
func (d *drugref) CreateDrugName(
	ctx context.Context,
	inp model.DrugNameInput,
) (model.DrugName, error) {
	now := d.now()
	res := model.DrugName{
		ID:        d.ids.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.setNames(&res, inp)
	return insert(ctx, d.st, res)
}

// GetDrugName finds drug names by ID.
func (d *drugref) GetDrugName(ctx context.Context, id string) (model.DrugName, error) {
	return get[model.DrugName](ctx, d.st, id)
}

// ListDrugNames returns drug names in their natural order.
func (d *drugref) ListDrugNames(ctx context.Context) iter.Seq2[model.DrugName, error] {
	return list[model.DrugName](ctx, d.st, model.OrderDefault)
}

// RenameDrug replaces names of a stored record.
func (d *drugref) RenameDrug(
	ctx context.Context,
	id string,
	inp model.DrugNameInput,
) (model.DrugName, error) {
	var zero model.DrugName
	res, err := get[model.DrugName](ctx, d.st, id)
	if err != nil {
		return zero, err
	}
	d.setNames(&res, inp)
	res.UpdatedAt = d.now()
	if err = res.Validate(); err != nil {
		return zero, err
	}
	if err = d.st.Update(ctx, res); err != nil {
		return zero, err
	}
	return res, nil
}

// DeleteDrugName removes drug names by ID.
func (d *drugref) DeleteDrugName(ctx context.Context, id string) error {
	return d.st.Delete(ctx, model.DrugName{}, id)
}

func (d *drugref) setNames(dn *model.DrugName, inp model.DrugNameInput) {
	inp.SetNames(dn)
	if d.cfg.Romanize {
		dn.Romanize()
	}
}
