package drugref

import (
	"context"
	"iter"

	"github.com/gnames/drugref/pkg/ent/model"
)

// CreateListing saves a product listing. Codes of listings can change, so
// their IDs are not derived from codes.
func (d *drugref) CreateListing(
	ctx context.Context,
	inp model.ListingInput,
) (model.ListingATC, error) {
	res := inp.Listing(d.now())
	if d.cfg.Romanize {
		res.Romanize()
	}
	res.ID = d.ids.New()
	return insert(ctx, d.st, res)
}

// GetListing finds a listing by its code.
func (d *drugref) GetListing(
	ctx context.Context,
	code string,
) (model.ListingATC, error) {
	return getBy[model.ListingATC](ctx, d.st, "code", code)
}

// ListListings returns listings in the given order.
func (d *drugref) ListListings(
	ctx context.Context,
	o model.Order,
) iter.Seq2[model.ListingATC, error] {
	return list[model.ListingATC](ctx, d.st, o)
}

// UpdateListing saves changes of a listing. CreatedAt of the stored record
// is preserved.
func (d *drugref) UpdateListing(
	ctx context.Context,
	l model.ListingATC,
) (model.ListingATC, error) {
	var zero model.ListingATC
	old, err := get[model.ListingATC](ctx, d.st, l.ID)
	if err != nil {
		return zero, err
	}
	l.CreatedAt = old.CreatedAt
	l.UpdatedAt = d.now()
	if err = l.Validate(); err != nil {
		return zero, err
	}
	if err = d.st.Update(ctx, l); err != nil {
		return zero, err
	}
	return l, nil
}

// DeleteListing removes a listing by its code.
func (d *drugref) DeleteListing(ctx context.Context, code string) error {
	return deleteBy[model.ListingATC](ctx, d.st, "code", code)
}
