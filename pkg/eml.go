package drugref

import (
	"context"
	"iter"

	"github.com/gnames/drugref/pkg/ent/ident"
	"github.com/gnames/drugref/pkg/ent/model"
)

// CreateNEML saves an entry of the National Essential Medicine List.
func (d *drugref) CreateNEML(
	ctx context.Context,
	code, name string,
) (model.NEMLEntry, error) {
	res := model.NEMLEntry{Code: code, Name: name}
	res.ID = ident.CodeID(res.TableName(), code)
	return insert(ctx, d.st, res)
}

// GetNEML finds a NEML entry by code.
func (d *drugref) GetNEML(ctx context.Context, code string) (model.NEMLEntry, error) {
	return getBy[model.NEMLEntry](ctx, d.st, "code", code)
}

// ListNEML returns NEML entries sorted by code.
func (d *drugref) ListNEML(ctx context.Context) iter.Seq2[model.NEMLEntry, error] {
	return list[model.NEMLEntry](ctx, d.st, model.OrderByCode)
}

// DeleteNEML removes a NEML entry by code.
func (d *drugref) DeleteNEML(ctx context.Context, code string) error {
	return deleteBy[model.NEMLEntry](ctx, d.st, "code", code)
}

// CreateNEMLMarker creates a NEML marker.
func (d *drugref) CreateNEMLMarker(ctx context.Context) (model.NEMLMarker, error) {
	return insert(ctx, d.st, model.NEMLMarker{ID: d.ids.New()})
}

// GetNEMLMarker finds a marker by ID.
func (d *drugref) GetNEMLMarker(ctx context.Context, id string) (model.NEMLMarker, error) {
	return get[model.NEMLMarker](ctx, d.st, id)
}

// ListNEMLMarkers returns markers in order of creation.
func (d *drugref) ListNEMLMarkers(ctx context.Context) iter.Seq2[model.NEMLMarker, error] {
	return list[model.NEMLMarker](ctx, d.st, model.OrderDefault)
}

// DeleteNEMLMarker removes a marker by ID.
func (d *drugref) DeleteNEMLMarker(ctx context.Context, id string) error {
	return d.st.Delete(ctx, model.NEMLMarker{}, id)
}

// CreateBNMIEML saves an entry of the BNMIEML list.
func (d *drugref) CreateBNMIEML(
	ctx context.Context,
	code, name string,
) (model.BNMIEMLEntry, error) {
	res := model.BNMIEMLEntry{Code: code, Name: name}
	res.ID = ident.CodeID(res.TableName(), code)
	return insert(ctx, d.st, res)
}

// GetBNMIEML finds a BNMIEML entry by code.
func (d *drugref) GetBNMIEML(ctx context.Context, code string) (model.BNMIEMLEntry, error) {
	return getBy[model.BNMIEMLEntry](ctx, d.st, "code", code)
}

// ListBNMIEML returns BNMIEML entries sorted by code.
func (d *drugref) ListBNMIEML(ctx context.Context) iter.Seq2[model.BNMIEMLEntry, error] {
	return list[model.BNMIEMLEntry](ctx, d.st, model.OrderByCode)
}

// DeleteBNMIEML removes a BNMIEML entry by code.
func (d *drugref) DeleteBNMIEML(ctx context.Context, code string) error {
	return deleteBy[model.BNMIEMLEntry](ctx, d.st, "code", code)
}

// CreateBNMIEMLCode saves a code-only BNMIEML record.
func (d *drugref) CreateBNMIEMLCode(
	ctx context.Context,
	code string,
) (model.BNMIEMLCode, error) {
	res := model.BNMIEMLCode{Code: code}
	res.ID = ident.CodeID(res.TableName(), code)
	return insert(ctx, d.st, res)
}

// GetBNMIEMLCode finds a code-only BNMIEML record.
func (d *drugref) GetBNMIEMLCode(ctx context.Context, code string) (model.BNMIEMLCode, error) {
	return getBy[model.BNMIEMLCode](ctx, d.st, "code", code)
}

// ListBNMIEMLCodes returns code-only BNMIEML records sorted by code.
func (d *drugref) ListBNMIEMLCodes(ctx context.Context) iter.Seq2[model.BNMIEMLCode, error] {
	return list[model.BNMIEMLCode](ctx, d.st, model.OrderByCode)
}

// DeleteBNMIEMLCode removes a code-only BNMIEML record.
func (d *drugref) DeleteBNMIEMLCode(ctx context.Context, code string) error {
	return deleteBy[model.BNMIEMLCode](ctx, d.st, "code", code)
}
