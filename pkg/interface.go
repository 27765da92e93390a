package drugref

import (
	"context"
	"iter"

	"github.com/gnames/drugref/internal/ent/build"
	"github.com/gnames/drugref/internal/ent/dump"
	"github.com/gnames/drugref/pkg/config"
	"github.com/gnames/drugref/pkg/ent/atc"
	"github.com/gnames/drugref/pkg/ent/model"
)

// DrugRef is an interface to the drug reference catalog. Create methods
// validate records and return *model.ValidationError, violations of unique
// constraints return *model.DuplicateKeyError, lookups that miss return
// *model.NotFoundError.
//
// List methods return lazy sequences. They can be iterated many times,
// every iteration reads the store again.
type DrugRef interface {
	// Config returns configuration of the catalog.
	Config() config.Config

	// Dump copies the legacy catalog to CSV files.
	Dump(dump.Dumper) error

	// Build fills the store from CSV files.
	Build(build.Builder) error

	// ValidateATC reports if a code passes the configured ATC pattern.
	ValidateATC(code string) bool

	// CreateATC saves a classification ATC code. Code may be nil. If
	// segments are empty, they are taken from the code, if given, they must
	// agree with the code.
	CreateATC(
		ctx context.Context,
		code *string,
		seg atc.Segments,
	) (model.ClassificationATC, error)

	// GetATC finds a classification record by its code.
	GetATC(ctx context.Context, code string) (model.ClassificationATC, error)

	// ListATC returns classification records sorted by code, records without
	// code come last.
	ListATC(ctx context.Context) iter.Seq2[model.ClassificationATC, error]

	// DeleteATC removes a classification record by its code.
	DeleteATC(ctx context.Context, code string) error

	// CreateListing saves a product listing. Omitted sold amount becomes
	// 10000.
	CreateListing(
		ctx context.Context,
		inp model.ListingInput,
	) (model.ListingATC, error)

	// GetListing finds a listing by its code.
	GetListing(ctx context.Context, code string) (model.ListingATC, error)

	// ListListings returns listings sorted by creation time or by code.
	ListListings(
		ctx context.Context,
		o model.Order,
	) iter.Seq2[model.ListingATC, error]

	// UpdateListing saves changes of a listing and refreshes UpdatedAt.
	UpdateListing(
		ctx context.Context,
		l model.ListingATC,
	) (model.ListingATC, error)

	// DeleteListing removes a listing by its code.
	DeleteListing(ctx context.Context, code string) error

	// CreateDrugName saves names of a drug. Duplicates are allowed.
	CreateDrugName(
		ctx context.Context,
		inp model.DrugNameInput,
	) (model.DrugName, error)

	// GetDrugName finds drug names by ID.
	GetDrugName(ctx context.Context, id string) (model.DrugName, error)

	// ListDrugNames returns drug names sorted by the pinyin abbreviation and
	// the generic name.
	ListDrugNames(ctx context.Context) iter.Seq2[model.DrugName, error]

	// RenameDrug replaces all names of a record, for example after naming
	// authorities revise standard names.
	RenameDrug(
		ctx context.Context,
		id string,
		inp model.DrugNameInput,
	) (model.DrugName, error)

	// DeleteDrugName removes drug names by ID.
	DeleteDrugName(ctx context.Context, id string) error

	// CreateNEML saves an entry of the National Essential Medicine List.
	CreateNEML(ctx context.Context, code, name string) (model.NEMLEntry, error)

	// GetNEML finds a NEML entry by code.
	GetNEML(ctx context.Context, code string) (model.NEMLEntry, error)

	// ListNEML returns NEML entries sorted by code.
	ListNEML(ctx context.Context) iter.Seq2[model.NEMLEntry, error]

	// DeleteNEML removes a NEML entry by code.
	DeleteNEML(ctx context.Context, code string) error

	// CreateNEMLMarker creates a NEML marker.
	CreateNEMLMarker(ctx context.Context) (model.NEMLMarker, error)

	// GetNEMLMarker finds a marker by ID.
	GetNEMLMarker(ctx context.Context, id string) (model.NEMLMarker, error)

	// ListNEMLMarkers returns markers in order of creation.
	ListNEMLMarkers(ctx context.Context) iter.Seq2[model.NEMLMarker, error]

	// DeleteNEMLMarker removes a marker by ID.
	DeleteNEMLMarker(ctx context.Context, id string) error

	// CreateBNMIEML saves an entry of the Basic National Medical Insurance
	// Essential Medicine List.
	CreateBNMIEML(
		ctx context.Context,
		code, name string,
	) (model.BNMIEMLEntry, error)

	// GetBNMIEML finds a BNMIEML entry by code.
	GetBNMIEML(ctx context.Context, code string) (model.BNMIEMLEntry, error)

	// ListBNMIEML returns BNMIEML entries sorted by code.
	ListBNMIEML(ctx context.Context) iter.Seq2[model.BNMIEMLEntry, error]

	// DeleteBNMIEML removes a BNMIEML entry by code.
	DeleteBNMIEML(ctx context.Context, code string) error

	// CreateBNMIEMLCode saves a code-only BNMIEML record.
	CreateBNMIEMLCode(ctx context.Context, code string) (model.BNMIEMLCode, error)

	// GetBNMIEMLCode finds a code-only BNMIEML record.
	GetBNMIEMLCode(ctx context.Context, code string) (model.BNMIEMLCode, error)

	// ListBNMIEMLCodes returns code-only BNMIEML records sorted by code.
	ListBNMIEMLCodes(ctx context.Context) iter.Seq2[model.BNMIEMLCode, error]

	// DeleteBNMIEMLCode removes a code-only BNMIEML record.
	DeleteBNMIEMLCode(ctx context.Context, code string) error
}
