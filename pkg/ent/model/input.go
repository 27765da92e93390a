package model

import (
	"fmt"
	"time"

	"github.com/gnames/drugref/pkg/ent/atc"
	"github.com/shopspring/decimal"
)

// ListingInput contains data for a new ListingATC. Fields with defaults
// are pointers, nil means "use default".
type ListingInput struct {
	Code            string
	Name            string
	Pinyin          string
	Brand           string
	Price           decimal.Decimal
	OldPrice        decimal.Decimal
	IsActive        bool
	IsBestseller    bool
	SoldAmount      *int
	EndDatetime     *time.Time
	Description     string
	MetaKeywords    string
	MetaDescription string
	Manufacturer    string
	Highlighted     string
}

// DrugNameInput contains names of a drug. Only CADNName is required.
type DrugNameInput struct {
	ATCCode string

	CADNName       string
	CADNNameZhHans string
	CADNNamePinyin string
	CADNNamePy     string

	INNName string

	TradeNameEn     string
	TradeNameZhHans string
	TradeNamePinyin string
	TradeNamePy     string

	ChemicalNameEn     string
	ChemicalNameZhHans string
	ChemicalNamePinyin string
	ChemicalNamePy     string
}

// Listing creates a ListingATC from the input. Omitted sold amount becomes
// DefaultSoldAmount, both timestamps are set to now. ID is not assigned.
func (inp ListingInput) Listing(now time.Time) ListingATC {
	res := ListingATC{
		Code:            inp.Code,
		Name:            inp.Name,
		Pinyin:          inp.Pinyin,
		Brand:           inp.Brand,
		Price:           inp.Price,
		OldPrice:        inp.OldPrice,
		IsActive:        inp.IsActive,
		SoldAmount:      DefaultSoldAmount,
		IsBestseller:    inp.IsBestseller,
		EndDatetime:     inp.EndDatetime,
		Description:     inp.Description,
		MetaKeywords:    inp.MetaKeywords,
		MetaDescription: inp.MetaDescription,
		Manufacturer:    inp.Manufacturer,
		Highlighted:     inp.Highlighted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if inp.SoldAmount != nil {
		res.SoldAmount = *inp.SoldAmount
	}
	return res
}

// SetNames replaces all names of the record with the input names.
func (inp DrugNameInput) SetNames(dn *DrugName) {
	dn.ATCCode = inp.ATCCode
	dn.CADNName = inp.CADNName
	dn.CADNNameZhHans = inp.CADNNameZhHans
	dn.CADNNamePinyin = inp.CADNNamePinyin
	dn.CADNNamePy = inp.CADNNamePy
	dn.INNName = inp.INNName
	dn.TradeNameEn = inp.TradeNameEn
	dn.TradeNameZhHans = inp.TradeNameZhHans
	dn.TradeNamePinyin = inp.TradeNamePinyin
	dn.TradeNamePy = inp.TradeNamePy
	dn.ChemicalNameEn = inp.ChemicalNameEn
	dn.ChemicalNameZhHans = inp.ChemicalNameZhHans
	dn.ChemicalNamePinyin = inp.ChemicalNamePinyin
	dn.ChemicalNamePy = inp.ChemicalNamePy
}

// NewClassificationATC creates a classification record from a code and its
// segments. If the segments are empty, they are taken from a structurally
// correct code. Given segments that disagree with the code make
// *ValidationError. Codes are upper-cased when normalize is true. ID is not
// assigned and the code is not validated.
func NewClassificationATC(
	code *string,
	seg atc.Segments,
	normalize bool,
) (ClassificationATC, error) {
	var res ClassificationATC
	if code != nil {
		c := *code
		if normalize {
			c = atc.Normalize(c)
		}
		res.ATCCode = &c
		if fromCode, err := atc.Split(c); err == nil {
			switch {
			case seg.IsZero():
				seg = fromCode
			case seg != fromCode:
				return res, &ValidationError{
					Entity: "ATC",
					Fields: []FieldError{{
						Code:  CodeMismatch,
						Field: "atc_code",
						Message: fmt.Sprintf(
							"segments %q do not agree with atc_code %q", seg.Code(), c,
						),
					}},
				}
			}
		}
	}
	res.AnatomiaCode = ptr(seg.Anatomia)
	res.TherapeuticsCode = ptr(seg.Therapeutics)
	res.PharmacologyCode = ptr(seg.Pharmacology)
	res.ChemicalCode = ptr(seg.Chemical)
	res.CompoundCode = ptr(seg.Compound)
	return res, nil
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
