package buildio

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gnames/drugref/pkg/ent/atc"
	"github.com/gnames/drugref/pkg/ent/ident"
	"github.com/gnames/drugref/pkg/ent/model"
	"github.com/shopspring/decimal"
)

// source is a CSV file of the dump directory and a conversion of its rows
// to records.
type source struct {
	file   string
	record func(*buildio, row) (model.Record, error)
}

var sources = []source{
	{file: "atc.csv", record: (*buildio).classificationATC},
	{file: "atc_listings.csv", record: (*buildio).listingATC},
	{file: "drug_names.csv", record: (*buildio).drugName},
	{file: "neml.csv", record: (*buildio).nemlEntry},
	{file: "bnmieml.csv", record: (*buildio).bnmiemlEntry},
	{file: "bnmieml_codes.csv", record: (*buildio).bnmiemlCode},
}

func (b *buildio) classificationATC(r row) (model.Record, error) {
	var code *string
	if c := r.get("atc_code"); c != "" {
		code = &c
	}
	seg := atc.Segments{
		Anatomia:     r.get("anatomia_code"),
		Therapeutics: r.get("therapeutics_code"),
		Pharmacology: r.get("pharmacology_code"),
		Chemical:     r.get("chemical_code"),
		Compound:     r.get("compound_code"),
	}
	res, err := model.NewClassificationATC(code, seg, !b.cfg.LegacyATCPattern)
	if err != nil {
		return nil, err
	}
	if res.ATCCode != nil {
		res.ID = ident.CodeID(res.TableName(), *res.ATCCode)
	} else {
		res.ID = b.ids.New()
	}
	if err = res.ValidateWith(b.valid); err != nil {
		return nil, err
	}
	return res, nil
}

func (b *buildio) listingATC(r row) (model.Record, error) {
	inp := model.ListingInput{
		Code:            r.get("code"),
		Name:            r.get("name"),
		Pinyin:          r.get("pinyin"),
		Brand:           r.get("brand"),
		Description:     r.get("description"),
		MetaKeywords:    r.get("meta_keywords"),
		MetaDescription: r.get("meta_description"),
		Manufacturer:    r.get("manufacturer"),
		Highlighted:     r.get("highlighted"),
	}
	var err error
	c := convert{entity: "ATC listing", r: r}
	inp.Price = c.decimal("price")
	inp.OldPrice = c.decimal("old_price")
	inp.IsActive = c.bool("is_active")
	inp.IsBestseller = c.bool("is_bestseller")
	inp.SoldAmount = c.intPtr("sold_amount")
	inp.EndDatetime = c.timePtr("end_datetime")
	created := c.timePtr("created_at")
	updated := c.timePtr("updated_at")
	if err = c.err(); err != nil {
		return nil, err
	}

	res := inp.Listing(b.cfg.Clock())
	if created != nil {
		res.CreatedAt, res.UpdatedAt = *created, *created
	}
	if updated != nil {
		res.UpdatedAt = *updated
	}
	if b.cfg.Romanize {
		res.Romanize()
	}
	res.ID = b.ids.New()
	if err = res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

func (b *buildio) drugName(r row) (model.Record, error) {
	inp := model.DrugNameInput{
		ATCCode:            r.get("atc_code"),
		CADNName:           r.get("cadn_name"),
		CADNNameZhHans:     r.get("cadn_name_zh_hans"),
		CADNNamePinyin:     r.get("cadn_name_pinyin"),
		CADNNamePy:         r.get("cadn_name_py"),
		INNName:            r.get("inn_name"),
		TradeNameEn:        r.get("trade_name_en"),
		TradeNameZhHans:    r.get("trade_name_zh_hans"),
		TradeNamePinyin:    r.get("trade_name_pinyin"),
		TradeNamePy:        r.get("trade_name_py"),
		ChemicalNameEn:     r.get("chemical_name_en"),
		ChemicalNameZhHans: r.get("chemical_name_zh_hans"),
		ChemicalNamePinyin: r.get("chemical_name_pinyin"),
		ChemicalNamePy:     r.get("chemical_name_py"),
	}
	c := convert{entity: "drug name", r: r}
	created := c.timePtr("created_at")
	updated := c.timePtr("updated_at")
	if err := c.err(); err != nil {
		return nil, err
	}

	now := b.cfg.Clock()
	res := model.DrugName{ID: b.ids.New(), CreatedAt: now, UpdatedAt: now}
	if created != nil {
		res.CreatedAt = *created
	}
	if updated != nil {
		res.UpdatedAt = *updated
	}
	inp.SetNames(&res)
	if b.cfg.Romanize {
		res.Romanize()
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

func (b *buildio) nemlEntry(r row) (model.Record, error) {
	res := model.NEMLEntry{Code: r.get("code"), Name: r.get("name")}
	res.ID = ident.CodeID(res.TableName(), res.Code)
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

func (b *buildio) bnmiemlEntry(r row) (model.Record, error) {
	res := model.BNMIEMLEntry{Code: r.get("code"), Name: r.get("name")}
	res.ID = ident.CodeID(res.TableName(), res.Code)
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

func (b *buildio) bnmiemlCode(r row) (model.Record, error) {
	res := model.BNMIEMLCode{Code: r.get("code")}
	res.ID = ident.CodeID(res.TableName(), res.Code)
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// convert parses typed CSV fields and collects parsing errors as a
// validation error.
type convert struct {
	entity string
	r      row
	errs   []model.FieldError
}

func (c *convert) fail(field, kind string) {
	c.errs = append(c.errs, model.FieldError{
		Code:    model.CodeParse,
		Field:   field,
		Message: fmt.Sprintf("field '%s' is not a valid %s: %q", field, kind, c.r.get(field)),
	})
}

func (c *convert) decimal(field string) decimal.Decimal {
	v := c.r.get(field)
	if v == "" {
		return decimal.Zero
	}
	res, err := decimal.NewFromString(v)
	if err != nil {
		c.fail(field, "decimal")
	}
	return res
}

func (c *convert) bool(field string) bool {
	switch strings.ToLower(c.r.get(field)) {
	case "", "0", "f", "false":
		return false
	case "1", "t", "true":
		return true
	}
	c.fail(field, "boolean")
	return false
}

func (c *convert) intPtr(field string) *int {
	v := c.r.get(field)
	if v == "" {
		return nil
	}
	res, err := strconv.Atoi(v)
	if err != nil {
		c.fail(field, "integer")
		return nil
	}
	return &res
}

func (c *convert) timePtr(field string) *time.Time {
	v := c.r.get(field)
	if v == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateTime} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	c.fail(field, "time")
	return nil
}

func (c *convert) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &model.ValidationError{Entity: c.entity, Fields: c.errs}
}
