// Package model contains persisted entities of the drug reference catalog.
//
// The catalog consists of independent reference tables without foreign
// keys between them: ATC codes, drug names, and entries of two national
// essential medicine lists. ATC and both medicine lists exist in two
// incompatible variants, each variant is a separate entity.
package model

import (
	"fmt"
	"time"

	"github.com/gnames/drugref/pkg/ent/atc"
	"github.com/shopspring/decimal"
)

// Order selects the sequence in which records of a table are listed.
type Order int

const (
	// OrderDefault is the natural order of a table.
	OrderDefault Order = iota
	// OrderByCode sorts records by their code.
	OrderByCode
	// OrderByCreated sorts records by creation time.
	OrderByCreated
)

func (o Order) String() string {
	switch o {
	case OrderByCode:
		return "code"
	case OrderByCreated:
		return "created"
	default:
		return "default"
	}
}

// UniqueKey is a value of a field that has to be unique in a table.
type UniqueKey struct {
	Field string
	Value string
}

// Record is implemented by every persisted entity.
type Record interface {
	// TableName is the name of the table that keeps the record.
	TableName() string

	// RecordID returns the primary key of the record.
	RecordID() string

	// UniqueKeys returns values that must be unique in the table.
	UniqueKeys() []UniqueKey

	// OrderKeys returns sortable keys for every supported order.
	OrderKeys() map[Order]string

	// OrderBy returns SQL ORDER BY clause for the order, or an empty string
	// if the order is not supported.
	OrderBy(Order) string

	// Validate checks the record against length, pattern and required
	// constraints.
	Validate() error
}

// Schema creates tables of the catalog in a relational database.
type Schema interface {
	// Migrate creates or updates tables, indices and column defaults.
	Migrate() error
}

// ColumnDefault is a default value of a column kept by the database
// schema.
type ColumnDefault struct {
	Table, Column, Value string
}

// ColumnDefaults lists the defaults of the persistence schema that are
// not expressed through gorm tags.
var ColumnDefaults = []ColumnDefault{
	{"atc_listings", "pinyin", "''"},
	{"atc_listings", "is_active", "false"},
	{"atc_listings", "is_bestseller", "false"},
	{"atc_listings", "sold_amount", "10000"},
	{"drug_names", "cadn_name_pinyin", "''"},
	{"drug_names", "cadn_name_py", "''"},
	{"drug_names", "trade_name_pinyin", "''"},
	{"drug_names", "trade_name_py", "''"},
	{"drug_names", "chemical_name_pinyin", "''"},
	{"drug_names", "chemical_name_py", "''"},
}

// DefaultSoldAmount is used for ListingATC when sold amount is not given.
// It is a seeding convenience, not a real sales count.
const DefaultSoldAmount = 10000

// All returns empty instances of every entity, for migrations.
func All() []Record {
	return []Record{
		ClassificationATC{},
		ListingATC{},
		DrugName{},
		NEMLEntry{},
		NEMLMarker{},
		BNMIEMLEntry{},
		BNMIEMLCode{},
	}
}

// ClassificationATC is an ATC code with its 5 classification levels.
// Records are created by seeding and rarely change after the
// classification is standardized.
type ClassificationATC struct {
	// ID is UUIDv5 generated from the code, or ULID for records without code.
	ID string `gorm:"column:id;type:varchar(36);primary_key;auto_increment:false"`

	// ATCCode is a complete 7-character code. It is optional, but unique
	// when given.
	ATCCode *string `gorm:"column:atc_code;type:varchar(7);unique_index"`

	// AnatomiaCode is the anatomical main group (first level).
	AnatomiaCode *string `gorm:"column:anatomia_code;type:varchar(1)"`

	// TherapeuticsCode is the therapeutic subgroup (second level).
	TherapeuticsCode *string `gorm:"column:therapeutics_code;type:varchar(2)"`

	// PharmacologyCode is the pharmacological subgroup (third level).
	PharmacologyCode *string `gorm:"column:pharmacology_code;type:varchar(1)"`

	// ChemicalCode is the chemical subgroup (fourth level).
	ChemicalCode *string `gorm:"column:chemical_code;type:varchar(1)"`

	// CompoundCode is the chemical substance (fifth level).
	CompoundCode *string `gorm:"column:compound_code;type:varchar(2)"`
}

func (ClassificationATC) TableName() string { return "atc_classifications" }

func (a ClassificationATC) RecordID() string { return a.ID }

func (a ClassificationATC) UniqueKeys() []UniqueKey {
	if a.ATCCode == nil {
		return nil
	}
	return []UniqueKey{{Field: "atc_code", Value: *a.ATCCode}}
}

// OrderKeys puts records without a code after all coded records.
func (a ClassificationATC) OrderKeys() map[Order]string {
	key := "1"
	if a.ATCCode != nil {
		key = "0" + *a.ATCCode
	}
	return map[Order]string{OrderDefault: key, OrderByCode: key}
}

func (ClassificationATC) OrderBy(o Order) string {
	switch o {
	case OrderDefault, OrderByCode:
		return "atc_code IS NULL, atc_code, id"
	}
	return ""
}

// Validate uses the structural ATC pattern.
func (a ClassificationATC) Validate() error {
	return a.ValidateWith(atc.NewValidator(false))
}

// ValidateWith checks the record using the given code validator.
func (a ClassificationATC) ValidateWith(v atc.Validator) error {
	c := checker{entity: "ATC"}
	c.maxLenPtr("atc_code", a.ATCCode, 7)
	if a.ATCCode != nil && !v.Valid(*a.ATCCode) {
		c.add(CodePattern, "atc_code",
			fmt.Sprintf("atc_code %q does not match %s", *a.ATCCode, v.Pattern()))
	}
	c.maxLenPtr("anatomia_code", a.AnatomiaCode, 1)
	c.maxLenPtr("therapeutics_code", a.TherapeuticsCode, 2)
	c.maxLenPtr("pharmacology_code", a.PharmacologyCode, 1)
	c.maxLenPtr("chemical_code", a.ChemicalCode, 1)
	c.maxLenPtr("compound_code", a.CompoundCode, 2)
	return c.err()
}

// Segments returns classification levels of the record.
func (a ClassificationATC) Segments() atc.Segments {
	return atc.Segments{
		Anatomia:     deref(a.AnatomiaCode),
		Therapeutics: deref(a.TherapeuticsCode),
		Pharmacology: deref(a.PharmacologyCode),
		Chemical:     deref(a.ChemicalCode),
		Compound:     deref(a.CompoundCode),
	}
}

func (a ClassificationATC) String() string {
	return deref(a.ATCCode)
}

// ListingATC is a sellable catalog item keyed by an ATC code. It shares
// the code space with ClassificationATC, but has its own uniqueness rules
// and is kept in a separate table.
type ListingATC struct {
	ID string `gorm:"column:id;type:varchar(36);primary_key;auto_increment:false"`

	// Code is unique and required.
	Code string `gorm:"column:code;type:varchar(7);unique_index;not null"`

	// Name is a unique display name.
	Name string `gorm:"column:name;type:varchar(100);unique_index;not null"`

	// Pinyin is a romanized form of the name for search and sorting.
	Pinyin string `gorm:"column:pinyin;type:varchar(50);not null"`

	Brand string `gorm:"column:brand;type:varchar(50)"`

	// Price has two decimal places and is never negative.
	Price decimal.Decimal `gorm:"column:price;type:decimal(9,2);not null"`

	// OldPrice is a price before a promotion.
	OldPrice decimal.Decimal `gorm:"column:old_price;type:decimal(9,2);not null"`

	IsActive bool `gorm:"column:is_active;not null"`

	// SoldAmount is 10000 when not given on creation.
	SoldAmount int `gorm:"column:sold_amount;not null"`

	IsBestseller bool `gorm:"column:is_bestseller;not null"`

	// EndDatetime is the end of a promotion.
	EndDatetime *time.Time `gorm:"column:end_datetime;type:timestamp without time zone"`

	Description string `gorm:"column:description;type:text"`

	MetaKeywords string `gorm:"column:meta_keywords;type:varchar(255)"`

	MetaDescription string `gorm:"column:meta_description;type:varchar(255)"`

	Manufacturer string `gorm:"column:manufacturer;type:varchar(100)"`

	// Highlighted is a promotional text shown with the item.
	Highlighted string `gorm:"column:highlighted;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp without time zone"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp without time zone"`
}

func (ListingATC) TableName() string { return "atc_listings" }

func (l ListingATC) RecordID() string { return l.ID }

func (l ListingATC) UniqueKeys() []UniqueKey {
	return []UniqueKey{
		{Field: "code", Value: l.Code},
		{Field: "name", Value: l.Name},
	}
}

func (l ListingATC) OrderKeys() map[Order]string {
	created := timeKey(l.CreatedAt) + "\x00" + l.Code
	return map[Order]string{
		OrderDefault:   created,
		OrderByCreated: created,
		OrderByCode:    l.Code,
	}
}

func (ListingATC) OrderBy(o Order) string {
	switch o {
	case OrderDefault, OrderByCreated:
		return "created_at, code"
	case OrderByCode:
		return "code"
	}
	return ""
}

func (l ListingATC) Validate() error {
	c := checker{entity: "ATC listing"}
	c.required("code", l.Code)
	c.maxLen("code", l.Code, 7)
	c.required("name", l.Name)
	c.maxLen("name", l.Name, 100)
	c.maxLen("pinyin", l.Pinyin, 50)
	c.maxLen("brand", l.Brand, 50)
	checkPrice(&c, "price", l.Price)
	checkPrice(&c, "old_price", l.OldPrice)
	if l.SoldAmount < 0 {
		c.add(CodeMinValue, "sold_amount", "field 'sold_amount' cannot be negative")
	}
	c.maxLen("meta_keywords", l.MetaKeywords, 255)
	c.maxLen("meta_description", l.MetaDescription, 255)
	c.maxLen("manufacturer", l.Manufacturer, 100)
	return c.err()
}

func (l ListingATC) String() string { return l.Name }

// maxPrice is the first value that does not fit into decimal(9,2).
var maxPrice = decimal.New(1, 7)

func checkPrice(c *checker, field string, p decimal.Decimal) {
	if p.IsNegative() {
		c.add(CodeMinValue, field, fmt.Sprintf("field '%s' cannot be negative", field))
	}
	if !p.Equal(p.Round(2)) {
		c.add(CodeDecimalPlaces, field,
			fmt.Sprintf("field '%s' allows at most 2 decimal places", field))
	}
	if p.Abs().GreaterThanOrEqual(maxPrice) {
		c.add(CodeMaxDigits, field,
			fmt.Sprintf("field '%s' allows at most 9 digits", field))
	}
}

// DrugName keeps the names of a drug. Western drugs commonly have a generic
// name, an English name and a trade name.
type DrugName struct {
	ID string `gorm:"column:id;type:varchar(36);primary_key;auto_increment:false"`

	// ATCCode refers to ClassificationATC.ATCCode. It is used for the display
	// string only, and is not enforced.
	ATCCode string `gorm:"column:atc_code;type:varchar(7);index:drug_names_atc_code"`

	// CADNName is the China Approved Drug Name, the legal generic name of a
	// drug in China. It is mandatory on labels and cannot be a trademark.
	CADNName string `gorm:"column:cadn_name;type:varchar(100);not null"`

	// CADNNameZhHans is the generic name in simplified Chinese.
	CADNNameZhHans string `gorm:"column:cadn_name_zh_hans;type:varchar(100)"`

	// CADNNamePinyin is the pinyin of the generic name.
	CADNNamePinyin string `gorm:"column:cadn_name_pinyin;type:varchar(200);not null"`

	// CADNNamePy is the pinyin abbreviation of the generic name.
	CADNNamePy string `gorm:"column:cadn_name_py;type:varchar(200);not null;index:drug_names_order"`

	// INNName is the International Nonproprietary Name assigned by WHO, or
	// another suitable English name if there is no INN.
	INNName string `gorm:"column:inn_name;type:varchar(100)"`

	// TradeNameEn is a proprietary name approved for a manufacturer. One
	// generic name can have many trade names.
	TradeNameEn string `gorm:"column:trade_name_en;type:varchar(100)"`

	TradeNameZhHans string `gorm:"column:trade_name_zh_hans;type:varchar(100)"`

	TradeNamePinyin string `gorm:"column:trade_name_pinyin;type:varchar(200);not null"`

	TradeNamePy string `gorm:"column:trade_name_py;type:varchar(200);not null"`

	ChemicalNameEn string `gorm:"column:chemical_name_en;type:varchar(100)"`

	ChemicalNameZhHans string `gorm:"column:chemical_name_zh_hans;type:varchar(100)"`

	ChemicalNamePinyin string `gorm:"column:chemical_name_pinyin;type:varchar(200);not null"`

	ChemicalNamePy string `gorm:"column:chemical_name_py;type:varchar(200);not null"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp without time zone"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp without time zone"`
}

func (DrugName) TableName() string { return "drug_names" }

func (d DrugName) RecordID() string { return d.ID }

func (DrugName) UniqueKeys() []UniqueKey { return nil }

func (d DrugName) OrderKeys() map[Order]string {
	return map[Order]string{OrderDefault: d.CADNNamePy + "\x00" + d.CADNName}
}

func (DrugName) OrderBy(o Order) string {
	if o == OrderDefault {
		return "cadn_name_py, cadn_name, id"
	}
	return ""
}

func (d DrugName) Validate() error {
	c := checker{entity: "drug name"}
	c.maxLen("atc_code", d.ATCCode, 7)
	c.required("cadn_name", d.CADNName)
	for _, f := range []struct {
		name string
		val  string
		max  int
	}{
		{"cadn_name", d.CADNName, 100},
		{"cadn_name_zh_hans", d.CADNNameZhHans, 100},
		{"cadn_name_pinyin", d.CADNNamePinyin, 200},
		{"cadn_name_py", d.CADNNamePy, 200},
		{"inn_name", d.INNName, 100},
		{"trade_name_en", d.TradeNameEn, 100},
		{"trade_name_zh_hans", d.TradeNameZhHans, 100},
		{"trade_name_pinyin", d.TradeNamePinyin, 200},
		{"trade_name_py", d.TradeNamePy, 200},
		{"chemical_name_en", d.ChemicalNameEn, 100},
		{"chemical_name_zh_hans", d.ChemicalNameZhHans, 100},
		{"chemical_name_pinyin", d.ChemicalNamePinyin, 200},
		{"chemical_name_py", d.ChemicalNamePy, 200},
	} {
		c.maxLen(f.name, f.val, f.max)
	}
	return c.err()
}

// String concatenates ATC code and the generic name.
func (d DrugName) String() string {
	return d.ATCCode + " : " + d.CADNName
}

// NEMLEntry is an entry of the National Essential Medicine List.
type NEMLEntry struct {
	ID   string `gorm:"column:id;type:varchar(36);primary_key;auto_increment:false"`
	Code string `gorm:"column:code;type:varchar(10);unique_index;not null"`
	Name string `gorm:"column:name;type:varchar(100);unique_index;not null"`
}

func (NEMLEntry) TableName() string { return "neml_entries" }

func (n NEMLEntry) RecordID() string { return n.ID }

func (n NEMLEntry) UniqueKeys() []UniqueKey { return codeName(n.Code, n.Name) }

func (n NEMLEntry) OrderKeys() map[Order]string { return byCode(n.Code) }

func (NEMLEntry) OrderBy(o Order) string { return orderByCode(o) }

func (n NEMLEntry) Validate() error { return checkCodeName("NEML entry", n.Code, n.Name) }

// NEMLMarker is the later variant of the National Essential Medicine List
// table. It has no fields besides identity and marks records through
// external join tables.
type NEMLMarker struct {
	ID string `gorm:"column:id;type:varchar(36);primary_key;auto_increment:false"`
}

func (NEMLMarker) TableName() string { return "neml_markers" }

func (n NEMLMarker) RecordID() string { return n.ID }

func (NEMLMarker) UniqueKeys() []UniqueKey { return nil }

// OrderKeys uses ULID identifiers, they sort by creation time.
func (n NEMLMarker) OrderKeys() map[Order]string {
	return map[Order]string{OrderDefault: n.ID}
}

func (NEMLMarker) OrderBy(o Order) string {
	if o == OrderDefault {
		return "id"
	}
	return ""
}

func (n NEMLMarker) Validate() error { return nil }

// BNMIEMLEntry is an entry of the Basic National Medical Insurance
// Essential Medicine List. The list contains western medicines,
// traditional Chinese patent medicines and herbal pieces.
type BNMIEMLEntry struct {
	ID   string `gorm:"column:id;type:varchar(36);primary_key;auto_increment:false"`
	Code string `gorm:"column:code;type:varchar(10);unique_index;not null"`
	Name string `gorm:"column:name;type:varchar(100);unique_index;not null"`
}

func (BNMIEMLEntry) TableName() string { return "bnmieml_entries" }

func (b BNMIEMLEntry) RecordID() string { return b.ID }

func (b BNMIEMLEntry) UniqueKeys() []UniqueKey { return codeName(b.Code, b.Name) }

func (b BNMIEMLEntry) OrderKeys() map[Order]string { return byCode(b.Code) }

func (BNMIEMLEntry) OrderBy(o Order) string { return orderByCode(o) }

func (b BNMIEMLEntry) Validate() error {
	return checkCodeName("BNMIEML entry", b.Code, b.Name)
}

// BNMIEMLCode is the later variant of the BNMIEML table that keeps only
// the code.
type BNMIEMLCode struct {
	ID   string `gorm:"column:id;type:varchar(36);primary_key;auto_increment:false"`
	Code string `gorm:"column:code;type:varchar(10);unique_index;not null"`
}

func (BNMIEMLCode) TableName() string { return "bnmieml_codes" }

func (b BNMIEMLCode) RecordID() string { return b.ID }

func (b BNMIEMLCode) UniqueKeys() []UniqueKey {
	return []UniqueKey{{Field: "code", Value: b.Code}}
}

func (b BNMIEMLCode) OrderKeys() map[Order]string { return byCode(b.Code) }

func (BNMIEMLCode) OrderBy(o Order) string { return orderByCode(o) }

func (b BNMIEMLCode) Validate() error {
	c := checker{entity: "BNMIEML code"}
	c.required("code", b.Code)
	c.maxLen("code", b.Code, 10)
	return c.err()
}

func codeName(code, name string) []UniqueKey {
	return []UniqueKey{{Field: "code", Value: code}, {Field: "name", Value: name}}
}

func byCode(code string) map[Order]string {
	return map[Order]string{OrderDefault: code, OrderByCode: code}
}

func orderByCode(o Order) string {
	switch o {
	case OrderDefault, OrderByCode:
		return "code"
	}
	return ""
}

func checkCodeName(entity, code, name string) error {
	c := checker{entity: entity}
	c.required("code", code)
	c.maxLen("code", code, 10)
	c.required("name", name)
	c.maxLen("name", name, 100)
	return c.err()
}

// timeKey formats time so that lexical order follows chronological order.
func timeKey(t time.Time) string {
	return t.UTC().Format("20060102150405.000000000")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
