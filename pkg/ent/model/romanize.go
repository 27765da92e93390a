package model

import (
	"unicode/utf8"

	"github.com/gnames/drugref/internal/str"
)

// Romanize fills an empty Pinyin from the name. Latin letters and digits of
// the name are kept, as in "维生素C". A generated value that does not fit
// the column is dropped, never truncated.
func (l *ListingATC) Romanize() {
	if l.Pinyin != "" {
		return
	}
	full, _ := str.Romanize(l.Name)
	l.Pinyin = fit(full, 50)
}

// Romanize fills empty pinyin and pinyin abbreviation fields from the
// simplified Chinese names.
func (d *DrugName) Romanize() {
	romanize(d.CADNNameZhHans, &d.CADNNamePinyin, &d.CADNNamePy)
	romanize(d.TradeNameZhHans, &d.TradeNamePinyin, &d.TradeNamePy)
	romanize(d.ChemicalNameZhHans, &d.ChemicalNamePinyin, &d.ChemicalNamePy)
}

func romanize(hans string, pinyin, py *string) {
	if hans == "" || (*pinyin != "" && *py != "") {
		return
	}
	full, abbr := str.Romanize(hans)
	if *pinyin == "" {
		*pinyin = fit(full, 200)
	}
	if *py == "" {
		*py = fit(abbr, 200)
	}
}

func fit(s string, n int) string {
	if utf8.RuneCountInString(s) > n {
		return ""
	}
	return s
}
