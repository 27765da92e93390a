package model_test

import (
	"errors"
	"strings"
	"time"

	"github.com/gnames/drugref/pkg/ent/atc"
	"github.com/gnames/drugref/pkg/ent/model"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

func vErr(err error) *model.ValidationError {
	var res *model.ValidationError
	Expect(errors.As(err, &res)).To(BeTrue())
	Expect(errors.Is(err, model.ErrValidation)).To(BeTrue())
	return res
}

func listing() model.ListingATC {
	return model.ListingATC{
		ID:         "1",
		Code:       "C03CA01",
		Name:       "Furosemide",
		Price:      decimal.RequireFromString("12.50"),
		SoldAmount: model.DefaultSoldAmount,
	}
}

var _ = Describe("Model", func() {
	Describe("ClassificationATC", func() {
		code := "C03CA01"

		It("accepts records without code", func() {
			Expect(model.ClassificationATC{ID: "1"}.Validate()).To(Succeed())
		})

		It("rejects codes that do not match the pattern", func() {
			bad := "C3"
			err := model.ClassificationATC{ID: "1", ATCCode: &bad}.Validate()
			Expect(vErr(err).Has("atc_code", model.CodePattern)).To(BeTrue())
		})

		It("uses the given validator", func() {
			rec := model.ClassificationATC{ID: "1", ATCCode: &code}
			Expect(rec.ValidateWith(atc.NewValidator(false))).To(Succeed())
			err := rec.ValidateWith(atc.NewValidator(true))
			Expect(vErr(err).Has("atc_code", model.CodePattern)).To(BeTrue())
		})

		It("checks segment lengths", func() {
			long := "003"
			rec := model.ClassificationATC{ID: "1", TherapeuticsCode: &long}
			err := rec.Validate()
			Expect(vErr(err).Has("therapeutics_code", model.CodeMaxLength)).To(BeTrue())
		})

		It("sorts records without code last", func() {
			a := model.ClassificationATC{ID: "1", ATCCode: &code}
			b := model.ClassificationATC{ID: "2"}
			Expect(a.OrderKeys()[model.OrderByCode] <
				b.OrderKeys()[model.OrderByCode]).To(BeTrue())
		})
	})

	Describe("ListingATC", func() {
		It("accepts a correct listing", func() {
			Expect(listing().Validate()).To(Succeed())
		})

		It("requires code and name", func() {
			l := listing()
			l.Code, l.Name = "", ""
			ve := vErr(l.Validate())
			Expect(ve.Has("code", model.CodeRequired)).To(BeTrue())
			Expect(ve.Has("name", model.CodeRequired)).To(BeTrue())
		})

		It("checks lengths in characters", func() {
			l := listing()
			l.Name = strings.Repeat("药", 100)
			Expect(l.Validate()).To(Succeed())
			l.Name += "药"
			Expect(vErr(l.Validate()).Has("name", model.CodeMaxLength)).To(BeTrue())
		})

		It("checks prices", func() {
			l := listing()
			l.Price = decimal.RequireFromString("-1")
			Expect(vErr(l.Validate()).Has("price", model.CodeMinValue)).To(BeTrue())

			l.Price = decimal.RequireFromString("1.005")
			Expect(vErr(l.Validate()).Has("price", model.CodeDecimalPlaces)).To(BeTrue())

			l.Price = decimal.RequireFromString("10000000")
			Expect(vErr(l.Validate()).Has("price", model.CodeMaxDigits)).To(BeTrue())

			l.Price = decimal.RequireFromString("9999999.99")
			Expect(l.Validate()).To(Succeed())
		})

		It("rejects negative sold amount", func() {
			l := listing()
			l.SoldAmount = -1
			Expect(vErr(l.Validate()).Has("sold_amount", model.CodeMinValue)).To(BeTrue())
		})

		It("orders by creation time and by code", func() {
			t := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
			a, b := listing(), listing()
			a.Code, a.CreatedAt = "B01AC06", t.Add(time.Second)
			b.Code, b.CreatedAt = "C03CA01", t
			Expect(b.OrderKeys()[model.OrderByCreated] <
				a.OrderKeys()[model.OrderByCreated]).To(BeTrue())
			Expect(a.OrderKeys()[model.OrderByCode] <
				b.OrderKeys()[model.OrderByCode]).To(BeTrue())
		})
	})

	Describe("DrugName", func() {
		It("requires only the generic name", func() {
			Expect(model.DrugName{ID: "1", CADNName: "Aspirin"}.Validate()).To(Succeed())
			err := model.DrugName{ID: "1"}.Validate()
			Expect(vErr(err).Has("cadn_name", model.CodeRequired)).To(BeTrue())
		})

		It("shows ATC code with the generic name", func() {
			dn := model.DrugName{ATCCode: "N02BA01", CADNName: "Aspirin"}
			Expect(dn.String()).To(Equal("N02BA01 : Aspirin"))
		})
	})

	Describe("medicine lists", func() {
		It("require code and name", func() {
			Expect(model.NEMLEntry{Code: "1", Name: "a"}.Validate()).To(Succeed())
			err := model.BNMIEMLEntry{Code: strings.Repeat("1", 11)}.Validate()
			ve := vErr(err)
			Expect(ve.Has("code", model.CodeMaxLength)).To(BeTrue())
			Expect(ve.Has("name", model.CodeRequired)).To(BeTrue())
			Expect(model.BNMIEMLCode{}.Validate()).ToNot(Succeed())
		})
	})

	Describe("errors", func() {
		It("match sentinels", func() {
			var err error = &model.DuplicateKeyError{Table: "t", Field: "code", Value: "X1"}
			Expect(errors.Is(err, model.ErrDuplicateKey)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("X1"))
			err = &model.NotFoundError{Table: "t", Key: "X1"}
			Expect(errors.Is(err, model.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("labels", func() {
		It("returns labels in English and Chinese", func() {
			Expect(model.EntityLabel("atc_classifications", "en")).To(Equal("ATC code"))
			Expect(model.EntityLabel("atc_classifications", "zh-CN")).
				To(Equal("药品ATC编码"))
		})

		It("returns the key for unknown fields", func() {
			Expect(model.FieldLabel("nothing", "en")).To(Equal("nothing"))
		})
	})
})
