package drugref_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/gnames/drugref/internal/ent/store"
	"github.com/gnames/drugref/internal/io/kvio"
	drugref "github.com/gnames/drugref/pkg"
	"github.com/gnames/drugref/pkg/config"
	"github.com/gnames/drugref/pkg/ent/atc"
	"github.com/gnames/drugref/pkg/ent/model"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

// clock returns time that moves one second forward on every call.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func collect[T any](seq iter.Seq2[T, error]) []T {
	var res []T
	for v, err := range seq {
		Expect(err).ToNot(HaveOccurred())
		res = append(res, v)
	}
	return res
}

func vErr(err error) *model.ValidationError {
	var res *model.ValidationError
	Expect(errors.As(err, &res)).To(BeTrue())
	return res
}

var _ = Describe("DrugRef", func() {
	var (
		st  store.Store
		dr  drugref.DrugRef
		ctx = context.Background()
	)

	newDrugRef := func(opts ...config.Option) drugref.DrugRef {
		c := &clock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
		opts = append([]config.Option{config.OptClock(c.now)}, opts...)
		return drugref.New(config.New(opts...), st)
	}

	BeforeEach(func() {
		var err error
		st, err = kvio.New("")
		Expect(err).ToNot(HaveOccurred())
		Expect(st.Open()).To(Succeed())
		dr = newDrugRef()
	})

	AfterEach(func() {
		Expect(st.Close()).To(Succeed())
	})

	Describe("ATC classification", func() {
		It("saves a code with its segments", func() {
			code := "c03ca01"
			rec, err := dr.CreateATC(ctx, &code, atc.Segments{})
			Expect(err).ToNot(HaveOccurred())
			Expect(rec.String()).To(Equal("C03CA01"))
			Expect(rec.Segments().Code()).To(Equal("C03CA01"))

			res, err := dr.GetATC(ctx, "C03CA01")
			Expect(err).ToNot(HaveOccurred())
			Expect(res).To(Equal(rec))
		})

		It("rejects malformed codes", func() {
			code := "C3"
			_, err := dr.CreateATC(ctx, &code, atc.Segments{})
			Expect(vErr(err).Has("atc_code", model.CodePattern)).To(BeTrue())
			Expect(collect(dr.ListATC(ctx))).To(BeEmpty())
		})

		It("rejects segments that disagree with the code", func() {
			code := "C03CA01"
			seg := atc.Segments{Anatomia: "N"}
			_, err := dr.CreateATC(ctx, &code, seg)
			Expect(vErr(err).Has("atc_code", model.CodeMismatch)).To(BeTrue())
		})

		It("allows records without code", func() {
			_, err := dr.CreateATC(ctx, nil, atc.Segments{Anatomia: "N"})
			Expect(err).ToNot(HaveOccurred())
			_, err = dr.CreateATC(ctx, nil, atc.Segments{Anatomia: "C"})
			Expect(err).ToNot(HaveOccurred())
			code := "A01AB02"
			_, err = dr.CreateATC(ctx, &code, atc.Segments{})
			Expect(err).ToNot(HaveOccurred())

			recs := collect(dr.ListATC(ctx))
			Expect(recs).To(HaveLen(3))
			Expect(recs[0].String()).To(Equal("A01AB02"))
			Expect(recs[2].ATCCode).To(BeNil())
		})

		It("rejects duplicate codes", func() {
			code := "C03CA01"
			_, err := dr.CreateATC(ctx, &code, atc.Segments{})
			Expect(err).ToNot(HaveOccurred())
			_, err = dr.CreateATC(ctx, &code, atc.Segments{})
			Expect(errors.Is(err, model.ErrDuplicateKey)).To(BeTrue())
		})

		It("deletes codes", func() {
			code := "C03CA01"
			_, err := dr.CreateATC(ctx, &code, atc.Segments{})
			Expect(err).ToNot(HaveOccurred())
			Expect(dr.DeleteATC(ctx, "c03ca01")).To(Succeed())
			_, err = dr.GetATC(ctx, code)
			Expect(errors.Is(err, model.ErrNotFound)).To(BeTrue())
		})

		It("validates with the legacy pattern when configured", func() {
			dr = newDrugRef(config.OptLegacyATCPattern(true))
			Expect(dr.ValidateATC("C03CA01")).To(BeFalse())
			code := "a222"
			rec, err := dr.CreateATC(ctx, &code, atc.Segments{})
			Expect(err).ToNot(HaveOccurred())
			Expect(rec.String()).To(Equal("a222"))
			Expect(rec.Segments().IsZero()).To(BeTrue())
		})
	})

	Describe("ATC listing", func() {
		inp := func(code, name string) model.ListingInput {
			return model.ListingInput{
				Code:  code,
				Name:  name,
				Price: decimal.RequireFromString("9.90"),
			}
		}

		It("uses default sold amount", func() {
			l, err := dr.CreateListing(ctx, inp("C03CA01", "Furosemide"))
			Expect(err).ToNot(HaveOccurred())
			Expect(l.SoldAmount).To(Equal(10000))
			Expect(l.IsActive).To(BeFalse())
			Expect(l.Pinyin).To(BeEmpty())

			n := 5
			in := inp("C03CA02", "Bumetanide")
			in.SoldAmount = &n
			l, err = dr.CreateListing(ctx, in)
			Expect(err).ToNot(HaveOccurred())
			Expect(l.SoldAmount).To(Equal(5))
		})

		It("keeps codes unique under concurrency", func() {
			var wg sync.WaitGroup
			errs := make([]error, 10)
			for i := range errs {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, errs[i] = dr.CreateListing(ctx,
						inp("C03CA01", fmt.Sprintf("Furosemide %d", i)))
				}()
			}
			wg.Wait()

			var dup int
			for _, err := range errs {
				if err != nil {
					Expect(errors.Is(err, model.ErrDuplicateKey)).To(BeTrue())
					dup++
				}
			}
			Expect(dup).To(Equal(9))
			Expect(collect(dr.ListListings(ctx, model.OrderDefault))).To(HaveLen(1))
		})

		It("lists by creation time or by code", func() {
			for _, c := range []string{"C01AA01", "A02AA01", "B05AA01"} {
				_, err := dr.CreateListing(ctx, inp(c, "name "+c))
				Expect(err).ToNot(HaveOccurred())
			}
			var created, coded []string
			for _, l := range collect(dr.ListListings(ctx, model.OrderByCreated)) {
				created = append(created, l.Code)
			}
			for _, l := range collect(dr.ListListings(ctx, model.OrderByCode)) {
				coded = append(coded, l.Code)
			}
			Expect(created).To(Equal([]string{"C01AA01", "A02AA01", "B05AA01"}))
			Expect(coded).To(Equal([]string{"A02AA01", "B05AA01", "C01AA01"}))
		})

		It("restarts a listing", func() {
			_, err := dr.CreateListing(ctx, inp("C01AA01", "a"))
			Expect(err).ToNot(HaveOccurred())
			seq := dr.ListListings(ctx, model.OrderDefault)
			Expect(collect(seq)).To(HaveLen(1))
			_, err = dr.CreateListing(ctx, inp("C01AA02", "b"))
			Expect(err).ToNot(HaveOccurred())
			Expect(collect(seq)).To(HaveLen(2))
		})

		It("rejects invalid prices without saving", func() {
			in := inp("C01AA01", "a")
			in.Price = decimal.RequireFromString("-0.01")
			_, err := dr.CreateListing(ctx, in)
			Expect(vErr(err).Has("price", model.CodeMinValue)).To(BeTrue())
			_, err = dr.GetListing(ctx, "C01AA01")
			Expect(errors.Is(err, model.ErrNotFound)).To(BeTrue())
		})

		It("updates a listing", func() {
			l, err := dr.CreateListing(ctx, inp("C01AA01", "a"))
			Expect(err).ToNot(HaveOccurred())
			l.Price = decimal.RequireFromString("1.50")
			l.CreatedAt = time.Time{}
			upd, err := dr.UpdateListing(ctx, l)
			Expect(err).ToNot(HaveOccurred())
			Expect(upd.UpdatedAt.After(upd.CreatedAt)).To(BeTrue())

			res, err := dr.GetListing(ctx, "C01AA01")
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Price.String()).To(Equal("1.5"))
			Expect(res.CreatedAt.IsZero()).To(BeFalse())

			Expect(dr.DeleteListing(ctx, "C01AA01")).To(Succeed())
			_, err = dr.UpdateListing(ctx, l)
			Expect(errors.Is(err, model.ErrNotFound)).To(BeTrue())
		})

		It("frees the old code when a code changes", func() {
			l, err := dr.CreateListing(ctx, inp("C01AA01", "a"))
			Expect(err).ToNot(HaveOccurred())
			l.Code = "C01AA02"
			_, err = dr.UpdateListing(ctx, l)
			Expect(err).ToNot(HaveOccurred())

			n, err := dr.CreateListing(ctx, inp("C01AA01", "b"))
			Expect(err).ToNot(HaveOccurred())
			Expect(n.ID).ToNot(Equal(l.ID))

			res, err := dr.GetListing(ctx, "C01AA01")
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Name).To(Equal("b"))
			res, err = dr.GetListing(ctx, "C01AA02")
			Expect(err).ToNot(HaveOccurred())
			Expect(res.ID).To(Equal(l.ID))
			Expect(collect(dr.ListListings(ctx, model.OrderByCode))).To(HaveLen(2))
		})

		It("fills pinyin when romanization is on", func() {
			dr = newDrugRef(config.OptRomanize(true))
			l, err := dr.CreateListing(ctx, inp("N02BA01", "阿司匹林"))
			Expect(err).ToNot(HaveOccurred())
			Expect(l.Pinyin).To(Equal("asipilin"))
		})
	})

	Describe("drug names", func() {
		It("saves all names", func() {
			in := model.DrugNameInput{
				ATCCode:            "N02BA01",
				CADNName:           "Aspirin",
				CADNNameZhHans:     "阿司匹林",
				CADNNamePinyin:     "asipilin",
				CADNNamePy:         "aspl",
				INNName:            "Acetylsalicylic acid",
				TradeNameEn:        "Bayer Aspirin",
				TradeNameZhHans:    "拜阿司匹灵",
				TradeNamePinyin:    "baiasipiling",
				TradeNamePy:        "baspl",
				ChemicalNameEn:     "2-acetoxybenzoic acid",
				ChemicalNameZhHans: "乙酰水杨酸",
				ChemicalNamePinyin: "yixianshuiyangsuan",
				ChemicalNamePy:     "yxsys",
			}
			dn, err := dr.CreateDrugName(ctx, in)
			Expect(err).ToNot(HaveOccurred())
			Expect(dn.String()).To(Equal("N02BA01 : Aspirin"))

			res, err := dr.GetDrugName(ctx, dn.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.TradeNamePy).To(Equal("baspl"))
			Expect(res.ChemicalNameZhHans).To(Equal("乙酰水杨酸"))
			Expect(res.INNName).To(Equal("Acetylsalicylic acid"))
			Expect(res.CreatedAt.Equal(dn.CreatedAt)).To(BeTrue())
		})

		It("requires the generic name only", func() {
			_, err := dr.CreateDrugName(ctx, model.DrugNameInput{INNName: "x"})
			Expect(vErr(err).Has("cadn_name", model.CodeRequired)).To(BeTrue())
			_, err = dr.CreateDrugName(ctx, model.DrugNameInput{CADNName: "x"})
			Expect(err).ToNot(HaveOccurred())
		})

		It("keeps other names empty when only the generic name is given", func() {
			dn, err := dr.CreateDrugName(ctx, model.DrugNameInput{
				CADNName:       "Aspirin",
				CADNNameZhHans: "阿司匹林",
				CADNNamePinyin: "asipilin",
				CADNNamePy:     "aspl",
			})
			Expect(err).ToNot(HaveOccurred())

			res, err := dr.GetDrugName(ctx, dn.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(res).To(Equal(dn))
			for _, v := range []string{
				res.ATCCode, res.INNName,
				res.TradeNameEn, res.TradeNameZhHans, res.TradeNamePinyin, res.TradeNamePy,
				res.ChemicalNameEn, res.ChemicalNameZhHans, res.ChemicalNamePinyin,
				res.ChemicalNamePy,
			} {
				Expect(v).To(BeEmpty())
			}
		})

		It("allows duplicates and sorts by abbreviation", func() {
			for _, v := range [][2]string{{"Ibuprofen", "blf"}, {"Aspirin", "aspl"}, {"Aspirin", "aspl"}} {
				_, err := dr.CreateDrugName(ctx,
					model.DrugNameInput{CADNName: v[0], CADNNamePy: v[1]})
				Expect(err).ToNot(HaveOccurred())
			}
			var names []string
			for _, dn := range collect(dr.ListDrugNames(ctx)) {
				names = append(names, dn.CADNName)
			}
			Expect(names).To(Equal([]string{"Aspirin", "Aspirin", "Ibuprofen"}))
		})

		It("romanizes Chinese names when configured", func() {
			dr = newDrugRef(config.OptRomanize(true))
			dn, err := dr.CreateDrugName(ctx, model.DrugNameInput{
				CADNName:       "Aspirin",
				CADNNameZhHans: "阿司匹林",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(dn.CADNNamePinyin).To(Equal("asipilin"))
			Expect(dn.CADNNamePy).To(Equal("aspl"))
			Expect(dn.TradeNamePinyin).To(BeEmpty())
		})

		It("renames a drug", func() {
			dn, err := dr.CreateDrugName(ctx, model.DrugNameInput{CADNName: "Old"})
			Expect(err).ToNot(HaveOccurred())
			res, err := dr.RenameDrug(ctx, dn.ID, model.DrugNameInput{CADNName: "New"})
			Expect(err).ToNot(HaveOccurred())
			Expect(res.CreatedAt.Equal(dn.CreatedAt)).To(BeTrue())
			Expect(res.UpdatedAt.After(dn.UpdatedAt)).To(BeTrue())

			Expect(dr.DeleteDrugName(ctx, dn.ID)).To(Succeed())
			_, err = dr.GetDrugName(ctx, dn.ID)
			Expect(errors.Is(err, model.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("medicine lists", func() {
		It("keeps NEML codes unique", func() {
			_, err := dr.CreateNEML(ctx, "X1", "Aspirin")
			Expect(err).ToNot(HaveOccurred())
			_, err = dr.CreateNEML(ctx, "X1", "Ibuprofen")
			Expect(errors.Is(err, model.ErrDuplicateKey)).To(BeTrue())

			e, err := dr.GetNEML(ctx, "X1")
			Expect(err).ToNot(HaveOccurred())
			Expect(e.Name).To(Equal("Aspirin"))
			Expect(dr.DeleteNEML(ctx, "X1")).To(Succeed())
			Expect(collect(dr.ListNEML(ctx))).To(BeEmpty())
		})

		It("keeps BNMIEML codes unique", func() {
			_, err := dr.CreateBNMIEML(ctx, "X1", "Aspirin")
			Expect(err).ToNot(HaveOccurred())
			_, err = dr.CreateBNMIEML(ctx, "X1", "Ibuprofen")
			var dke *model.DuplicateKeyError
			Expect(errors.As(err, &dke)).To(BeTrue())
			Expect(dke.Field).To(Equal("code"))

			_, err = dr.CreateBNMIEML(ctx, "A1", "Ibuprofen")
			Expect(err).ToNot(HaveOccurred())
			var cs []string
			for _, e := range collect(dr.ListBNMIEML(ctx)) {
				cs = append(cs, e.Code)
			}
			Expect(cs).To(Equal([]string{"A1", "X1"}))
			Expect(dr.DeleteBNMIEML(ctx, "A1")).To(Succeed())
			_, err = dr.GetBNMIEML(ctx, "A1")
			Expect(errors.Is(err, model.ErrNotFound)).To(BeTrue())
		})

		It("keeps code-only BNMIEML records", func() {
			_, err := dr.CreateBNMIEMLCode(ctx, "X1")
			Expect(err).ToNot(HaveOccurred())
			_, err = dr.CreateBNMIEMLCode(ctx, "X1")
			Expect(errors.Is(err, model.ErrDuplicateKey)).To(BeTrue())
			c, err := dr.GetBNMIEMLCode(ctx, "X1")
			Expect(err).ToNot(HaveOccurred())
			Expect(c.Code).To(Equal("X1"))
			Expect(collect(dr.ListBNMIEMLCodes(ctx))).To(HaveLen(1))
			Expect(dr.DeleteBNMIEMLCode(ctx, "X1")).To(Succeed())
		})

		It("creates markers in order", func() {
			var ids []string
			for range 3 {
				m, err := dr.CreateNEMLMarker(ctx)
				Expect(err).ToNot(HaveOccurred())
				ids = append(ids, m.ID)
			}
			var res []string
			for _, m := range collect(dr.ListNEMLMarkers(ctx)) {
				res = append(res, m.ID)
			}
			Expect(res).To(Equal(ids))

			m, err := dr.GetNEMLMarker(ctx, ids[1])
			Expect(err).ToNot(HaveOccurred())
			Expect(m.ID).To(Equal(ids[1]))
			Expect(dr.DeleteNEMLMarker(ctx, ids[1])).To(Succeed())
			Expect(collect(dr.ListNEMLMarkers(ctx))).To(HaveLen(2))
		})
	})
})
