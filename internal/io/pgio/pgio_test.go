package pgio_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gnames/drugref/internal/ent/store"
	"github.com/gnames/drugref/internal/io/pgio"
	"github.com/gnames/drugref/pkg/ent/model"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Pgio", func() {
	var st store.Store
	ctx := context.Background()

	BeforeEach(func() {
		st = nil
		if ctr == nil {
			Skip("set " + pgEnv + " to run PostgreSQL tests")
		}
		st = pgio.New(pgCfg)
		Expect(st.Open()).To(Succeed())
		Expect(st.Reset()).To(Succeed())
		Expect(st.Migrate()).To(Succeed())
	})

	AfterEach(func() {
		if st != nil {
			Expect(st.Close()).To(Succeed())
		}
	})

	listing := func(id, code string) model.ListingATC {
		t := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		return model.ListingATC{
			ID:         id,
			Code:       code,
			Name:       "name " + code,
			Price:      decimal.RequireFromString("9.90"),
			SoldAmount: model.DefaultSoldAmount,
			CreatedAt:  t,
			UpdatedAt:  t,
		}
	}

	It("saves and reads a listing", func() {
		l := listing("1", "C03CA01")
		Expect(st.Insert(ctx, l)).To(Succeed())

		id, err := st.LookupUnique(ctx, l.TableName(), "code", "C03CA01")
		Expect(err).ToNot(HaveOccurred())
		var res model.ListingATC
		Expect(st.Get(ctx, l.TableName(), id, &res)).To(Succeed())
		Expect(res.Price.Equal(l.Price)).To(BeTrue())
		Expect(res.SoldAmount).To(Equal(10000))
	})

	It("maps unique violations", func() {
		Expect(st.Insert(ctx, listing("1", "C03CA01"))).To(Succeed())
		l := listing("2", "C03CA01")
		l.Name = "other"
		err := st.Insert(ctx, l)
		var dke *model.DuplicateKeyError
		Expect(errors.As(err, &dke)).To(BeTrue())
		Expect(dke.Field).To(Equal("code"))
		Expect(dke.Value).To(Equal("C03CA01"))
	})

	It("lets only one of concurrent inserts win", func() {
		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := model.BNMIEMLEntry{
					ID:   fmt.Sprintf("%d", i),
					Code: "X1",
					Name: fmt.Sprintf("name %d", i),
				}
				errs[i] = st.Insert(ctx, rec)
			}()
		}
		wg.Wait()
		var dup int
		for _, err := range errs {
			if errors.Is(err, model.ErrDuplicateKey) {
				dup++
			}
		}
		Expect(dup).To(Equal(len(errs) - 1))
	})

	It("updates, scans and deletes rows", func() {
		for i, c := range []string{"C01AA01", "A02AA01", "B05AA01"} {
			Expect(st.Insert(ctx, listing(fmt.Sprintf("%d", i), c))).To(Succeed())
		}
		l := listing("0", "D01AA01")
		l.IsActive = true
		Expect(st.Update(ctx, l)).To(Succeed())

		var codes []string
		for dec, err := range st.Scan(ctx, model.ListingATC{}, model.OrderByCode) {
			Expect(err).ToNot(HaveOccurred())
			var rec model.ListingATC
			Expect(dec(&rec)).To(Succeed())
			codes = append(codes, rec.Code)
		}
		Expect(codes).To(Equal([]string{"A02AA01", "B05AA01", "D01AA01"}))

		Expect(st.Delete(ctx, model.ListingATC{}, "0")).To(Succeed())
		err := st.Delete(ctx, model.ListingATC{}, "0")
		Expect(errors.Is(err, model.ErrNotFound)).To(BeTrue())
		err = st.Update(ctx, l)
		Expect(errors.Is(err, model.ErrNotFound)).To(BeTrue())
	})

	It("loads batches with COPY", func() {
		bl, ok := st.(store.BulkLoader)
		Expect(ok).To(BeTrue())
		recs := []model.Record{
			model.NEMLEntry{ID: "1", Code: "X1", Name: "a"},
			model.NEMLEntry{ID: "2", Code: "X2", Name: "b"},
		}
		n, err := bl.BulkInsert(ctx, recs)
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(int64(2)))

		_, err = bl.BulkInsert(ctx, recs[:1])
		Expect(errors.Is(err, model.ErrDuplicateKey)).To(BeTrue())
	})
})
