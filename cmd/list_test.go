package cmd

import (
	"bytes"
	"context"
	"strings"

	"github.com/gnames/drugref/internal/ent/store"
	"github.com/gnames/drugref/internal/io/kvio"
	drugref "github.com/gnames/drugref/pkg"
	"github.com/gnames/drugref/pkg/config"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("list", func() {
	var (
		st  store.Store
		dr  drugref.DrugRef
		ctx = context.Background()
	)

	BeforeEach(func() {
		var err error
		st, err = kvio.New("")
		Expect(err).ToNot(HaveOccurred())
		Expect(st.Open()).To(Succeed())
		dr = drugref.New(config.New(), st)
	})

	AfterEach(func() {
		Expect(st.Close()).To(Succeed())
	})

	lines := func(table, format string) []string {
		var buf bytes.Buffer
		w := newWriter(&buf, format, "en")
		Expect(listTable(ctx, dr, table, false, w)).To(Succeed())
		return strings.Split(strings.TrimSpace(buf.String()), "\n")
	}

	It("prints NEML markers", func() {
		m, err := dr.CreateNEMLMarker(ctx)
		Expect(err).ToNot(HaveOccurred())
		res := lines("neml-markers", "csv")
		Expect(res).To(HaveLen(2))
		Expect(res[1]).To(Equal(m.ID))
	})

	It("prints code-only BNMIEML records", func() {
		for _, c := range []string{"B2", "B1"} {
			_, err := dr.CreateBNMIEMLCode(ctx, c)
			Expect(err).ToNot(HaveOccurred())
		}
		Expect(lines("bnmieml-codes", "csv")[1:]).To(Equal([]string{"B1", "B2"}))

		res := lines("bnmieml-codes", "json")
		Expect(res).To(HaveLen(2))
		Expect(res[0]).To(ContainSubstring(`"B1"`))
	})

	It("rejects unknown tables", func() {
		var buf bytes.Buffer
		err := listTable(ctx, dr, "markers", false, newWriter(&buf, "csv", "en"))
		Expect(err).To(HaveOccurred())
	})
})
