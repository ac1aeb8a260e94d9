package statement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FlashBenefits", func() {
	var (
		clock   *mockTimeSource
		parser  *FlashBenefits
		diags   Diagnostics
		lines   []string
		records []Record
	)

	BeforeEach(func() {
		clock = newMockTimeSource()
		parser, diags = NewFlashBenefits(clock)
	})

	JustBeforeEach(func() {
		records = parser.ParseTextLines(lines)
	})

	It("warns that dates depend on the day of execution", func() {
		Expect(diags).To(HaveLen(1))
		Expect(diags[0]).To(ContainSubstring("2024"))
	})

	It("is registered as flash_benefits", func() {
		Expect(parser.Name()).To(Equal("flash_benefits"))
	})

	When("a transaction spans a description line and an amount line", func() {
		BeforeEach(func() {
			lines = []string{"Cartão Mercado 15/03", "Compra de R$ 45,90 às 14:30"}
		})

		It("parses one record", func() {
			Expect(records).To(HaveLen(1))
		})

		It("keeps the grammar field order", func() {
			Expect(records[0].Names()).To(Equal([]string{"description", "date", "value", "hour"}))
		})

		It("infers the current year", func() {
			Expect(records[0].Get("date")).To(Equal("15/03/2024"))
		})

		It("converts the decimal comma", func() {
			Expect(records[0].Get("value")).To(Equal("45.90"))
		})

		It("drops the leading OCR artifact of the description", func() {
			Expect(records[0].Get("description")).To(Equal("Mercado"))
		})

		It("leaves the missing hour empty", func() {
			Expect(records[0].Get("hour")).To(Equal(""))
		})
	})

	When("the amount has thousands separators and OCR read $ as S", func() {
		BeforeEach(func() {
			lines = []string{"» Posto   Shell  Centro 02/03", "Estorno S 1.234,56 08:15"}
		})

		It("normalizes value and description", func() {
			Expect(records).To(HaveLen(1))
			Expect(records[0].Get("value")).To(Equal("1234.56"))
			Expect(records[0].Get("description")).To(Equal("Posto Shell Centro"))
			Expect(records[0].Get("hour")).To(Equal("08:15"))
		})
	})

	When("there are no lines", func() {
		BeforeEach(func() {
			lines = nil
		})

		It("returns no records", func() {
			Expect(records).To(BeEmpty())
		})
	})

	Describe("Formatter", func() {
		It("replaces relative dates with the clock's day and the day before", func() {
			formatted := parser.Formatter().Format("Extrato\ne Mercado hoje\ne Padaria ontem\ne Loja Fil...\nExtrato")
			Expect(formatted).To(Equal([]string{"e Mercado 15/03", "e Padaria 14/03", "e Loja Fil"}))
		})

		It("crosses month boundaries for yesterday", func() {
			clock.now = clock.now.AddDate(0, 0, -14) // March 1st
			p, _ := NewFlashBenefits(clock)
			Expect(p.Formatter().Format("e Loja ontem")).To(Equal([]string{"e Loja 29/02"}))
		})
	})
})
