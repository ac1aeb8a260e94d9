package statement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("XPCardNotifications", func() {
	var (
		parser  *XPCardNotifications
		diags   Diagnostics
		lines   []string
		records []Record
	)

	BeforeEach(func() {
		parser, diags = NewXPCardNotifications(newMockTimeSource())
	})

	JustBeforeEach(func() {
		records = parser.ParseTextLines(lines)
	})

	It("warns that it is unreliable", func() {
		Expect(diags).To(ConsistOf(ContainSubstring("unreliable")))
	})

	When("a notification has a compact date", func() {
		BeforeEach(func() {
			lines = []string{"Cartão XP 1503\nCompra de R$ 45,90 APROVADA em MERCADO via cartão final 1234"}
		})

		It("rebuilds the date with the current year", func() {
			Expect(records).To(HaveLen(1))
			Expect(records[0].Names()).To(Equal([]string{"date", "value", "description"}))
			Expect(records[0].Get("date")).To(Equal("15/03/2024"))
			Expect(records[0].Get("value")).To(Equal("45.90"))
			Expect(records[0].Get("description")).To(Equal("MERCADO"))
		})
	})

	When("the description wraps to a second line", func() {
		BeforeEach(func() {
			lines = []string{"Cartão XP 02/03\nCompra de R$ 1.050,00 APROVADA em LOJA\nCENTRO via cartão final 9"}
		})

		It("joins it with a space", func() {
			Expect(records).To(HaveLen(1))
			Expect(records[0].Get("date")).To(Equal("02/03/2024"))
			Expect(records[0].Get("value")).To(Equal("1050.00"))
			Expect(records[0].Get("description")).To(Equal("LOJA CENTRO"))
		})
	})

	When("notifications come from several screenshots", func() {
		BeforeEach(func() {
			lines = []string{
				"Cartão XP 1503\nCompra de R$ 10,00 APROVADA em A1 via cartão",
				"Cartão XP 1403\nCompra de R$ 20,00 APROVADA em B2 via cartão",
			}
		})

		It("scans each one separately in order", func() {
			Expect(records).To(HaveLen(2))
			Expect(records[0].Get("description")).To(Equal("A1"))
			Expect(records[1].Get("description")).To(Equal("B2"))
		})
	})

	Describe("Formatter", func() {
		It("keeps the screenshot as a single line", func() {
			formatted := parser.Formatter().Format("Cartão XP 1503\n\nCompra de R$ 10,00")
			Expect(formatted).To(Equal([]string{"Cartão XP 1503\nCompra de R$ 10,00"}))
		})
	})
})
