package statement

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/marcelomendoncasoares/image2csv/internal/extract"
	"github.com/marcelomendoncasoares/image2csv/internal/fixture"
)

// The sample folders hold the OCR transcripts of real screenshots, so the
// scanner only has to echo the file content.
var _ = Describe("Sample screenshots", func() {
	var (
		clock     *mockTimeSource
		extractor *extract.Extractor
	)

	BeforeEach(func() {
		clock = newMockTimeSource()
		extractor = extract.NewExtractor(&mockScanner{}, extract.Config{Extensions: []string{"txt"}, Workers: 1})
	})

	DescribeTable("parse as expected",
		func(name string, rows int, partialDiff float64) {
			dir := filepath.Join("testdata", name)
			want, err := fixture.Load(dir, clock)
			Expect(err).NotTo(HaveOccurred())

			parser, _, err := New(name, clock)
			Expect(err).NotTo(HaveOccurred())

			table, err := NewPipeline(parser, extractor, dir).Table(context.Background(), false)
			Expect(err).NotTo(HaveOccurred())
			Expect(table.Len()).To(Equal(rows))

			report, err := want.Compare(table)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.PartialDiffPercent).To(Equal(partialDiff))
		},
		Entry("flash benefits", FlashBenefitsName, 4, 25.0),
		Entry("xp card notifications", XPCardNotificationsName, 2, 0.0),
	)

	It("drops the transaction repeated across flash screenshots", func() {
		parser, _, err := New(FlashBenefitsName, clock)
		Expect(err).NotTo(HaveOccurred())

		table, err := NewPipeline(parser, extractor, filepath.Join("testdata", FlashBenefitsName)).Table(context.Background(), true)
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Len()).To(Equal(3))
	})

	It("finds nothing with the wrong parser", func() {
		parser, _, err := New(XPCardNotificationsName, clock)
		Expect(err).NotTo(HaveOccurred())

		_, err = NewPipeline(parser, extractor, filepath.Join("testdata", FlashBenefitsName)).Records(context.Background())
		Expect(err).To(MatchError(ErrEmptyResults))
	})
})
