package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func statementTable() *Table {
	return &Table{
		Columns: []string{"description", "date", "value", "hour"},
		Rows: [][]string{
			{"Supermercado Bom Preço", "15/03/2024", "45.90", "14:30"},
			{`Bar "do Zé"`, "14/03/2024", "1234.56", ""},
			{"Padaria, Pão Quente", "14/03/2024", "12.00", "18:22"},
		},
	}
}

var _ = Describe("WriteDelimited", func() {
	var (
		table *Table
		opts  Options
		buf   bytes.Buffer
		err   error
	)

	BeforeEach(func() {
		table = statementTable()
		opts = Options{Separator: ",", Encoding: "utf-8"}
		buf.Reset()
	})

	JustBeforeEach(func() {
		err = WriteDelimited(&buf, table, opts)
	})

	It("quotes every field and writes no index column", func() {
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(Equal(strings.Join([]string{
			`"description","date","value","hour"`,
			`"Supermercado Bom Preço","15/03/2024","45.90","14:30"`,
			`"Bar ""do Zé""","14/03/2024","1234.56",""`,
			`"Padaria, Pão Quente","14/03/2024","12.00","18:22"`,
		}, "\n") + "\n"))
	})

	When("a semicolon separator is used", func() {
		BeforeEach(func() {
			opts.Separator = ";"
		})

		It("separates fields with it", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.SplitN(buf.String(), "\n", 2)[0]).To(Equal(`"description";"date";"value";"hour"`))
		})
	})

	When("encoding as latin1", func() {
		BeforeEach(func() {
			opts.Encoding = "latin1"
		})

		It("writes single byte characters", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.Bytes()).To(ContainSubstring("Pre\xe7o"))
			Expect(buf.Bytes()).NotTo(ContainSubstring("Preço"))
		})
	})

	When("a character cannot be represented in the encoding", func() {
		BeforeEach(func() {
			opts.Encoding = "latin1"
			table.Rows[0][0] = "Cashback 🎉"
		})

		It("returns an error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the separator is longer than one character", func() {
		BeforeEach(func() {
			opts.Separator = "::"
		})

		It("returns an error", func() {
			Expect(err).To(MatchError(ContainSubstring("single character")))
		})
	})

	When("the encoding is unknown", func() {
		BeforeEach(func() {
			opts.Encoding = "klingon"
		})

		It("returns an error", func() {
			Expect(err).To(MatchError(`unknown encoding "klingon"`))
		})
	})
})

var _ = Describe("ResolveEncoding", func() {
	DescribeTable("resolves common names",
		func(name string) {
			enc, err := ResolveEncoding(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(enc).NotTo(BeNil())
		},
		Entry("default", ""),
		Entry("latin1", "latin1"),
		Entry("ISO-8859-1", "ISO-8859-1"),
		Entry("utf8", "utf8"),
		Entry("windows-1252", "windows-1252"),
		Entry("cp1252", "cp1252"),
	)
})

var _ = Describe("ReadDelimited", func() {
	DescribeTable("round trips",
		func(opts Options) {
			var buf bytes.Buffer
			Expect(WriteDelimited(&buf, statementTable(), opts)).To(Succeed())

			read, err := ReadDelimited(&buf, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(read.Columns).To(Equal(statementTable().Columns))
			Expect(read.Rows).To(Equal(statementTable().Rows))
		},
		Entry("default options", DefaultOptions()),
		Entry("utf-8 and semicolons", Options{Separator: ";", Encoding: "utf-8"}),
		Entry("tabs", Options{Separator: "\t", Encoding: "cp1252"}),
	)

	It("returns an empty table for empty input", func() {
		read, err := ReadDelimited(strings.NewReader(""), DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		Expect(read.Len()).To(BeZero())
	})
})

var _ = Describe("files", func() {
	var (
		dir   string
		table *Table
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		table = statementTable()
	})

	Describe("WriteFile", func() {
		It("writes delimited text", func() {
			path := filepath.Join(dir, "out.csv")
			Expect(WriteFile(path, table, DefaultOptions())).To(Succeed())

			read, err := ReadFile(path, DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(read.Equal(table)).To(BeTrue())
		})

		It("writes a workbook for .xlsx paths", func() {
			path := filepath.Join(dir, "out.xlsx")
			Expect(WriteFile(path, table, DefaultOptions())).To(Succeed())

			read, err := ReadFile(path, DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(read.Equal(table)).To(BeTrue())
		})

		It("creates new files readable by everyone", func() {
			path := filepath.Join(dir, "out.csv")
			Expect(WriteFile(path, table, DefaultOptions())).To(Succeed())

			info, err := os.Stat(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0644)))
		})

		It("keeps the mode of the file it replaces", func() {
			path := filepath.Join(dir, "out.csv")
			Expect(os.WriteFile(path, []byte("old"), 0600)).To(Succeed())
			Expect(os.Chmod(path, 0600)).To(Succeed())

			Expect(WriteFile(path, table, DefaultOptions())).To(Succeed())
			Expect(AppendFile(path, table, DefaultOptions(), false)).To(Succeed())

			info, err := os.Stat(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))
		})

		It("leaves no temporary files behind", func() {
			Expect(WriteFile(filepath.Join(dir, "out.csv"), table, DefaultOptions())).To(Succeed())
			entries, err := os.ReadDir(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})
	})

	Describe("AppendFile", func() {
		var path string

		BeforeEach(func() {
			path = filepath.Join(dir, "out.csv")
		})

		It("creates a missing file", func() {
			Expect(AppendFile(path, table, DefaultOptions(), false)).To(Succeed())
			read, err := ReadFile(path, DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(read.Len()).To(Equal(3))
		})

		It("adds rows after the existing ones", func() {
			Expect(WriteFile(path, table, DefaultOptions())).To(Succeed())
			Expect(AppendFile(path, table, DefaultOptions(), false)).To(Succeed())
			read, err := ReadFile(path, DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(read.Len()).To(Equal(6))
		})

		It("drops duplicates across old and new rows", func() {
			Expect(WriteFile(path, table, DefaultOptions())).To(Succeed())
			Expect(AppendFile(path, table, DefaultOptions(), true)).To(Succeed())
			read, err := ReadFile(path, DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(read.Equal(table)).To(BeTrue())
		})

		It("rejects a file with other columns", func() {
			other := &Table{Columns: []string{"date", "value"}, Rows: [][]string{{"15/03/2024", "1.00"}}}
			Expect(WriteFile(path, other, DefaultOptions())).To(Succeed())
			err := AppendFile(path, table, DefaultOptions(), false)
			Expect(err).To(MatchError(ContainSubstring("appending to")))
		})
	})
})
