package statement

import (
	"fmt"
	"strings"

	"github.com/marcelomendoncasoares/image2csv/internal/format"
)

// FlashBenefitsName is the registry name of the Flash benefits card parser
const FlashBenefitsName = "flash_benefits"

// flashGrammar matches a "<artifact> <description> dd/mm" line followed by a
// line ending in "R$ <value> [hh:mm]". OCR often reads "$" as "S".
const flashGrammar = `(?P<description>.+) (?P<date>[\d]{2}/[\d]{2})\n(?:.+)[$S]\s*(?P<value>[.\d]+,[\d]{2}) (?P<hour>[\d]{2}:[\d]{2})?`

// FlashBenefits parses the statement screen of the Flash benefits app
type FlashBenefits struct {
	clock     TimeSource
	formatter *format.Formatter
	grammar   grammar
}

// NewFlashBenefits creates the parser. The relative dates of the statement
// ("hoje", "ontem") are resolved against the clock at construction.
func NewFlashBenefits(clock TimeSource) (*FlashBenefits, Diagnostics) {
	now := clock.Now()

	cfg := format.DefaultConfig()
	cfg.RemoveBeforeMatch = "^Extrato"
	cfg.RemoveAfterMatch = "^Extrato"
	cfg.Replacements = []format.Replacement{
		{Old: "hoje", New: now.Format("02/01")},
		{Old: "ontem", New: now.AddDate(0, 0, -1).Format("02/01")},
		{Old: "...", New: ""},
	}

	var diags Diagnostics
	diags.Add("The Flash statement has no year: dates are assumed to be in %d, "+
		"so screenshots must be converted on the day they are taken.", now.Year())

	return &FlashBenefits{
		clock:     clock,
		formatter: format.MustNew(cfg),
		grammar:   newGrammar(flashGrammar),
	}, diags
}

func (p *FlashBenefits) Name() string {
	return FlashBenefitsName
}

func (p *FlashBenefits) Formatter() *format.Formatter {
	return p.formatter
}

// ParseTextLines parses the whole statement at once, a transaction spans two lines
func (p *FlashBenefits) ParseTextLines(lines []string) []Record {
	year := p.clock.Now().Year()

	records := p.grammar.scan(strings.Join(lines, "\n"))
	for _, r := range records {
		date, _ := r.Get("date")
		r.Set("date", fmt.Sprintf("%s/%d", date, year))

		value, _ := r.Get("value")
		r.Set("value", normalizeValue(value))

		// OCR reads the list icon as a first word
		description, _ := r.Get("description")
		words := strings.Split(description, " ")
		r.Set("description", collapseWhitespace(strings.Join(words[1:], " ")))
	}
	return records
}
