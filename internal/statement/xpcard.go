package statement

import (
	"fmt"
	"strings"

	"github.com/marcelomendoncasoares/image2csv/internal/format"
)

// XPCardNotificationsName is the registry name of the XP card notification parser
const XPCardNotificationsName = "xp_card_notifications"

const xpCardGrammar = `Cartão XP (?P<date>[\d]{2}/?[\d]{2})\nCompra\sde\sR\$\s(?P<value>.+)\sAPROVADA\sem\s(?P<description>.+\n?.+)\svia\scartão`

// XPCardNotifications parses a screenshot of XP credit card purchase
// notifications. It is best effort: purchases whose notification is cut or
// wrapped differently are lost.
type XPCardNotifications struct {
	clock     TimeSource
	formatter *format.Formatter
	grammar   grammar
}

// NewXPCardNotifications creates the parser
func NewXPCardNotifications(clock TimeSource) (*XPCardNotifications, Diagnostics) {
	cfg := format.DefaultConfig()
	cfg.NoSplit = true
	cfg.RemoveAfterMatch = "^Acessar"

	var diags Diagnostics
	diags.Add("The XP card notifications parser is unreliable and may lose " +
		"transactions. Check the result against the screenshots.")

	return &XPCardNotifications{
		clock:     clock,
		formatter: format.MustNew(cfg),
		grammar:   newGrammar(xpCardGrammar),
	}, diags
}

func (p *XPCardNotifications) Name() string {
	return XPCardNotificationsName
}

func (p *XPCardNotifications) Formatter() *format.Formatter {
	return p.formatter
}

// ParseTextLines scans every formatted line (one per screenshot) on its own
func (p *XPCardNotifications) ParseTextLines(lines []string) []Record {
	year := p.clock.Now().Year()

	var records []Record
	for _, line := range lines {
		for _, r := range p.grammar.scan(line) {
			date, _ := r.Get("date")
			r.Set("date", fmt.Sprintf("%s/%s/%d", date[:2], date[len(date)-2:], year))

			value, _ := r.Get("value")
			r.Set("value", normalizeValue(value))

			description, _ := r.Get("description")
			r.Set("description", strings.ReplaceAll(description, "\n", " "))

			records = append(records, r)
		}
	}
	return records
}
