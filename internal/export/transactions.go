package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"golang.org/x/text/transform"
)

// Transaction is the typed view of an exported statement row. Amount keeps
// the value as written; Value is only set when Amount is a decimal.
type Transaction struct {
	Date        string          `csv:"date"`
	Description string          `csv:"description"`
	Amount      string          `csv:"value"`
	Hour        string          `csv:"hour"`
	Value       decimal.Decimal `csv:"-"`
	Parsed      bool            `csv:"-"`
	Line        int             `csv:"-"` // line in the file, header is line 1
}

// ReadTransactions decodes exported statement rows. Columns are matched by
// header name, so any vendor's output can be read.
func ReadTransactions(r io.Reader, opts Options) ([]Transaction, error) {
	sep, err := opts.separator()
	if err != nil {
		return nil, err
	}
	enc, err := ResolveEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	cr.Comma = sep

	var transactions []Transaction
	if err := gocsv.UnmarshalCSV(cr, &transactions); err != nil {
		return nil, fmt.Errorf("decoding transactions: %w", err)
	}
	for i := range transactions {
		tx := &transactions[i]
		tx.Line = i + 2
		if value, err := decimal.NewFromString(tx.Amount); err == nil {
			tx.Value, tx.Parsed = value, true
		}
	}
	return transactions, nil
}

// MonthTotal sums the transactions of one month
type MonthTotal struct {
	Month string // YYYY-MM, or "unknown" when the date does not parse
	Count int
	Total decimal.Decimal
}

// Summary aggregates a set of transactions
type Summary struct {
	Count    int
	Total    decimal.Decimal
	ByMonth  []MonthTotal
	Unparsed []Transaction // rows whose value is not an amount, left out of the totals
}

// Summarize totals transactions overall and per month, months in order
func Summarize(transactions []Transaction) Summary {
	summary := Summary{Total: decimal.Zero}
	months := map[string]*MonthTotal{}

	for _, tx := range transactions {
		if !tx.Parsed {
			summary.Unparsed = append(summary.Unparsed, tx)
			continue
		}
		summary.Count++
		summary.Total = summary.Total.Add(tx.Value)

		month := "unknown"
		if date, err := time.Parse("02/01/2006", tx.Date); err == nil {
			month = date.Format("2006-01")
		}
		m, ok := months[month]
		if !ok {
			m = &MonthTotal{Month: month, Total: decimal.Zero}
			months[month] = m
		}
		m.Count++
		m.Total = m.Total.Add(tx.Value)
	}

	for _, m := range months {
		summary.ByMonth = append(summary.ByMonth, *m)
	}
	sort.Slice(summary.ByMonth, func(i, j int) bool {
		return summary.ByMonth[i].Month < summary.ByMonth[j].Month
	})
	return summary
}
