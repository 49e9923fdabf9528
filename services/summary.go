package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"book-pipeline/models"
)

// Summarize groups books by publication year and returns, per year, the book
// count and the average of price*rate rounded to 2 decimals (half away from
// zero). Rows are ordered by ascending year.
func Summarize(books []models.Book, rate float64) []models.YearSummary {
	type acc struct {
		count int
		total decimal.Decimal
	}

	r := decimal.NewFromFloat(rate)
	byYear := make(map[int]*acc)
	for _, b := range books {
		a, ok := byYear[b.PublicationYear]
		if !ok {
			a = &acc{}
			byYear[b.PublicationYear] = a
		}
		a.count++
		a.total = a.total.Add(decimal.NewFromFloat(b.PriceEUR).Mul(r))
	}

	out := make([]models.YearSummary, 0, len(byYear))
	for year, a := range byYear {
		avg := a.total.Div(decimal.NewFromInt(int64(a.count))).Round(2)
		out = append(out, models.YearSummary{
			PublicationYear: year,
			BookCount:       a.count,
			AveragePriceUSD: avg.InexactFloat64(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].PublicationYear < out[j].PublicationYear
	})
	return out
}

// PrintSummary writes the summary as an aligned table.
func PrintSummary(w io.Writer, rows []models.YearSummary) {
	thin := strings.Repeat("─", 36)

	fmt.Fprintf(w, "  %-6s %8s %18s\n", "year", "books", "avg price (USD)")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(rows) == 0 {
		fmt.Fprintf(w, "  No books loaded\n")
		return
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-6d %8d %18.2f\n", r.PublicationYear, r.BookCount, r.AveragePriceUSD)
	}
}
