package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// dialect captures the SQL differences between the supported backends.
type dialect struct {
	name        string
	driver      string
	realType    string
	placeholder func(n int) string
	// roundAvg wraps an AVG expression so the result is rounded to 2 places.
	roundAvg func(expr string) string
	// isUniqueViolation reports whether err is a primary-key/unique failure.
	isUniqueViolation func(err error) bool
}

var sqliteDialect = dialect{
	name:     "sqlite",
	driver:   "sqlite",
	realType: "REAL",
	placeholder: func(int) string {
		return "?"
	},
	roundAvg: func(expr string) string {
		return fmt.Sprintf("ROUND(%s, 2)", expr)
	},
	isUniqueViolation: func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(se.Error(), "UNIQUE constraint failed")
		}
		return false
	},
}

var postgresDialect = dialect{
	name:     "postgres",
	driver:   "postgres",
	realType: "DOUBLE PRECISION",
	placeholder: func(n int) string {
		return fmt.Sprintf("$%d", n)
	},
	roundAvg: func(expr string) string {
		return fmt.Sprintf("ROUND((%s)::numeric, 2)", expr)
	},
	isUniqueViolation: func(err error) bool {
		var pe *pq.Error
		return errors.As(err, &pe) && pe.Code == "23505"
	},
}

func (d dialect) createRawTable() string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS books_raw (
			id               TEXT    PRIMARY KEY,
			title            TEXT    NOT NULL,
			publication_year INTEGER NOT NULL,
			price_eur        %s    NOT NULL
		)`, d.realType)
}

func (d dialect) createSummaryTable() string {
	return fmt.Sprintf(`
		CREATE TABLE books_summary (
			publication_year  INTEGER,
			book_count        INTEGER,
			average_price_usd %s
		)`, d.realType)
}

func (d dialect) fillSummary() string {
	return fmt.Sprintf(`
		INSERT INTO books_summary (publication_year, book_count, average_price_usd)
		SELECT
			publication_year,
			COUNT(*),
			%s
		FROM books_raw
		GROUP BY publication_year
		ORDER BY publication_year`,
		d.roundAvg("AVG(price_eur * "+d.placeholder(1)+")"))
}

// insertRaw builds a multi-row INSERT for rows books.
func (d dialect) insertRaw(rows int) string {
	values := make([]string, 0, rows)
	for i := 0; i < rows; i++ {
		base := i * 4
		values = append(values, fmt.Sprintf("(%s,%s,%s,%s)",
			d.placeholder(base+1), d.placeholder(base+2),
			d.placeholder(base+3), d.placeholder(base+4)))
	}
	return "INSERT INTO books_raw (id, title, publication_year, price_eur) VALUES " +
		strings.Join(values, ",")
}
