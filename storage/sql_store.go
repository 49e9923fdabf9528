package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"book-pipeline/models"
	"book-pipeline/utils"
)

// ErrDuplicateID is returned when two books in one load share an id.
var ErrDuplicateID = errors.New("duplicate book id")

const batchSize = 50

// SQLStore persists books to a relational database. The same implementation
// serves SQLite and PostgreSQL through a dialect.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *utils.Logger
}

// NewSQLiteStore opens (creating if needed) the SQLite database at path.
func NewSQLiteStore(path string, logger *utils.Logger) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// Single writer, single process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %q: %w", path, err)
	}

	logger.Debug("[store] Opened sqlite database %s", path)
	return &SQLStore{db: db, dialect: sqliteDialect, logger: logger}, nil
}

// NewPostgresStore connects to PostgreSQL, retrying the initial ping with
// retry's back-off.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig, logger *utils.Logger) (*SQLStore, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	logger.Debug("[store] Connected to postgres")
	return &SQLStore{db: db, dialect: postgresDialect, logger: logger}, nil
}

// Replace performs the full replace-and-rebuild in one transaction: ensure
// the raw table, clear it, insert books, then drop and rebuild the summary.
// On any error the transaction is rolled back.
func (s *SQLStore) Replace(ctx context.Context, books []models.Book, rate float64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.dialect.name, err)
	}
	defer func() {
		if err != nil {
			err = appendRollback(err, tx.Rollback())
			s.logger.Warn("[store] Rolled back load of %d books", len(books))
		}
	}()

	if _, err = tx.ExecContext(ctx, s.dialect.createRawTable()); err != nil {
		return fmt.Errorf("%s: create books_raw: %w", s.dialect.name, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM books_raw"); err != nil {
		return fmt.Errorf("%s: clear books_raw: %w", s.dialect.name, err)
	}

	for i := 0; i < len(books); i += batchSize {
		end := i + batchSize
		if end > len(books) {
			end = len(books)
		}
		if err = s.insertBatch(ctx, tx, books[i:end]); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS books_summary"); err != nil {
		return fmt.Errorf("%s: drop books_summary: %w", s.dialect.name, err)
	}
	if _, err = tx.ExecContext(ctx, s.dialect.createSummaryTable()); err != nil {
		return fmt.Errorf("%s: create books_summary: %w", s.dialect.name, err)
	}
	if _, err = tx.ExecContext(ctx, s.dialect.fillSummary(), rate); err != nil {
		return fmt.Errorf("%s: fill books_summary: %w", s.dialect.name, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.dialect.name, err)
	}

	s.logger.Info("[store] Loaded %d books into books_raw and rebuilt books_summary", len(books))
	return nil
}

func (s *SQLStore) insertBatch(ctx context.Context, tx *sql.Tx, batch []models.Book) error {
	args := make([]any, 0, len(batch)*4)
	for _, b := range batch {
		args = append(args, b.ID, b.Title, b.PublicationYear, b.PriceEUR)
	}

	if _, err := tx.ExecContext(ctx, s.dialect.insertRaw(len(batch)), args...); err != nil {
		if s.dialect.isUniqueViolation(err) {
			return fmt.Errorf("%s: insert books_raw: %w: %w", s.dialect.name, ErrDuplicateID, err)
		}
		return fmt.Errorf("%s: insert books_raw: %w", s.dialect.name, err)
	}
	return nil
}

// appendRollback adds a rollback failure to err. sql.ErrTxDone only means the
// transaction already ended (failed commit, cancelled context) and is dropped.
func appendRollback(err, rbErr error) error {
	if errors.Is(rbErr, sql.ErrTxDone) {
		return err
	}
	return multierr.Append(err, rbErr)
}

// Counts returns the number of rows in books_raw and books_summary.
func (s *SQLStore) Counts(ctx context.Context) (models.Counts, error) {
	var c models.Counts
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books_raw").Scan(&c.Raw); err != nil {
		return c, fmt.Errorf("%s: count books_raw: %w", s.dialect.name, err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books_summary").Scan(&c.Summary); err != nil {
		return c, fmt.Errorf("%s: count books_summary: %w", s.dialect.name, err)
	}
	return c, nil
}

// Summary reads books_summary ordered by year.
func (s *SQLStore) Summary(ctx context.Context) ([]models.YearSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT publication_year, book_count, average_price_usd
		FROM books_summary
		ORDER BY publication_year
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch summary: %w", s.dialect.name, err)
	}
	defer rows.Close()

	var out []models.YearSummary
	for rows.Next() {
		var r models.YearSummary
		if err := rows.Scan(&r.PublicationYear, &r.BookCount, &r.AveragePriceUSD); err != nil {
			return nil, fmt.Errorf("%s: scan summary: %w", s.dialect.name, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Books reads books_raw ordered by id.
func (s *SQLStore) Books(ctx context.Context) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, publication_year, price_eur
		FROM books_raw
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch books: %w", s.dialect.name, err)
	}
	defer rows.Close()

	var out []models.Book
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.PublicationYear, &b.PriceEUR); err != nil {
			return nil, fmt.Errorf("%s: scan book: %w", s.dialect.name, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
