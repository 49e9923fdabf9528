package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"book-pipeline/models"
)

func TestCSVWriterWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "raw_books.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	books := []models.Book{
		{ID: "1", Title: "Dune, Part One", PublicationYear: 1965, PriceEUR: 9.99},
		{ID: "2", Title: "Emma", PublicationYear: 1815, PriceEUR: 4},
	}
	if err := w.WriteRaw(books); err != nil {
		t.Fatalf("WriteRaw: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records: got %d, want 3", len(records))
	}
	if records[0][0] != "id" || records[0][3] != "price_eur" {
		t.Errorf("header: got %v", records[0])
	}
	if records[1][1] != "Dune, Part One" || records[1][3] != "9.99" {
		t.Errorf("row 1: got %v", records[1])
	}
	if records[2][2] != "1815" || records[2][3] != "4" {
		t.Errorf("row 2: got %v", records[2])
	}
}

func TestCSVWriterAppendsAcrossWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw_books.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	for _, b := range []models.Book{
		{ID: "1", Title: "A", PublicationYear: 2000, PriceEUR: 1},
		{ID: "2", Title: "B", PublicationYear: 2001, PriceEUR: 2.5},
	} {
		if err := w.WriteRaw([]models.Book{b}); err != nil {
			t.Fatalf("WriteRaw: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "id,title,publication_year,price_eur\n1,A,2000,1\n2,B,2001,2.5\n"
	if string(data) != want {
		t.Errorf("file: got %q, want %q", data, want)
	}
}
