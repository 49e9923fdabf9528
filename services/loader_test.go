package services

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"book-pipeline/models"
	"book-pipeline/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

const sampleDoc = `[
  {:id=>1, :title=>"The Hobbit", :year=>1937, :price=>"12.50 EUR"},
  {:id=>"b-2", :title=>"Dune", :year=>"1965", :price=>"€9.99"},
  {:id=>3, :title=>"Neuromancer", :year=>1984.0, :price=>"price: 20 euro"}
]`

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"19.99 USD", 19.99},
		{"12.50 EUR", 12.50},
		{"€7", 7},
		{"about 3.5 or 4", 3.5},
		{"1,200.50", 1},
		{"v2.0.1", 2.0},
		{"10.", 10},
	}

	for _, tt := range tests {
		got, err := ExtractPrice(tt.raw)
		if err != nil {
			t.Errorf("ExtractPrice(%q) error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractPrice(%q) = %.2f; want %.2f", tt.raw, got, tt.want)
		}
	}
}

func TestExtractPriceNoDigits(t *testing.T) {
	for _, raw := range []string{"N/A", "", "free", "EUR ."} {
		_, err := ExtractPrice(raw)
		if !errors.Is(err, ErrNoPrice) {
			t.Errorf("ExtractPrice(%q): got %v, want ErrNoPrice", raw, err)
		}
	}
}

func TestExtractPriceErrorQuotesText(t *testing.T) {
	_, err := ExtractPrice("N/A")
	if err == nil || !strings.Contains(err.Error(), `"N/A"`) {
		t.Errorf("error should quote the offending text, got %v", err)
	}
}

func TestLoaderParse(t *testing.T) {
	l := NewLoader(newTestLogger())

	books, err := l.Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []models.Book{
		{ID: "1", Title: "The Hobbit", PublicationYear: 1937, PriceEUR: 12.50},
		{ID: "b-2", Title: "Dune", PublicationYear: 1965, PriceEUR: 9.99},
		{ID: "3", Title: "Neuromancer", PublicationYear: 1984, PriceEUR: 20},
	}
	if len(books) != len(want) {
		t.Fatalf("len: got %d, want %d", len(books), len(want))
	}
	for i := range want {
		if books[i] != want[i] {
			t.Errorf("book %d: got %+v, want %+v", i, books[i], want[i])
		}
	}
}

func TestLoaderKeepsNumericIDLiteral(t *testing.T) {
	l := NewLoader(newTestLogger())
	books, err := l.Parse([]byte(`[{:id=>42, :title=>"x", :year=>2000, :price=>"1"}, {:id=>4.5, :title=>"y", :year=>2000, :price=>"1"}]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if books[0].ID != "42" {
		t.Errorf("ID: got %q, want %q", books[0].ID, "42")
	}
	if books[1].ID != "4.5" {
		t.Errorf("ID: got %q, want %q", books[1].ID, "4.5")
	}
}

func TestLoaderAcceptsStandardJSON(t *testing.T) {
	l := NewLoader(newTestLogger())
	books, err := l.Parse([]byte(`[{"id": "a", "title": "T", "year": 2001, "price": "3.25 EUR"}]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(books) != 1 || books[0].PriceEUR != 3.25 {
		t.Errorf("got %+v", books)
	}
}

func TestLoaderEmptyArray(t *testing.T) {
	l := NewLoader(newTestLogger())
	books, err := l.Parse([]byte(`[]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(books) != 0 {
		t.Errorf("expected no books, got %d", len(books))
	}
}

func TestLoaderErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"broken syntax", `[{:id=>1, :title=>"x"`, ErrMalformedInput},
		{"not an array", `{:id=>1}`, ErrMalformedInput},
		{"null document", `null`, ErrMalformedInput},
		{"null element", `[null]`, ErrMalformedInput},
		{"trailing data", `[] []`, ErrMalformedInput},
		{"missing price", `[{:id=>1, :title=>"x", :year=>2000}]`, ErrMalformedInput},
		{"year not integer", `[{:id=>1, :title=>"x", :year=>"MCMLXV", :price=>"1"}]`, ErrFieldType},
		{"year bool", `[{:id=>1, :title=>"x", :year=>true, :price=>"1"}]`, ErrFieldType},
		{"year exponent overflows int", `[{:id=>1, :title=>"x", :year=>1e30, :price=>"1"}]`, ErrFieldType},
		{"year literal overflows int", `[{:id=>1, :title=>"x", :year=>99999999999999999999, :price=>"1"}]`, ErrFieldType},
		{"year string overflows int", `[{:id=>1, :title=>"x", :year=>"99999999999999999999", :price=>"1"}]`, ErrFieldType},
		{"title number", `[{:id=>1, :title=>5, :year=>2000, :price=>"1"}]`, ErrFieldType},
		{"id null", `[{:id=>null, :title=>"x", :year=>2000, :price=>"1"}]`, ErrFieldType},
		{"price number", `[{:id=>1, :title=>"x", :year=>2000, :price=>1}]`, ErrFieldType},
		{"price without digits", `[{:id=>1, :title=>"x", :year=>2000, :price=>"N/A"}]`, ErrNoPrice},
	}

	l := NewLoader(newTestLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := l.Parse([]byte(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q): got %v, want %v", tt.doc, err, tt.want)
			}
			if books != nil {
				t.Errorf("Parse(%q) returned %d books alongside an error", tt.doc, len(books))
			}
		})
	}
}

func TestLoaderBadRecordAbortsWholeLoad(t *testing.T) {
	l := NewLoader(newTestLogger())
	doc := `[{:id=>1, :title=>"ok", :year=>2000, :price=>"1"}, {:id=>2, :title=>"bad", :year=>2000, :price=>"N/A"}]`
	_, err := l.Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "record 1") {
		t.Errorf("error should name the record index, got %v", err)
	}
}

func TestLoaderLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(newTestLogger())
	books, err := l.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(books) != 3 {
		t.Errorf("len: got %d, want 3", len(books))
	}

	if _, err := l.LoadFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want os.ErrNotExist", err)
	}
}
