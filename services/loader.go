package services

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"book-pipeline/models"
	"book-pipeline/utils"
)

// priceRegexp captures the first numeric amount in a price text.
var priceRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Loader turns the near-JSON book file into normalized Books.
type Loader struct {
	logger *utils.Logger
}

// NewLoader creates a Loader with the given logger.
func NewLoader(logger *utils.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadFile reads path and parses its contents. See Parse.
func (l *Loader) LoadFile(path string) ([]models.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %q: %w", path, err)
	}
	l.logger.Debug("[loader] Read %d bytes from %s", len(data), path)
	return l.Parse(data)
}

// Parse repairs the key syntax of data, decodes it as an array of objects
// and normalizes every object in input order. The first bad record aborts
// the whole parse.
func (l *Loader) Parse(data []byte) ([]models.Book, error) {
	fixed := RewriteKeys(string(data))

	dec := json.NewDecoder(strings.NewReader(fixed))
	dec.UseNumber()

	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("loader: decode: %w: %v", ErrMalformedInput, err)
	}
	if items == nil {
		return nil, fmt.Errorf("loader: decode: %w: document is not an array", ErrMalformedInput)
	}
	if dec.More() {
		return nil, fmt.Errorf("loader: decode: %w: trailing data after array", ErrMalformedInput)
	}

	books := make([]models.Book, 0, len(items))
	for i, item := range items {
		if item == nil {
			return nil, fmt.Errorf("loader: record %d: %w: not an object", i, ErrMalformedInput)
		}
		b, err := normalise(item)
		if err != nil {
			return nil, fmt.Errorf("loader: record %d: %w", i, err)
		}
		books = append(books, b)
	}

	l.logger.Info("[loader] Parsed %d book records", len(books))
	return books, nil
}

func normalise(item map[string]any) (models.Book, error) {
	var b models.Book

	rawID, err := field(item, "id")
	if err != nil {
		return b, err
	}
	if b.ID, err = coerceID(rawID); err != nil {
		return b, err
	}

	rawTitle, err := field(item, "title")
	if err != nil {
		return b, err
	}
	title, ok := rawTitle.(string)
	if !ok {
		return b, fmt.Errorf("title: %w: got %T", ErrFieldType, rawTitle)
	}
	b.Title = title

	rawYear, err := field(item, "year")
	if err != nil {
		return b, err
	}
	if b.PublicationYear, err = coerceYear(rawYear); err != nil {
		return b, err
	}

	rawPrice, err := field(item, "price")
	if err != nil {
		return b, err
	}
	priceText, ok := rawPrice.(string)
	if !ok {
		return b, fmt.Errorf("price: %w: got %T", ErrFieldType, rawPrice)
	}
	if b.PriceEUR, err = ExtractPrice(priceText); err != nil {
		return b, err
	}

	return b, nil
}

func field(item map[string]any, key string) (any, error) {
	v, ok := item[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing key %q", ErrMalformedInput, key)
	}
	return v, nil
}

// coerceID keeps numeric identifiers in their literal text form.
func coerceID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		return id, nil
	case json.Number:
		return id.String(), nil
	default:
		return "", fmt.Errorf("id: %w: got %T", ErrFieldType, v)
	}
}

// coerceYear accepts integer numbers, fractional numbers (truncated toward
// zero) and base-10 integer strings.
func coerceYear(v any) (int, error) {
	switch y := v.(type) {
	case json.Number:
		if n, err := y.Int64(); err == nil {
			return int(n), nil
		}
		f, err := y.Float64()
		if err != nil || math.IsInf(f, 0) {
			return 0, fmt.Errorf("year: %w: %q", ErrFieldType, y.String())
		}
		// float64(math.MaxInt) rounds up to 2^63, which int cannot hold.
		if f < math.MinInt || f >= math.MaxInt {
			return 0, fmt.Errorf("year: %w: %q out of range", ErrFieldType, y.String())
		}
		return int(math.Trunc(f)), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(y))
		if err != nil {
			return 0, fmt.Errorf("year: %w: %q is not an integer", ErrFieldType, y)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("year: %w: got %T", ErrFieldType, v)
	}
}

// ExtractPrice parses the first numeric amount found in text, e.g.
// "12.50 EUR" → 12.5. Text without digits yields ErrNoPrice.
func ExtractPrice(text string) (float64, error) {
	match := priceRegexp.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("price: %w: cannot parse price from %q", ErrNoPrice, text)
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("price: %w: %q: %v", ErrNoPrice, text, err)
	}
	return price, nil
}
