package models

import "math/big"

// Book is a normalized record ready for storage. ID is always the string form
// of the source identifier, even when the source value was numeric.
type Book struct {
	ID              string
	Title           string
	PublicationYear int
	PriceEUR        float64
}

// YearSummary is one row of the per-year aggregate.
type YearSummary struct {
	PublicationYear int
	BookCount       int
	AveragePriceUSD float64
}

// Counts holds the row counts reported after a load.
type Counts struct {
	Raw     int
	Summary int
}

// FileDigest is the SHA3-256 digest of one file and the sort key derived
// from its hex characters.
type FileDigest struct {
	Name    string
	Digest  string
	SortKey *big.Int
}
