package source

import (
	"bytes"
	"encoding/json"

	"github.com/theirongolddev/cashcast/internal/model"
)

// Format is the file format of a bank export.
type Format int

const (
	FormatCSV Format = iota
	FormatJSONL
)

func (f Format) String() string {
	if f == FormatJSONL {
		return "jsonl"
	}
	return "csv"
}

// RawRow is one exported transaction before validation. CSV headers and
// JSONL keys share these names.
type RawRow struct {
	Identifier     string `json:"identifier"`
	Date           string `json:"date"`
	Name           string `json:"name"`
	Vendor         string `json:"vendor"`
	Amount         Amount `json:"amount"`
	Category       string `json:"category"`
	ParentCategory string `json:"parent_category"`
	CategoryType   string `json:"category_type"`
}

// DiscoveredFile is an export file found during directory scanning.
type DiscoveredFile struct {
	Path    string
	Format  Format
	Account string // first directory below the scan root, or the file's base name
}

// ParseResult holds the output of parsing a single export file.
type ParseResult struct {
	Transactions []model.Transaction
	ParseErrors  int
	Err          error
}

// Amount is the textual amount of a row. In JSONL it may be written either
// as a number or as a string.
type Amount string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = Amount(n)
	return nil
}
