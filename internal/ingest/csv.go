package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"flashquiz/internal/domain"
)

// ErrInvalidCSV wraps every parse failure
var ErrInvalidCSV = errors.New("invalid csv")

// Header names accepted for each column, compared case-insensitively
var (
	termHeaders        = []string{"英単語", "term", "word"}
	exampleHeaders     = []string{"例文", "example", "example sentence"}
	translationHeaders = []string{"日本語訳", "translation"}
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV reads a deck: a header row naming term, example and
// translation columns, followed by one word per row
func ParseCSV(r io.Reader) ([]domain.WordRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrInvalidCSV, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: file is not UTF-8 encoded", ErrInvalidCSV)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidCSV, err)
	}

	termCol, err := findColumn(header, termHeaders)
	if err != nil {
		return nil, err
	}
	exampleCol, err := findColumn(header, exampleHeaders)
	if err != nil {
		return nil, err
	}
	translationCol, err := findColumn(header, translationHeaders)
	if err != nil {
		return nil, err
	}

	var words []domain.WordRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}

		word := domain.WordRecord{
			Term:        strings.TrimSpace(row[termCol]),
			Example:     strings.TrimSpace(row[exampleCol]),
			Translation: strings.TrimSpace(row[translationCol]),
		}

		// Blank lines inside quoted exports show up as empty rows
		if word.Term == "" && word.Translation == "" {
			continue
		}
		if word.Term == "" || word.Translation == "" {
			line, _ := reader.FieldPos(termCol)
			return nil, fmt.Errorf("%w: line %d: term and translation are both required", ErrInvalidCSV, line)
		}

		words = append(words, word)
	}

	return words, nil
}

// findColumn returns the index of the first header matching one of names
func findColumn(header []string, names []string) (int, error) {
	for i, h := range header {
		h = strings.TrimSpace(h)
		for _, name := range names {
			if strings.EqualFold(h, name) {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("%w: missing column %q", ErrInvalidCSV, names[0])
}
