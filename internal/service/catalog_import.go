package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/foodgram/backend/internal/models"
)

// RowError reports a malformed line of an import file
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// tagRow is validated with the shared validator before it becomes a models.Tag.
type tagRow struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor,len=7"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

// ParseIngredientsCSV reads "name,unit" rows. The whole input must be well formed.
func ParseIngredientsCSV(r io.Reader) ([]models.Ingredient, error) {
	records, err := readRecords(r, 2)
	if err != nil {
		return nil, err
	}

	ingredients := make([]models.Ingredient, 0, len(records))
	for _, rec := range records {
		name, unit := strings.TrimSpace(rec.fields[0]), strings.TrimSpace(rec.fields[1])
		switch {
		case name == "" || unit == "":
			return nil, &RowError{Line: rec.line, Err: errors.New("name and measurement unit must not be empty")}
		case len([]rune(name)) > 200 || len([]rune(unit)) > 200:
			return nil, &RowError{Line: rec.line, Err: errors.New("values are limited to 200 characters")}
		}
		ingredients = append(ingredients, models.Ingredient{Name: name, MeasurementUnit: unit})
	}
	return ingredients, nil
}

// ParseTagsCSV reads "name,color,slug" rows.
func ParseTagsCSV(r io.Reader) ([]models.Tag, error) {
	records, err := readRecords(r, 3)
	if err != nil {
		return nil, err
	}

	tags := make([]models.Tag, 0, len(records))
	for _, rec := range records {
		row := tagRow{
			Name:  strings.TrimSpace(rec.fields[0]),
			Color: strings.TrimSpace(rec.fields[1]),
			Slug:  strings.TrimSpace(rec.fields[2]),
		}
		if err := validateStruct(row); err != nil {
			return nil, &RowError{Line: rec.line, Err: err}
		}
		tags = append(tags, models.Tag{Name: row.Name, Color: strings.ToUpper(row.Color), Slug: row.Slug})
	}
	return tags, nil
}

type record struct {
	line   int
	fields []string
}

func readRecords(r io.Reader, columns int) ([]record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = columns
	reader.TrimLeadingSpace = true

	var records []record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &RowError{Line: parseErr.Line, Err: parseErr.Err}
			}
			return nil, fmt.Errorf("failed to read import file: %w", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
	return records, nil
}
