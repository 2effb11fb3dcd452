package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/savoria-pos/api/internal/database"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Headers is the canonical column order for import sheets. Three variant
// group pairs follow the fixed columns.
var Headers = []string{
	"Name", "Description", "Category", "Price", "Image URL", "Available",
	"Prep Time (min)", "Allergens", "Spice Level", "Dietary", "Tags",
	"Variant 1 Name", "Variant 1 Options",
	"Variant 2 Name", "Variant 2 Options",
	"Variant 3 Name", "Variant 3 Options",
}

var ErrNoRows = errors.New("sheet has no data rows")

// Row is one raw sheet row, positioned by 1-indexed data row number (the
// header does not count).
type Row struct {
	Number int
	Cells  []string
}

// Item is a fully parsed and validated menu item ready for creation.
type Item struct {
	Row         int
	Name        string
	Description string
	CategoryID  uuid.UUID
	Price       decimal.Decimal
	ImageURL    string
	IsAvailable bool
	PrepTimeMin int32
	Allergens   []string
	SpiceLevel  int32
	Dietary     []string
	Tags        []string
	Variants    []database.VariantGroup
}

// RowError ties a validation message to the data row that produced it.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Report summarizes an import run. Failed rows never block the rest.
type Report struct {
	Created int        `json:"created"`
	Failed  int        `json:"failed"`
	Errors  []RowError `json:"errors,omitempty"`
}

// ReadCSV reads data rows from a CSV sheet. The first row is assumed to be
// the header and skipped.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may omit trailing variant columns

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, ErrNoRows
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, Row{Number: i + 1, Cells: record})
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// ReadXLSX reads data rows from the first sheet of an XLSX workbook.
func ReadXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(records) < 2 {
		return nil, ErrNoRows
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, Row{Number: i + 1, Cells: record})
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseRows validates every row against the restaurant's categories and
// returns the parseable items plus all accumulated errors. A row with any
// error produces no item but never stops the rest.
func ParseRows(rows []Row, categories []database.Category) ([]Item, []RowError) {
	byName := make(map[string]uuid.UUID, len(categories))
	for _, c := range categories {
		byName[strings.ToLower(strings.TrimSpace(c.Name))] = c.ID
	}

	var items []Item
	var errs []RowError

	for _, row := range rows {
		item, rowErrs := parseRow(row, byName)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		items = append(items, item)
	}
	return items, errs
}

func parseRow(row Row, categories map[string]uuid.UUID) (Item, []RowError) {
	cell := func(i int) string {
		if i < len(row.Cells) {
			return strings.TrimSpace(row.Cells[i])
		}
		return ""
	}
	fail := func(errs []RowError, format string, args ...any) []RowError {
		return append(errs, RowError{Row: row.Number, Message: fmt.Sprintf(format, args...)})
	}

	var errs []RowError
	item := Item{Row: row.Number, IsAvailable: true}

	item.Name = cell(0)
	if item.Name == "" {
		errs = fail(errs, "name is required")
	}
	item.Description = cell(1)

	category := cell(2)
	if category == "" {
		errs = fail(errs, "category is required")
	} else if id, ok := categories[strings.ToLower(category)]; ok {
		item.CategoryID = id
	} else {
		errs = fail(errs, "unknown category %q", category)
	}

	price := cell(3)
	if price == "" {
		errs = fail(errs, "price is required")
	} else if d, err := decimal.NewFromString(price); err != nil {
		errs = fail(errs, "price %q is not a number", price)
	} else if d.LessThanOrEqual(decimal.Zero) {
		errs = fail(errs, "price must be greater than zero")
	} else {
		item.Price = d
	}

	item.ImageURL = cell(4)

	if v := cell(5); v != "" {
		avail, err := parseBool(v)
		if err != nil {
			errs = fail(errs, "available %q is not a yes/no value", v)
		} else {
			item.IsAvailable = avail
		}
	}

	if v := cell(6); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			errs = fail(errs, "prep time %q is not a non-negative number", v)
		} else {
			item.PrepTimeMin = int32(n)
		}
	}

	item.Allergens = splitList(cell(7))

	if v := cell(8); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 || n > 5 {
			errs = fail(errs, "spice level %q must be 0-5", v)
		} else {
			item.SpiceLevel = int32(n)
		}
	}

	item.Dietary = splitList(cell(9))
	item.Tags = splitList(cell(10))

	// Up to three variant groups, each a name column plus an options column.
	for g := 0; g < 3; g++ {
		nameCol, optsCol := 11+g*2, 12+g*2
		groupName := cell(nameCol)
		if groupName == "" {
			continue
		}
		options := ParseVariantOptions(cell(optsCol))
		if len(options) == 0 {
			errs = fail(errs, "variant group %q has no valid options", groupName)
			continue
		}
		item.Variants = append(item.Variants, database.VariantGroup{
			Name:    groupName,
			Options: options,
		})
	}

	return item, errs
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("bad bool %q", s)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Store defines the DB methods needed to run an import.
type Store interface {
	ListCategoriesByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.Category, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
}

// Importer turns sheet rows into menu items.
type Importer struct {
	store Store
}

func New(store Store) *Importer {
	return &Importer{store: store}
}

// Run validates and creates menu items row by row. Validation errors and
// per-row creation failures land in the report; valid rows are never rolled
// back because an earlier or later row failed.
func (im *Importer) Run(ctx context.Context, restaurantID uuid.UUID, rows []Row) (*Report, error) {
	categories, err := im.store.ListCategoriesByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	items, errs := ParseRows(rows, categories)
	report := &Report{Errors: errs, Failed: countRows(errs)}

	for _, item := range items {
		params := database.CreateMenuItemParams{
			RestaurantID: restaurantID,
			CategoryID:   item.CategoryID,
			Name:         item.Name,
			Price:        decimalToNumeric(item.Price),
			IsAvailable:  item.IsAvailable,
			Allergens:    item.Allergens,
			Dietary:      item.Dietary,
			Tags:         item.Tags,
			Variants:     item.Variants,
		}
		if item.Description != "" {
			params.Description = pgtype.Text{String: item.Description, Valid: true}
		}
		if item.ImageURL != "" {
			params.ImageUrl = pgtype.Text{String: item.ImageURL, Valid: true}
		}
		if item.PrepTimeMin > 0 {
			params.PreparationTime = pgtype.Int4{Int32: item.PrepTimeMin, Valid: true}
		}
		if item.SpiceLevel > 0 {
			params.SpiceLevel = pgtype.Int4{Int32: item.SpiceLevel, Valid: true}
		}

		if _, err := im.store.CreateMenuItem(ctx, params); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, RowError{
				Row:     item.Row,
				Message: fmt.Sprintf("create failed: %v", err),
			})
			continue
		}
		report.Created++
	}

	return report, nil
}

// countRows counts distinct row numbers; one row can carry several errors but
// fails only once.
func countRows(errs []RowError) int {
	seen := make(map[int]bool, len(errs))
	for _, e := range errs {
		seen[e.Row] = true
	}
	return len(seen)
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}
