// Package importer reads client spreadsheets (xlsx or csv) into records keyed
// by their spreadsheet row number.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"go-sales-crm/internal/apperr"
)

// Record is one data row. Line is the 1-based spreadsheet row; the header
// occupies line 1, so the first record is line 2.
type Record struct {
	Line int

	Company      string
	ClientCode   string
	TaxID        string
	LegalName    string
	AliasName    string
	DispatchType string
	Channel      string
	SubChannel   string
	BusinessLine string
	Contact      string
	Phone        string
	Email        string
	PaymentTerms string
	PriceList    string
	SalesRep     string
	AddressType  string
	Address      string
	City         string
	District     string
}

// Columns maps the fixed header labels to record fields.
var Columns = map[string]func(*Record) *string{
	"Empresa":             func(r *Record) *string { return &r.Company },
	"Cód.Cliente":         func(r *Record) *string { return &r.ClientCode },
	"R.U.T.":              func(r *Record) *string { return &r.TaxID },
	"Razón Social":        func(r *Record) *string { return &r.LegalName },
	"Nombre Alias":        func(r *Record) *string { return &r.AliasName },
	"Tipo Despacho":       func(r *Record) *string { return &r.DispatchType },
	"Canal Cliente":       func(r *Record) *string { return &r.Channel },
	"Sub-Canal":           func(r *Record) *string { return &r.SubChannel },
	"Giro Comercial":      func(r *Record) *string { return &r.BusinessLine },
	"Contacto":            func(r *Record) *string { return &r.Contact },
	"Teléfono":            func(r *Record) *string { return &r.Phone },
	"Correo":              func(r *Record) *string { return &r.Email },
	"Condición de Venta":  func(r *Record) *string { return &r.PaymentTerms },
	"Lista Precios":       func(r *Record) *string { return &r.PriceList },
	"Ejecutiva Comercial": func(r *Record) *string { return &r.SalesRep },
	"Tipo Dirección":      func(r *Record) *string { return &r.AddressType },
	"Dirección":           func(r *Record) *string { return &r.Address },
	"Ciudad":              func(r *Record) *string { return &r.City },
	"Comuna":              func(r *Record) *string { return &r.District },
}

// ErrEmpty is wrapped into the validation error returned for a file with no
// data rows.
var ErrEmpty = errors.New("the spreadsheet is empty or has an incorrect format")

// Format is the detected input encoding.
type Format int

const (
	FormatXLSX Format = iota
	FormatCSV
)

var zipMagic = []byte("PK\x03\x04")

// Detect picks the format from the file extension, falling back to the
// content: xlsx files are zip archives.
func Detect(filename string, head []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".csv", ".txt":
		return FormatCSV
	}
	if bytes.HasPrefix(head, zipMagic) {
		return FormatXLSX
	}
	return FormatCSV
}

// Parse reads every data row of the first sheet. Rows with no cells at all
// are skipped but still count toward line numbers. Unknown columns are
// ignored.
func Parse(filename string, r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperr.Validation("file", ErrEmpty.Error())
	}

	var rows [][]string
	switch Detect(filename, data) {
	case FormatXLSX:
		rows, err = readXLSX(data)
	default:
		rows, err = readCSV(data)
	}
	if err != nil {
		return nil, apperr.Validation("file", fmt.Sprintf("unreadable spreadsheet: %v", err))
	}

	records := toRecords(rows)
	if len(records) == 0 {
		return nil, apperr.Validation("file", ErrEmpty.Error())
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}

// sniffDelimiter prefers ';' when the header uses it more than ','. Excel
// in Spanish locales exports semicolon-separated files.
func sniffDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

func toRecords(rows [][]string) []Record {
	if len(rows) < 2 {
		return nil
	}

	fields := make([]func(*Record) *string, len(rows[0]))
	for i, h := range rows[0] {
		fields[i] = Columns[strings.TrimSpace(h)]
	}

	var records []Record
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := Record{Line: i + 2}
		for j, cell := range row {
			if j >= len(fields) || fields[j] == nil {
				continue
			}
			*fields[j](&rec) = strings.TrimSpace(cell)
		}
		records = append(records, rec)
	}
	return records
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// DisplayName is the legal name, falling back to the alias.
func (r Record) DisplayName() string {
	if r.LegalName != "" {
		return r.LegalName
	}
	return r.AliasName
}

// Missing lists the required labels absent from the record.
func (r Record) Missing() []string {
	var missing []string
	if r.DisplayName() == "" {
		missing = append(missing, "Razón Social (or Nombre Alias)")
	}
	if r.Email == "" {
		missing = append(missing, "Correo")
	}
	return missing
}
