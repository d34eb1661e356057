package googlesheets

import "errors"

var (
	// ErrMissingSpreadsheetID is returned when the spreadsheet is not set.
	ErrMissingSpreadsheetID = errors.New("spreadsheet ID is required")

	// ErrMissingSheetName is returned when the sheet name is not set.
	ErrMissingSheetName = errors.New("sheet name is required")
)

// Config holds configuration specific to the Google Sheets adapter.
type Config struct {
	// SpreadsheetID identifies the spreadsheet document.
	SpreadsheetID string `yaml:"spreadsheet_id"`
	// SheetName is the data sheet. Column metadata lives on a companion
	// sheet named "<SheetName>_schema", which must exist in the document.
	SheetName string `yaml:"sheet_name"`
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" {
		return ErrMissingSpreadsheetID
	}
	if c.SheetName == "" {
		return ErrMissingSheetName
	}
	return nil
}

func (c *Config) schemaSheet() string { return c.SheetName + "_schema" }
