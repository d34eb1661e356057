package excel

import "errors"

var (
	// ErrMissingFilePath is returned when the file path is not specified.
	ErrMissingFilePath = errors.New("file path is required")

	// ErrMissingSheetName is returned when the sheet name is not specified.
	ErrMissingSheetName = errors.New("sheet name is required")
)

// Config holds configuration for the Excel adapter.
type Config struct {
	// FilePath locates the .xlsx file; it is created on first save.
	FilePath string `yaml:"file_path"`
	// SheetName is the data sheet. Column metadata lives on a companion
	// sheet named "<SheetName>_schema".
	SheetName string `yaml:"sheet_name"`
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return ErrMissingFilePath
	}
	if c.SheetName == "" {
		return ErrMissingSheetName
	}
	return nil
}

func (c *Config) schemaSheet() string { return c.SheetName + "_schema" }
