package excel

// ExcelConfig holds configuration for reading uploaded observation files
type ExcelConfig struct {
	Sheet   string `json:"sheet" yaml:"sheet"`       // preferred sheet, first sheet when missing
	MaxRows int    `json:"max_rows" yaml:"max_rows"` // data rows beyond this are rejected
}

// DefaultExcelConfig returns sensible defaults for observation uploads
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		Sheet:   "Sheet1",
		MaxRows: 1_000_000,
	}
}
