package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"zhypo/domain/core"
	"zhypo/domain/ztest"
	"zhypo/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader reads Excel and CSV uploads into observation columns
type DataReader struct {
	config ExcelConfig
	logger *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(config ExcelConfig, logger *internal.Logger) *DataReader {
	if config.MaxRows <= 0 {
		config.MaxRows = DefaultExcelConfig().MaxRows
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{config: config, logger: logger}
}

// ReadObservations parses src and extracts the named numeric column. An
// empty column name selects the first column.
func (r *DataReader) ReadObservations(ctx context.Context, src io.Reader, filename, column string) (*ztest.Observations, error) {
	data, err := r.ReadData(ctx, src, filename)
	if err != nil {
		return nil, err
	}
	return r.extractColumn(data, filename, column)
}

// ReadData reads an upload into structured rows, dispatching on the file extension
func (r *DataReader) ReadData(ctx context.Context, src io.Reader, filename string) (*ExcelData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return r.readCSVData(src)
	case ".xlsx", ".xlsm":
		return r.readExcelData(src)
	default:
		return nil, core.NewInvalidInputError("file", fmt.Sprintf("has unsupported type %q (use .xlsx or .csv)", filepath.Ext(filename)))
	}
}

func (r *DataReader) readExcelData(src io.Reader) (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("%w: file is not a readable workbook: %v", core.ErrInvalidInput, err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if idx, _ := f.GetSheetIndex(sheet); sheet == "" || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, core.NewInvalidInputError("file", "contains no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	r.logger.Debug("[DataReader] %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

func (r *DataReader) readCSVData(src io.Reader) (*ExcelData, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewInvalidInputError("file", fmt.Sprintf("is not valid CSV: %v", err))
	}
	r.logger.Debug("[DataReader] CSV file read (%d rows)", len(rows))

	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: file must have a header row and at least one data row", core.ErrInsufficientData)
	}
	if len(rows)-1 > r.config.MaxRows {
		return nil, core.NewInvalidInputError("file", fmt.Sprintf("has %d data rows, limit is %d", len(rows)-1, r.config.MaxRows))
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	named := false
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
		named = named || headers[i] != ""
	}
	if !named {
		return nil, core.NewInvalidInputError("file", "has an empty header row")
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

func (r *DataReader) extractColumn(data *ExcelData, source, column string) (*ztest.Observations, error) {
	column = strings.TrimSpace(column)
	if len(data.Headers) == 0 {
		return nil, core.NewInvalidInputError("file", "has no columns")
	}
	if column == "" {
		column = data.Headers[0]
	} else if !containsHeader(data.Headers, column) {
		return nil, core.NewInvalidInputError("column", fmt.Sprintf("%q not found in file", column))
	}

	obs := &ztest.Observations{
		Source: source,
		Column: column,
		Values: make([]float64, 0, len(data.Rows)),
	}
	for _, row := range data.Rows {
		cell := row[column]
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			obs.Skipped++
			continue
		}
		obs.Values = append(obs.Values, v)
	}

	r.logger.Info("[DataReader] extracted %d observations from column %q of %s (%d skipped)", len(obs.Values), column, source, obs.Skipped)
	return obs, nil
}

func containsHeader(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}
