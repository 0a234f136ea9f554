package file

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/custodia-labs/citeqa/internal/core/domain"
	"github.com/custodia-labs/citeqa/internal/logger"
)

// Catalogue CSV column headers.
const (
	ColumnProductName = "Product Name"
	ColumnFileName    = "eCopyfile"
	ColumnDocumentURL = "CII Website URL"
)

// ReadCatalog reads catalogue records from a CSV file with a header row.
// Rows without a file name are skipped. A positive limit stops after that
// many records.
func ReadCatalog(path string, limit int) ([]domain.CatalogRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("catalog %q: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return parseCatalog(f, limit)
}

func parseCatalog(r io.Reader, limit int) ([]domain.CatalogRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: catalog is empty", domain.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read catalog header: %w", domain.ErrValidation, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := columns[ColumnFileName]; !ok {
		return nil, fmt.Errorf("%w: catalog has no %q column", domain.ErrValidation, ColumnFileName)
	}
	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []domain.CatalogRecord
	for line := 2; ; line++ {
		if limit > 0 && len(records) >= limit {
			break
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: catalog line %d: %w", domain.ErrValidation, line, err)
		}

		record := domain.CatalogRecord{
			ProductName: field(row, ColumnProductName),
			FileName:    field(row, ColumnFileName),
			DocumentURL: field(row, ColumnDocumentURL),
		}
		if record.FileName == "" {
			logger.Debug("catalog line %d has no %s, skipping", line, ColumnFileName)
			continue
		}
		records = append(records, record)
	}

	logger.Info("Read %d catalog records", len(records))
	return records, nil
}
