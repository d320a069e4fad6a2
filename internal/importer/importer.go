// Package importer ingests item catalogs from Excel or CSV spreadsheets
// into the catalog store.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/revsched/internal/logger"
	"github.com/example/revsched/internal/store"
	"github.com/example/revsched/pkg/models"
)

// ImportConfig defines how a spreadsheet maps onto catalog items. Columns
// are spreadsheet letters ("A", "B", ...); an empty column is ignored.
type ImportConfig struct {
	FilePath            string
	HeadwordColumn      string
	TranslationColumn   string
	TopicColumn         string
	DifficultyColumn    string
	FrequencyColumn     string
	PronunciationColumn string
	SheetName           string
	StartRow            int // 1-based row to start importing from
}

// DefaultImportConfig returns the default column layout
func DefaultImportConfig(path string) ImportConfig {
	return ImportConfig{
		FilePath:            path,
		HeadwordColumn:      "A",
		TranslationColumn:   "B",
		TopicColumn:         "C",
		DifficultyColumn:    "D",
		FrequencyColumn:     "E",
		PronunciationColumn: "F",
		SheetName:           "Sheet1",
		StartRow:            2, // skip the header row
	}
}

// ImportResult holds the outcome of one import
type ImportResult struct {
	TotalProcessed int
	TopicsCreated  int
	Imported       int
	Skipped        int
	Errors         []string
}

// Importer writes imported items through the catalog store
type Importer struct {
	catalog store.Catalog
	log     *logger.Logger
}

// New creates an Importer
func New(catalog store.Catalog, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{catalog: catalog, log: log}
}

// Import reads the configured file and upserts its items. The file type is
// chosen by extension: .csv is parsed as CSV, anything else as Excel.
func (im *Importer) Import(cfg ImportConfig) (*ImportResult, error) {
	var rows [][]string
	var err error
	if strings.ToLower(filepath.Ext(cfg.FilePath)) == ".csv" {
		rows, err = readCSV(cfg.FilePath)
	} else {
		rows, err = readExcel(cfg)
	}
	if err != nil {
		return nil, err
	}

	knownTopics := make(map[string]int64)
	existing, err := im.catalog.Topics()
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	for _, t := range existing {
		knownTopics[strings.ToLower(t.Name)] = t.ID
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < cfg.StartRow {
			continue
		}
		result.TotalProcessed++
		if err := im.processRow(row, cfg, knownTopics, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
		}
	}

	im.log.Info("catalog import finished",
		"file", cfg.FilePath,
		"processed", result.TotalProcessed,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (im *Importer) processRow(row []string, cfg ImportConfig, knownTopics map[string]int64, result *ImportResult) error {
	headword := strings.TrimSpace(cell(row, cfg.HeadwordColumn))
	topicName := strings.TrimSpace(cell(row, cfg.TopicColumn))
	if headword == "" || topicName == "" {
		result.Skipped++
		return nil
	}

	topicID, ok := knownTopics[strings.ToLower(topicName)]
	if !ok {
		id, err := im.catalog.EnsureTopic(topicName)
		if err != nil {
			return fmt.Errorf("failed to create topic %q: %w", topicName, err)
		}
		topicID = id
		knownTopics[strings.ToLower(topicName)] = id
		result.TopicsCreated++
	}

	difficulty := 1
	if v := strings.TrimSpace(cell(row, cfg.DifficultyColumn)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 5 {
			return fmt.Errorf("invalid difficulty %q", v)
		}
		difficulty = n
	}
	frequency := 0
	if v := strings.TrimSpace(cell(row, cfg.FrequencyColumn)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid frequency rank %q", v)
		}
		frequency = n
	}

	item := models.Item{
		Headword:      headword,
		Translation:   strings.TrimSpace(cell(row, cfg.TranslationColumn)),
		TopicID:       topicID,
		Difficulty:    difficulty,
		FrequencyRank: frequency,
		Pronunciation: strings.TrimSpace(cell(row, cfg.PronunciationColumn)),
	}
	if err := im.catalog.UpsertItem(&item); err != nil {
		return fmt.Errorf("failed to upsert item %q: %w", headword, err)
	}
	result.Imported++
	return nil
}

func readExcel(cfg ImportConfig) ([][]string, error) {
	f, err := excelize.OpenFile(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(cfg.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", cfg.SheetName, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cell returns the value at the given spreadsheet column letter, or "" when
// the column is unset or past the end of the row.
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	idx := columnToIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// columnToIndex converts a column letter like "A" or "AB" to a 0-based index
func columnToIndex(column string) int {
	idx := 0
	for _, r := range strings.ToUpper(column) {
		if r < 'A' || r > 'Z' {
			return -1
		}
		idx = idx*26 + int(r-'A') + 1
	}
	return idx - 1
}
