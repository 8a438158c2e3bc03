// Package coaimport analyzes chart-of-accounts files uploaded by operators before
// they are loaded: column mappings, inferred account types, row problems and the
// detected parent/child hierarchy.
package coaimport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/erp/ledger/internal/domain/coa"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	csvimport "github.com/erp/ledger/internal/infrastructure/import"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// FileSource opens import files by key
type FileSource interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// DefaultMaxErrors caps the row errors reported per file
const DefaultMaxErrors = 100

// AccountPreview is one parsed row with what was inferred for it
type AccountPreview struct {
	Row          int                `json:"row"`
	Code         string             `json:"code"`
	Name         string             `json:"name"`
	AccountType  ledger.AccountType `json:"account_type,omitempty"`
	TypeInferred bool               `json:"type_inferred"`
	ParentCode   string             `json:"parent_code,omitempty"`
}

// AnalysisResult is what an operator reviews before importing a chart
type AnalysisResult struct {
	Delimiter      string               `json:"delimiter"`
	Headers        []string             `json:"headers"`
	ColumnMappings coa.ColumnMappings   `json:"column_mappings"`
	TotalRows      int                  `json:"total_rows"`
	Accounts       []AccountPreview     `json:"accounts"`
	Hierarchy      coa.HierarchyResult  `json:"hierarchy"`
	Errors         []csvimport.RowError `json:"errors,omitempty"`
	TotalErrors    int                  `json:"total_errors,omitempty"`
	IsTruncated    bool                 `json:"is_truncated,omitempty"`
}

// ImportService parses chart-of-accounts CSV files and runs hierarchy detection
type ImportService struct {
	source    FileSource
	maxBytes  int64
	maxErrors int
	logger    *zap.Logger
}

// Option configures an ImportService
type Option func(*ImportService)

// WithFileSource sets where AnalyzeObject reads files from
func WithFileSource(src FileSource) Option {
	return func(s *ImportService) {
		s.source = src
	}
}

// WithMaxBytes caps the size of an analyzed file
func WithMaxBytes(n int64) Option {
	return func(s *ImportService) {
		s.maxBytes = n
	}
}

// WithMaxErrors caps the number of row errors kept in the result
func WithMaxErrors(n int) Option {
	return func(s *ImportService) {
		s.maxErrors = n
	}
}

// NewImportService creates an ImportService
func NewImportService(logger *zap.Logger, opts ...Option) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ImportService{
		maxBytes:  csvimport.DefaultMaxBytes,
		maxErrors: DefaultMaxErrors,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeObject reads key from the configured file source and analyzes it
func (s *ImportService) AnalyzeObject(ctx context.Context, key string) (*AnalysisResult, error) {
	if s.source == nil {
		return nil, shared.NewAppError("IMPORT_SOURCE_UNAVAILABLE", "No import file source is configured")
	}
	rc, err := s.source.Open(ctx, key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, shared.NewNotFoundError("IMPORT_FILE", "Import file not found: "+key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open import file %q: %w", key, err)
	}
	defer rc.Close()
	return s.Analyze(ctx, rc)
}

// Analyze parses a CSV chart of accounts and detects its hierarchy. File-level
// problems (empty, not UTF-8, no header, too large) are validation errors; row-level
// problems are reported in the result and the offending rows are left out of detection.
func (s *ImportService) Analyze(ctx context.Context, r io.Reader) (*AnalysisResult, error) {
	_, span := telemetry.StartServiceSpan(ctx, "coaimport", "analyze")
	defer span.End()

	// Names keep their leading whitespace so indentation can be detected
	parser, err := csvimport.NewCSVParser(r,
		csvimport.WithTrimSpace(false),
		csvimport.WithLazyQuotes(true),
		csvimport.WithMaxBytes(s.maxBytes),
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fileError(err)
	}
	if err := parser.ParseHeader(); err != nil {
		telemetry.RecordError(span, err)
		return nil, fileError(err)
	}

	headers := parser.Headers()
	mappings := coa.InferColumnMappings(headers)
	if _, ok := mappings[coa.FieldCode]; !ok {
		if _, ok := mappings[coa.FieldName]; !ok {
			return nil, shared.NewValidationError("UNRECOGNIZED_COLUMNS",
				"Could not find an account code or name column in: "+strings.Join(headers, ", "))
		}
	}

	errs := csvimport.NewErrorCollection(s.maxErrors)
	var (
		rows     []coa.ImportRow
		previews []AccountPreview
		types    = make(map[int]ledger.AccountType)
		firstRow = make(map[string]int)
	)

	for {
		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			var rowErr csvimport.RowError
			if errors.As(err, &rowErr) {
				errs.Add(rowErr)
				continue
			}
			telemetry.RecordError(span, err)
			return nil, fileError(err)
		}
		if row.IsEmpty() {
			continue
		}

		ir := coa.ImportRow{Index: len(rows), Values: row.Data}
		code, name := fieldValue(ir, mappings, coa.FieldCode), fieldValue(ir, mappings, coa.FieldName)

		if col, ok := mappings[coa.FieldCode]; ok && code == "" {
			errs.AddRequiredError(row.LineNumber, col.Column)
			continue
		}
		if col, ok := mappings[coa.FieldName]; ok && strings.TrimSpace(name) == "" {
			errs.AddRequiredError(row.LineNumber, col.Column)
			continue
		}
		if code != "" {
			if first, dup := firstRow[code]; dup {
				errs.AddDuplicateError(row.LineNumber, mappings[coa.FieldCode].Column, code, first)
				continue
			}
			firstRow[code] = row.LineNumber
		}

		preview := AccountPreview{Row: row.LineNumber, Code: code, Name: strings.TrimSpace(name)}
		typeValue := fieldValue(ir, mappings, coa.FieldType)
		if t, ok := coa.InferAccountType(typeValue, code); ok {
			types[ir.Index] = t
			preview.AccountType = t
			preview.TypeInferred = strings.TrimSpace(typeValue) == ""
		} else if strings.TrimSpace(typeValue) != "" {
			errs.Add(csvimport.RowError{
				Row:     row.LineNumber,
				Column:  mappings[coa.FieldType].Column,
				Code:    csvimport.ErrCodeImportUnknownType,
				Message: "unknown account type",
				Value:   typeValue,
			})
		}

		rows = append(rows, ir)
		previews = append(previews, preview)
	}

	if len(rows) == 0 && !errs.HasErrors() {
		return nil, fileError(csvimport.ErrNoDataRows)
	}

	hierarchy := coa.DetectHierarchy(rows, mappings, types)
	for i := range previews {
		key := previews[i].Code
		if key == "" {
			key = strings.TrimLeft(previews[i].Name, ":")
		}
		if parent, ok := hierarchy.ParentOf(key); ok {
			previews[i].ParentCode = parent
		}
	}

	telemetry.SetAttributes(span,
		"coa.rows", len(rows),
		"coa.strategy", hierarchy.Strategy,
		"coa.errors", errs.TotalCount(),
	)
	s.logger.Info("Chart of accounts analyzed",
		zap.Int("rows", len(rows)),
		zap.String("strategy", hierarchy.Strategy),
		zap.Float64("confidence", hierarchy.Confidence),
		zap.Int("relationships", len(hierarchy.Relationships)),
		zap.Int("errors", errs.TotalCount()),
	)

	return &AnalysisResult{
		Delimiter:      string(parser.Delimiter()),
		Headers:        headers,
		ColumnMappings: mappings,
		TotalRows:      parser.TotalRows(),
		Accounts:       previews,
		Hierarchy:      hierarchy,
		Errors:         errs.Errors(),
		TotalErrors:    errs.TotalCount(),
		IsTruncated:    errs.IsTruncated(),
	}, nil
}

// fieldValue returns a mapped value; codes are trimmed, names are not
func fieldValue(r coa.ImportRow, m coa.ColumnMappings, f coa.Field) string {
	v, _ := r.Value(m, f)
	if f == coa.FieldName {
		return v
	}
	return strings.TrimSpace(v)
}

func fileError(err error) error {
	switch {
	case errors.Is(err, csvimport.ErrEmptyFile):
		return shared.NewValidationError("EMPTY_FILE", err.Error())
	case errors.Is(err, csvimport.ErrInvalidEncoding):
		return shared.NewValidationError("INVALID_ENCODING", err.Error())
	case errors.Is(err, csvimport.ErrMissingHeader):
		return shared.NewValidationError("MISSING_HEADER", err.Error())
	case errors.Is(err, csvimport.ErrNoDataRows):
		return shared.NewValidationError("NO_DATA_ROWS", err.Error())
	case errors.Is(err, csvimport.ErrFileTooLarge):
		return shared.NewValidationError("FILE_TOO_LARGE", err.Error())
	}
	return fmt.Errorf("failed to read import file: %w", err)
}
