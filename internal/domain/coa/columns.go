package coa

import (
	"strings"
	"unicode"

	"github.com/erp/ledger/internal/domain/ledger"
)

// Field is a chart-of-accounts attribute an import column can carry
type Field string

const (
	FieldCode        Field = "code"
	FieldName        Field = "name"
	FieldParent      Field = "parent"
	FieldType        Field = "type"
	FieldDescription Field = "description"
)

// ColumnMapping binds a field to a source column with a 0–100 confidence
type ColumnMapping struct {
	Column     string  `json:"column"`
	Confidence float64 `json:"confidence"`
}

// ColumnMappings maps fields to the columns that carry them
type ColumnMappings map[Field]ColumnMapping

// ImportRow is one data row of an imported chart, keyed by source column header
type ImportRow struct {
	Index  int
	Values map[string]string
}

// Value returns the raw value of a mapped field
func (r ImportRow) Value(m ColumnMappings, f Field) (string, bool) {
	cm, ok := m[f]
	if !ok {
		return "", false
	}
	v, ok := r.Values[cm.Column]
	return v, ok
}

type headerHint struct {
	field      Field
	exact      []string
	contains   []string
	confidence float64
}

var headerHints = []headerHint{
	{FieldParent, []string{"parent", "parent code", "parent account", "parent number", "parent account number"}, []string{"parent"}, 95},
	{FieldCode, []string{"code", "account code", "account number", "number", "acct no", "account no", "no"}, []string{"number", "code", "acct"}, 95},
	{FieldName, []string{"name", "account name", "account", "title", "description of account"}, []string{"name", "title"}, 90},
	{FieldType, []string{"type", "account type", "category", "class"}, []string{"type"}, 90},
	{FieldDescription, []string{"description", "notes", "memo"}, []string{"desc"}, 80},
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || r == '.' || r == '#' {
			return ' '
		}
		return r
	}, h)
	return strings.Join(strings.Fields(h), " ")
}

// InferColumnMappings guesses which header carries each field. Exact matches score
// the hint's confidence, substring matches 30 points less. A column is used once.
func InferColumnMappings(headers []string) ColumnMappings {
	mappings := make(ColumnMappings)
	used := make(map[string]bool)
	for _, hint := range headerHints {
		best := ColumnMapping{}
		for _, h := range headers {
			if used[h] {
				continue
			}
			n := normalizeHeader(h)
			score := 0.0
			for _, e := range hint.exact {
				if n == e {
					score = hint.confidence
					break
				}
			}
			if score == 0 {
				for _, c := range hint.contains {
					if strings.Contains(n, c) {
						score = hint.confidence - 30
						break
					}
				}
			}
			if score > best.Confidence {
				best = ColumnMapping{Column: h, Confidence: score}
			}
		}
		if best.Column != "" {
			mappings[hint.field] = best
			used[best.Column] = true
		}
	}
	return mappings
}

// InferAccountType infers an account type from an explicit type value, then from
// the leading digit of a numeric code (1 asset … 5–9 expense)
func InferAccountType(typeValue, code string) (ledger.AccountType, bool) {
	if t, ok := ledger.ParseAccountType(typeValue); ok {
		return t, true
	}
	code = strings.TrimSpace(code)
	if code == "" || !unicode.IsDigit(rune(code[0])) {
		return "", false
	}
	switch code[0] {
	case '1':
		return ledger.AccountTypeAsset, true
	case '2':
		return ledger.AccountTypeLiability, true
	case '3':
		return ledger.AccountTypeEquity, true
	case '4':
		return ledger.AccountTypeRevenue, true
	case '5', '6', '7', '8', '9':
		return ledger.AccountTypeExpense, true
	}
	return "", false
}
