package coa

import (
	"fmt"
	"sort"
	"strings"

	"github.com/erp/ledger/internal/domain/ledger"
)

// ConfidenceFloor is the minimum confidence a strategy needs to be used
const ConfidenceFloor = 30.0

// Strategy names
const (
	StrategyParentColumn  = "parent_column"
	StrategyCodeSeparator = "code_separator"
	StrategyCodeNumeric   = "code_numeric"
	StrategyIndentation   = "indentation"
	StrategyFlat          = "flat"
)

// Relationship links a child account code to its parent code
type Relationship struct {
	ChildCode  string `json:"child_code"`
	ParentCode string `json:"parent_code"`
}

// StrategyResult is the outcome of one strategy
type StrategyResult struct {
	Strategy      string         `json:"strategy"`
	Confidence    float64        `json:"confidence"`
	Reason        string         `json:"reason"`
	Relationships []Relationship `json:"relationships"`
}

// HierarchyResult is the chosen hierarchy plus every candidate considered, so
// operators see why a strategy won
type HierarchyResult struct {
	Strategy      string           `json:"strategy"`
	Confidence    float64          `json:"confidence"`
	Reason        string           `json:"reason"`
	Relationships []Relationship   `json:"relationships"`
	Candidates    []StrategyResult `json:"candidates"`
}

// ParentOf returns the parent code of child, if linked
func (h HierarchyResult) ParentOf(child string) (string, bool) {
	for _, r := range h.Relationships {
		if r.ChildCode == child {
			return r.ParentCode, true
		}
	}
	return "", false
}

// detectInput is the normalized view of the rows shared by every strategy
type detectInput struct {
	rows     []ImportRow
	mappings ColumnMappings
	codes    []string
	indexOf  map[string]int
	types    map[int]ledger.AccountType
}

type strategyFunc func(in *detectInput) StrategyResult

var strategies = []strategyFunc{
	parentColumnStrategy,
	codePrefixStrategy,
	indentationStrategy,
}

// DetectHierarchy infers parent/child relationships from imported rows. Every strategy
// runs independently; the highest confidence at or above ConfidenceFloor wins (ties go
// to the alphabetically first strategy name), otherwise the chart is treated as flat.
// Links whose parent and child have different inferred account types are dropped.
func DetectHierarchy(rows []ImportRow, mappings ColumnMappings, inferredTypes map[int]ledger.AccountType) HierarchyResult {
	in := newDetectInput(rows, mappings, inferredTypes)

	candidates := make([]StrategyResult, 0, len(strategies))
	for _, s := range strategies {
		candidates = append(candidates, s(in))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Strategy < candidates[j].Strategy
	})

	best := candidates[0]
	if best.Confidence < ConfidenceFloor {
		return HierarchyResult{
			Strategy:      StrategyFlat,
			Confidence:    0,
			Reason:        fmt.Sprintf("no strategy reached confidence %.0f (best: %s at %.1f); importing as a flat list", ConfidenceFloor, best.Strategy, best.Confidence),
			Relationships: []Relationship{},
			Candidates:    candidates,
		}
	}
	return HierarchyResult{
		Strategy:      best.Strategy,
		Confidence:    best.Confidence,
		Reason:        best.Reason,
		Relationships: best.Relationships,
		Candidates:    candidates,
	}
}

func newDetectInput(rows []ImportRow, mappings ColumnMappings, types map[int]ledger.AccountType) *detectInput {
	in := &detectInput{
		rows:     rows,
		mappings: mappings,
		indexOf:  make(map[string]int, len(rows)),
		types:    types,
	}
	for _, r := range rows {
		code := in.keyOf(r)
		if code == "" {
			continue
		}
		if _, dup := in.indexOf[code]; dup {
			continue
		}
		in.indexOf[code] = r.Index
		in.codes = append(in.codes, code)
	}
	return in
}

// keyOf identifies a row by its code, or by its trimmed name when there is no code column
func (in *detectInput) keyOf(r ImportRow) string {
	if v, ok := r.Value(in.mappings, FieldCode); ok {
		return strings.TrimSpace(v)
	}
	v, _ := r.Value(in.mappings, FieldName)
	return strings.TrimLeft(strings.TrimSpace(v), ":")
}

// compatible reports whether a child may hang under parent given inferred types
func (in *detectInput) compatible(child, parent string) bool {
	ct, ok1 := in.types[in.indexOf[child]]
	pt, ok2 := in.types[in.indexOf[parent]]
	return !ok1 || !ok2 || ct == pt
}

func failed(strategy, reason string) StrategyResult {
	return StrategyResult{Strategy: strategy, Reason: reason, Relationships: []Relationship{}}
}

// parentColumnStrategy reads an explicit parent reference column
func parentColumnStrategy(in *detectInput) StrategyResult {
	cm, ok := in.mappings[FieldParent]
	if !ok {
		return failed(StrategyParentColumn, "no parent column mapped")
	}

	var total, resolved int
	rels := []Relationship{}
	for _, r := range in.rows {
		parent := strings.TrimSpace(r.Values[cm.Column])
		if parent == "" {
			continue
		}
		total++
		child := in.keyOf(r)
		if _, exists := in.indexOf[parent]; !exists || parent == child || child == "" {
			continue
		}
		if !in.compatible(child, parent) {
			continue
		}
		resolved++
		rels = append(rels, Relationship{ChildCode: child, ParentCode: parent})
	}
	if total == 0 {
		return failed(StrategyParentColumn, fmt.Sprintf("parent column %q is empty", cm.Column))
	}

	resolvedPct := float64(resolved) / float64(total) * 100
	return StrategyResult{
		Strategy:      StrategyParentColumn,
		Confidence:    0.6*cm.Confidence + 0.4*resolvedPct,
		Reason:        fmt.Sprintf("column %q references a parent on %d rows, %d resolve to existing codes", cm.Column, total, resolved),
		Relationships: rels,
	}
}

var separators = []string{"-", ".", "_"}

// codePrefixStrategy links codes that extend another code. Separated codes are
// shortened segment by segment; purely numeric codes fall back to zeroing trailing digits.
func codePrefixStrategy(in *detectInput) StrategyResult {
	if len(in.codes) < 2 {
		return failed(StrategyCodeSeparator, "fewer than two codes")
	}
	if res, ok := separatorStrategy(in); ok {
		return res
	}
	return numericStrategy(in)
}

func separatorStrategy(in *detectInput) (StrategyResult, bool) {
	sep, used := "", 0
	for _, s := range separators {
		n := 0
		for _, c := range in.codes {
			if strings.Contains(c, s) {
				n++
			}
		}
		if n > used {
			sep, used = s, n
		}
	}
	if sep == "" || float64(used)/float64(len(in.codes)) < 0.3 {
		return StrategyResult{}, false
	}

	rels := []Relationship{}
	for _, c := range in.codes {
		segments := strings.Split(c, sep)
		for n := len(segments) - 1; n > 0; n-- {
			candidate := strings.Join(segments[:n], sep)
			if _, exists := in.indexOf[candidate]; exists {
				if in.compatible(c, candidate) {
					rels = append(rels, Relationship{ChildCode: c, ParentCode: candidate})
				}
				break
			}
		}
	}
	if len(rels) == 0 {
		return StrategyResult{}, false
	}

	fraction := float64(len(rels)) / float64(len(in.codes))
	return StrategyResult{
		Strategy:      StrategyCodeSeparator,
		Confidence:    55 + 40*fraction,
		Reason:        fmt.Sprintf("%d of %d codes use separator %q; %d linked to a shorter code", used, len(in.codes), sep, len(rels)),
		Relationships: rels,
	}, true
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func numericStrategy(in *detectInput) StrategyResult {
	for _, c := range in.codes {
		if !isNumeric(c) {
			return failed(StrategyCodeNumeric, "codes are neither separated nor purely numeric")
		}
	}

	rels := []Relationship{}
	for _, c := range in.codes {
		// keep at least the leading digit; the closest non-identical rounding wins
		for k := 1; k < len(c); k++ {
			candidate := c[:len(c)-k] + strings.Repeat("0", k)
			if candidate == c {
				continue
			}
			if _, exists := in.indexOf[candidate]; exists {
				if in.compatible(c, candidate) {
					rels = append(rels, Relationship{ChildCode: c, ParentCode: candidate})
				}
				break
			}
		}
	}
	if len(rels) == 0 {
		return failed(StrategyCodeNumeric, "no numeric code rounds to another code")
	}

	return StrategyResult{
		Strategy:      StrategyCodeNumeric,
		Confidence:    40 + 35*float64(len(rels))/float64(len(in.codes)),
		Reason:        fmt.Sprintf("%d of %d numeric codes round to an existing parent code", len(rels), len(in.codes)),
		Relationships: rels,
	}
}

// indentDepth returns the raw indentation of a name: leading spaces (tabs count as
// four) or leading colons
func indentDepth(name string, colons bool) int {
	n := 0
	for _, r := range name {
		switch {
		case colons && r == ':':
			n++
		case !colons && r == ' ':
			n++
		case !colons && r == '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

// indentationStrategy assigns parents from the indentation of the name column
func indentationStrategy(in *detectInput) StrategyResult {
	cm, ok := in.mappings[FieldName]
	if !ok {
		return failed(StrategyIndentation, "no name column mapped")
	}

	measure := func(colons bool) ([]int, int) {
		depths := make([]int, len(in.rows))
		unit := 0
		for i, r := range in.rows {
			d := indentDepth(r.Values[cm.Column], colons)
			depths[i] = d
			if d > 0 && (unit == 0 || d < unit) {
				unit = d
			}
		}
		return depths, unit
	}

	depths, unit := measure(false)
	marker := "leading spaces"
	if unit == 0 {
		depths, unit = measure(true)
		marker = "colon prefixes"
	}
	if unit == 0 {
		return failed(StrategyIndentation, "names carry no indentation")
	}

	type frame struct {
		depth int
		code  string
	}
	var stack []frame
	indented, assigned := 0, 0
	rels := []Relationship{}
	for i, r := range in.rows {
		code := in.keyOf(r)
		if code == "" {
			continue
		}
		depth := depths[i] / unit
		for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
			stack = stack[:len(stack)-1]
		}
		if depth > 0 {
			indented++
			if len(stack) > 0 && in.compatible(code, stack[len(stack)-1].code) {
				assigned++
				rels = append(rels, Relationship{ChildCode: code, ParentCode: stack[len(stack)-1].code})
			}
		}
		stack = append(stack, frame{depth: depth, code: code})
	}
	if indented == 0 {
		return failed(StrategyIndentation, "names carry no indentation")
	}

	return StrategyResult{
		Strategy:      StrategyIndentation,
		Confidence:    40 + 35*float64(assigned)/float64(indented),
		Reason:        fmt.Sprintf("%d indented names (%s), %d placed under a shallower row", indented, marker, assigned),
		Relationships: rels,
	}
}
