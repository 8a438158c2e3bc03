package coa

import (
	"sort"
	"strings"

	"github.com/erp/ledger/internal/domain/ledger"
)

// StatePlaceholder is replaced by the jurisdiction name when a template is applied
const StatePlaceholder = "{state}"

// Template keys
const (
	TemplateStandard    = "standard"
	TemplateHospitality = "hospitality"
)

// ClassificationTemplate seeds a classification shared by every chart template
type ClassificationTemplate struct {
	Name        string
	AccountType ledger.AccountType
	SortOrder   int
}

// AccountTemplate seeds one account of a chart template
type AccountTemplate struct {
	Number         string
	Name           string
	AccountType    ledger.AccountType
	Classification string
	// Control tags the account as the tenant default for a control slot
	Control     ledger.ControlAccountType
	Description string
}

// Resolve returns a copy with the state placeholder replaced in number and name
func (t AccountTemplate) Resolve(stateName string) AccountTemplate {
	t.Number = ResolvePlaceholder(t.Number, stateName)
	t.Name = ResolvePlaceholder(t.Name, stateName)
	t.Description = ResolvePlaceholder(t.Description, stateName)
	return t
}

// ResolvePlaceholder substitutes stateName for StatePlaceholder. With no state the
// placeholder is dropped and the surrounding whitespace collapsed.
func ResolvePlaceholder(s, stateName string) string {
	if !strings.Contains(s, StatePlaceholder) {
		return s
	}
	stateName = strings.TrimSpace(stateName)
	s = strings.ReplaceAll(s, StatePlaceholder, stateName)
	return strings.Join(strings.Fields(s), " ")
}

var sharedClassifications = []ClassificationTemplate{
	{Name: "Current Assets", AccountType: ledger.AccountTypeAsset, SortOrder: 10},
	{Name: "Fixed Assets", AccountType: ledger.AccountTypeAsset, SortOrder: 20},
	{Name: "Current Liabilities", AccountType: ledger.AccountTypeLiability, SortOrder: 30},
	{Name: "Long-Term Liabilities", AccountType: ledger.AccountTypeLiability, SortOrder: 40},
	{Name: "Equity", AccountType: ledger.AccountTypeEquity, SortOrder: 50},
	{Name: "Operating Revenue", AccountType: ledger.AccountTypeRevenue, SortOrder: 60},
	{Name: "Other Revenue", AccountType: ledger.AccountTypeRevenue, SortOrder: 70},
	{Name: "Cost of Sales", AccountType: ledger.AccountTypeExpense, SortOrder: 80},
	{Name: "Operating Expenses", AccountType: ledger.AccountTypeExpense, SortOrder: 90},
}

var standardAccounts = []AccountTemplate{
	{Number: "1000", Name: "Cash on Hand", AccountType: ledger.AccountTypeAsset, Classification: "Current Assets"},
	{Number: "1010", Name: "Operating Bank Account", AccountType: ledger.AccountTypeAsset, Classification: "Current Assets"},
	{Number: "1050", Name: "Undeposited Funds", AccountType: ledger.AccountTypeAsset, Classification: "Current Assets", Control: ledger.ControlUndepositedFunds},
	{Number: "1200", Name: "Accounts Receivable", AccountType: ledger.AccountTypeAsset, Classification: "Current Assets", Control: ledger.ControlAR},
	{Number: "1500", Name: "Equipment", AccountType: ledger.AccountTypeAsset, Classification: "Fixed Assets"},
	{Number: "2000", Name: "Accounts Payable", AccountType: ledger.AccountTypeLiability, Classification: "Current Liabilities", Control: ledger.ControlAP},
	{Number: "2100", Name: "{state} Sales Tax Payable", AccountType: ledger.AccountTypeLiability, Classification: "Current Liabilities", Control: ledger.ControlSalesTaxPayable},
	{Number: "2500", Name: "Notes Payable", AccountType: ledger.AccountTypeLiability, Classification: "Long-Term Liabilities"},
	{Number: "3000", Name: "Owner's Equity", AccountType: ledger.AccountTypeEquity, Classification: "Equity"},
	{Number: "3200", Name: "Retained Earnings", AccountType: ledger.AccountTypeEquity, Classification: "Equity"},
	{Number: "4000", Name: "Sales Revenue", AccountType: ledger.AccountTypeRevenue, Classification: "Operating Revenue"},
	{Number: "4900", Name: "Uncategorized Revenue", AccountType: ledger.AccountTypeRevenue, Classification: "Other Revenue", Control: ledger.ControlUncategorizedRevenue},
	{Number: "4950", Name: "Sales Discounts", AccountType: ledger.AccountTypeRevenue, Classification: "Operating Revenue"},
	{Number: "5000", Name: "Cost of Goods Sold", AccountType: ledger.AccountTypeExpense, Classification: "Cost of Sales"},
	{Number: "6000", Name: "Operating Expenses", AccountType: ledger.AccountTypeExpense, Classification: "Operating Expenses"},
	{Number: "6900", Name: "Rounding and Cash Over/Short", AccountType: ledger.AccountTypeExpense, Classification: "Operating Expenses", Control: ledger.ControlRounding},
}

var hospitalityAccounts = append(append([]AccountTemplate{}, standardAccounts...),
	AccountTemplate{Number: "1020", Name: "Card Clearing", AccountType: ledger.AccountTypeAsset, Classification: "Current Assets"},
	AccountTemplate{Number: "1250", Name: "Guest Ledger", AccountType: ledger.AccountTypeAsset, Classification: "Current Assets", Control: ledger.ControlGuestLedger},
	AccountTemplate{Number: "2200", Name: "Tips Payable", AccountType: ledger.AccountTypeLiability, Classification: "Current Liabilities", Control: ledger.ControlTipsPayable},
	AccountTemplate{Number: "2150", Name: "{state} Occupancy Tax Payable", AccountType: ledger.AccountTypeLiability, Classification: "Current Liabilities"},
	AccountTemplate{Number: "4100", Name: "Food Revenue", AccountType: ledger.AccountTypeRevenue, Classification: "Operating Revenue"},
	AccountTemplate{Number: "4200", Name: "Beverage Revenue", AccountType: ledger.AccountTypeRevenue, Classification: "Operating Revenue"},
	AccountTemplate{Number: "4300", Name: "Room Revenue", AccountType: ledger.AccountTypeRevenue, Classification: "Operating Revenue"},
	AccountTemplate{Number: "4400", Name: "Service Charge Revenue", AccountType: ledger.AccountTypeRevenue, Classification: "Operating Revenue", Control: ledger.ControlServiceChargeRevenue},
	AccountTemplate{Number: "5100", Name: "Comps", AccountType: ledger.AccountTypeExpense, Classification: "Cost of Sales"},
)

var accountTemplates = map[string][]AccountTemplate{
	TemplateStandard:    standardAccounts,
	TemplateHospitality: hospitalityAccounts,
}

// wellKnownControlNumbers binds control slots whose template rows carry no tag
var wellKnownControlNumbers = map[string]ledger.ControlAccountType{
	"3200": ledger.ControlRetainedEarnings,
}

// SharedClassifications returns the classifications seeded for every template
func SharedClassifications() []ClassificationTemplate {
	out := make([]ClassificationTemplate, len(sharedClassifications))
	copy(out, sharedClassifications)
	return out
}

// AccountTemplates returns the account rows of a template, or nil for an unknown key
func AccountTemplates(key string) []AccountTemplate {
	rows, ok := accountTemplates[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil
	}
	out := make([]AccountTemplate, len(rows))
	copy(out, rows)
	return out
}

// TemplateKeys lists the known template keys
func TemplateKeys() []string {
	keys := make([]string, 0, len(accountTemplates))
	for k := range accountTemplates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ControlTypeFor returns the control slot an account template feeds, by tag first
// and then by well-known account number
func ControlTypeFor(t AccountTemplate) (ledger.ControlAccountType, bool) {
	if t.Control != "" {
		return t.Control, true
	}
	ct, ok := wellKnownControlNumbers[t.Number]
	return ct, ok
}
