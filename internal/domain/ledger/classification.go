package ledger

import (
	"strings"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// NormalizeClassificationName folds a name for case-insensitive uniqueness
func NormalizeClassificationName(name string) string {
	// Casers carry state and must not be shared between goroutines
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// Classification groups accounts for reporting. Names are unique per tenant ignoring case.
type Classification struct {
	shared.BaseEntity
	TenantID       uuid.UUID
	Name           string
	NormalizedName string
	AccountType    AccountType
	SortOrder      int
}

// NewClassification creates a classification
func NewClassification(tenantID uuid.UUID, name string, accountType AccountType, sortOrder int) (*Classification, error) {
	c := &Classification{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
	}
	if err := c.apply(name, accountType, sortOrder); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the mutable fields
func (c *Classification) Update(name string, accountType AccountType, sortOrder int) error {
	if err := c.apply(name, accountType, sortOrder); err != nil {
		return err
	}
	c.Touch()
	return nil
}

func (c *Classification) apply(name string, accountType AccountType, sortOrder int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("INVALID_CLASSIFICATION_NAME", "Classification name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewValidationError("INVALID_CLASSIFICATION_NAME", "Classification name cannot exceed 100 characters")
	}
	if !accountType.IsValid() {
		return shared.NewValidationError("INVALID_ACCOUNT_TYPE", "Unknown account type: "+string(accountType))
	}
	if sortOrder < 0 {
		return shared.NewValidationError("INVALID_SORT_ORDER", "Sort order cannot be negative")
	}
	c.Name = name
	c.NormalizedName = NormalizeClassificationName(name)
	c.AccountType = accountType
	c.SortOrder = sortOrder
	return nil
}
