package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountRepository implements ledger.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by ID for a tenant
func (r *GormAccountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the given accounts keyed by ID. Unknown IDs are absent from the map.
func (r *GormAccountRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*ledger.Account, error) {
	result := make(map[uuid.UUID]*ledger.Account, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var accountModels []models.AccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&accountModels).Error; err != nil {
		return nil, err
	}
	for i := range accountModels {
		a := accountModels[i].ToDomain()
		result[a.ID] = a
	}
	return result, nil
}

// FindByNumber finds an account by its number for a tenant
func (r *GormAccountRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*ledger.Account, error) {
	var model models.AccountModel
	if err := r.db.WithContext(ctx).
		First(&model, "tenant_id = ? AND account_number = ?", tenantID, strings.TrimSpace(number)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns the tenant's accounts ordered by account number
func (r *GormAccountRepository) List(ctx context.Context, tenantID uuid.UUID, filter ledger.AccountFilter) ([]*ledger.Account, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filter.AccountType != nil {
		query = query.Where("account_type = ?", *filter.AccountType)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR account_number LIKE ?)", like, like)
	}

	var accountModels []models.AccountModel
	if err := query.Order("account_number ASC").Find(&accountModels).Error; err != nil {
		return nil, err
	}
	accounts := make([]*ledger.Account, len(accountModels))
	for i := range accountModels {
		accounts[i] = accountModels[i].ToDomain()
	}
	return accounts, nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, account *ledger.Account) error {
	model := models.AccountModelFromDomain(account)
	return wrapWriteError(r.db.WithContext(ctx).Save(model).Error, "save account "+account.AccountNumber)
}

// SaveBatch inserts new accounts in batches
func (r *GormAccountRepository) SaveBatch(ctx context.Context, accounts []*ledger.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	accountModels := make([]*models.AccountModel, len(accounts))
	for i, a := range accounts {
		accountModels[i] = models.AccountModelFromDomain(a)
	}
	return wrapWriteError(r.db.WithContext(ctx).CreateInBatches(accountModels, 100).Error, "insert accounts")
}

// Delete hard-deletes an account
func (r *GormAccountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AccountModel{}, "id = ? AND tenant_id = ?", id, tenantID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete account: %w", result.Error)
	}
	return nil
}

// Count counts the tenant's accounts
func (r *GormAccountRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AccountModel{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// HasPostedLines reports whether a posted or voided entry has a line on the account
func (r *GormAccountRepository) HasPostedLines(ctx context.Context, tenantID, accountID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.JournalLineModel{}).
		Joins("JOIN gl_journal_entries ON gl_journal_entries.id = gl_journal_lines.journal_entry_id").
		Where("gl_journal_lines.tenant_id = ? AND gl_journal_lines.account_id = ?", tenantID, accountID).
		Where("gl_journal_entries.status IN ?", []ledger.JournalStatus{ledger.JournalStatusPosted, ledger.JournalStatusVoided}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormAccountRepository implements AccountRepository
var _ ledger.AccountRepository = (*GormAccountRepository)(nil)
