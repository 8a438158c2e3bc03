package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxJournalPageSize caps journal listings
const maxJournalPageSize = 100

// GormJournalEntryRepository implements ledger.JournalEntryRepository using GORM
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_number ASC")
}

// FindByID finds a journal entry with its lines
func (r *GormJournalEntryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the entry row, then loads its lines
func (r *GormJournalEntryRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("journal_entry_id = ?", model.ID).
		Order("line_number ASC").
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySource returns the original entry posted for a source document, ignoring reversals
func (r *GormJournalEntryRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceModule, sourceReferenceID string) (*ledger.JournalEntry, error) {
	var model models.JournalEntryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		Where("tenant_id = ? AND source_module = ? AND source_reference_id = ?", tenantID, sourceModule, sourceReferenceID).
		Where("reversal_of_id IS NULL").
		Order("created_at ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormJournalEntryRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.JournalEntryModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SourceModule != "" {
		query = query.Where("source_module = ?", filter.SourceModule)
	}
	if filter.From != nil {
		query = query.Where("entry_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("entry_date <= ?", *filter.To)
	}
	return query
}

// List returns a page of entries, newest entry date first, and the total match count
func (r *GormJournalEntryRepository) List(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalFilter) ([]*ledger.JournalEntry, int64, error) {
	var total int64
	if err := r.filtered(ctx, tenantID, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Pagination.Normalize(maxJournalPageSize)
	var entryModels []models.JournalEntryModel
	if err := r.filtered(ctx, tenantID, filter).
		Preload("Lines", orderedLines).
		Order("entry_date DESC, created_at DESC").
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&entryModels).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]*ledger.JournalEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, total, nil
}

// Create inserts the entry header and its lines
func (r *GormJournalEntryRepository) Create(ctx context.Context, entry *ledger.JournalEntry) error {
	model := models.JournalEntryModelFromDomain(entry)
	return wrapWriteError(r.db.WithContext(ctx).Create(model).Error, "create journal entry")
}

// UpdateStatus writes the lifecycle columns of the header
func (r *GormJournalEntryRepository) UpdateStatus(ctx context.Context, entry *ledger.JournalEntry) error {
	result := r.db.WithContext(ctx).
		Model(&models.JournalEntryModel{}).
		Where("id = ? AND tenant_id = ?", entry.ID, entry.TenantID).
		Updates(map[string]any{
			"journal_number": entry.JournalNumber,
			"status":         entry.Status,
			"reversed_by_id": entry.ReversedByID,
			"posted_at":      entry.PostedAt,
			"posted_by":      entry.PostedBy,
			"voided_at":      entry.VoidedAt,
			"voided_by":      entry.VoidedBy,
			"void_reason":    entry.VoidReason,
			"version":        entry.Version,
			"updated_at":     entry.UpdatedAt,
		})
	if result.Error != nil {
		return wrapWriteError(result.Error, "update journal entry")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("journal entry %s not found", entry.ID)
	}
	return nil
}

// NextJournalNumber increments the tenant's sequence row and returns the new value.
// The UPDATE holds the row lock until the surrounding transaction ends, so numbers
// are issued gap-free in commit order.
func (r *GormJournalEntryRepository) NextJournalNumber(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	db := r.db.WithContext(ctx)
	seq := models.JournalSequenceModel{TenantID: tenantID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return 0, fmt.Errorf("failed to initialize journal sequence: %w", err)
	}
	if err := db.Model(&models.JournalSequenceModel{}).
		Where("tenant_id = ?", tenantID).
		Update("last_number", gorm.Expr("last_number + 1")).Error; err != nil {
		return 0, fmt.Errorf("failed to advance journal sequence: %w", err)
	}
	var next int64
	if err := db.Model(&models.JournalSequenceModel{}).
		Where("tenant_id = ?", tenantID).
		Select("last_number").
		Scan(&next).Error; err != nil {
		return 0, fmt.Errorf("failed to read journal sequence: %w", err)
	}
	return next, nil
}

// Ensure GormJournalEntryRepository implements JournalEntryRepository
var _ ledger.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
