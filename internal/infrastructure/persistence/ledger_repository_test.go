package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func mustAccount(t *testing.T, db *gorm.DB, tenantID uuid.UUID, number, name string, accountType ledger.AccountType) *ledger.Account {
	t.Helper()
	acct, err := ledger.NewAccount(tenantID, number, name, accountType, nil)
	require.NoError(t, err)
	require.NoError(t, NewGormAccountRepository(db).Save(context.Background(), acct))
	return acct
}

func newTestEntry(t *testing.T, tenantID uuid.UUID, source, ref string, debit, credit uuid.UUID, cents valueobject.Cents) *ledger.JournalEntry {
	t.Helper()
	entry, err := ledger.NewJournalEntry(tenantID, ledger.EntryParams{
		SourceModule:      source,
		SourceReferenceID: ref,
		EntryDate:         time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Memo:              "test entry",
		CreatedBy:         uuid.New(),
		Lines: []ledger.LineParams{
			{AccountID: debit, DebitCents: cents, Description: "debit"},
			{AccountID: credit, CreditCents: cents, Description: "credit"},
		},
	})
	require.NoError(t, err)
	return entry
}

func TestGormAccountRepository(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	cash := mustAccount(t, db, tenantID, "1000", "Cash", ledger.AccountTypeAsset)
	mustAccount(t, db, tenantID, "4000", "Sales Revenue", ledger.AccountTypeRevenue)
	mustAccount(t, db, uuid.New(), "1000", "Other Tenant Cash", ledger.AccountTypeAsset)

	t.Run("finds by id and number within tenant", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, cash.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Cash", found.Name)
		assert.Equal(t, ledger.NormalBalanceDebit, found.NormalBalance)
		assert.True(t, found.IsActive)

		byNumber, err := repo.FindByNumber(ctx, tenantID, " 1000 ")
		require.NoError(t, err)
		require.NotNil(t, byNumber)
		assert.Equal(t, cash.ID, byNumber.ID)
	})

	t.Run("returns nil for missing or foreign account", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New(), cash.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("duplicate number is a unique violation", func(t *testing.T) {
		dup, err := ledger.NewAccount(tenantID, "1000", "Cash Again", ledger.AccountTypeAsset, nil)
		require.NoError(t, err)
		err = repo.Save(ctx, dup)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrUniqueViolation)
	})

	t.Run("lists with filters", func(t *testing.T) {
		revenue := ledger.AccountTypeRevenue
		items, err := repo.List(ctx, tenantID, ledger.AccountFilter{AccountType: &revenue})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "4000", items[0].AccountNumber)

		items, err = repo.List(ctx, tenantID, ledger.AccountFilter{Search: "cas"})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, cash.ID, items[0].ID)

		count, err := repo.Count(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("inactive accounts keep their flag", func(t *testing.T) {
		acct := mustAccount(t, db, tenantID, "1900", "Old Clearing", ledger.AccountTypeAsset)
		acct.Deactivate()
		require.NoError(t, repo.Save(ctx, acct))

		found, err := repo.FindByID(ctx, tenantID, acct.ID)
		require.NoError(t, err)
		assert.False(t, found.IsActive)

		active, err := repo.List(ctx, tenantID, ledger.AccountFilter{ActiveOnly: true})
		require.NoError(t, err)
		for _, a := range active {
			assert.NotEqual(t, acct.ID, a.ID)
		}
	})

	t.Run("FindByIDs skips unknown ids", func(t *testing.T) {
		found, err := repo.FindByIDs(ctx, tenantID, []uuid.UUID{cash.ID, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, found, 1)
		assert.Contains(t, found, cash.ID)
	})

	t.Run("SaveBatch and Delete", func(t *testing.T) {
		a1, _ := ledger.NewAccount(tenantID, "6100", "Rent", ledger.AccountTypeExpense, nil)
		a2, _ := ledger.NewAccount(tenantID, "6200", "Utilities", ledger.AccountTypeExpense, nil)
		require.NoError(t, repo.SaveBatch(ctx, []*ledger.Account{a1, a2}))

		require.NoError(t, repo.Delete(ctx, tenantID, a1.ID))
		found, err := repo.FindByID(ctx, tenantID, a1.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormAccountRepository_HasPostedLines(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	cash := mustAccount(t, db, tenantID, "1000", "Cash", ledger.AccountTypeAsset)
	sales := mustAccount(t, db, tenantID, "4000", "Sales", ledger.AccountTypeRevenue)
	unused := mustAccount(t, db, tenantID, "5000", "Unused", ledger.AccountTypeExpense)

	journals := NewGormJournalEntryRepository(db)
	draft := newTestEntry(t, tenantID, "manual", "", cash.ID, unused.ID, 100)
	require.NoError(t, journals.Create(ctx, draft))

	posted := newTestEntry(t, tenantID, "manual", "", cash.ID, sales.ID, 100)
	require.NoError(t, posted.Post(1, 0, uuid.New()))
	require.NoError(t, journals.Create(ctx, posted))

	accounts := NewGormAccountRepository(db)
	used, err := accounts.HasPostedLines(ctx, tenantID, sales.ID)
	require.NoError(t, err)
	assert.True(t, used)

	used, err = accounts.HasPostedLines(ctx, tenantID, unused.ID)
	require.NoError(t, err)
	assert.False(t, used, "draft lines do not count")
}

func TestGormJournalEntryRepository(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	repo := NewGormJournalEntryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	cash := mustAccount(t, db, tenantID, "1000", "Cash", ledger.AccountTypeAsset)
	sales := mustAccount(t, db, tenantID, "4000", "Sales", ledger.AccountTypeRevenue)

	entry := newTestEntry(t, tenantID, "fnb", "order-1", cash.ID, sales.ID, 1250)
	require.NoError(t, repo.Create(ctx, entry))

	t.Run("round-trips lines in order", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, entry.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		require.Len(t, found.Lines, 2)
		assert.Equal(t, 1, found.Lines[0].LineNumber)
		assert.Equal(t, valueobject.Cents(1250), found.Lines[0].DebitCents)
		assert.Equal(t, valueobject.Cents(1250), found.Lines[1].CreditCents)
		assert.Equal(t, ledger.JournalStatusDraft, found.Status)
		assert.Nil(t, found.JournalNumber)
	})

	t.Run("FindByIDForUpdate loads lines", func(t *testing.T) {
		found, err := repo.FindByIDForUpdate(ctx, tenantID, entry.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Len(t, found.Lines, 2)
	})

	t.Run("second original entry for a source is rejected", func(t *testing.T) {
		dup := newTestEntry(t, tenantID, "fnb", "order-1", cash.ID, sales.ID, 1250)
		err := repo.Create(ctx, dup)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrUniqueViolation)
	})

	t.Run("posting and voiding with a reversal", func(t *testing.T) {
		number, err := repo.NextJournalNumber(ctx, tenantID)
		require.NoError(t, err)
		require.NoError(t, entry.Post(number, 0, uuid.New()))
		require.NoError(t, repo.UpdateStatus(ctx, entry))

		rev, err := entry.Reverse(uuid.New(), entry.EntryDate)
		require.NoError(t, err)
		revNumber, err := repo.NextJournalNumber(ctx, tenantID)
		require.NoError(t, err)
		require.NoError(t, rev.Post(revNumber, 0, uuid.New()))
		require.NoError(t, repo.Create(ctx, rev), "reversal shares the source key")

		require.NoError(t, entry.Void(uuid.New(), "wrong amount", rev.ID))
		require.NoError(t, repo.UpdateStatus(ctx, entry))

		original, err := repo.FindBySource(ctx, tenantID, "fnb", "order-1")
		require.NoError(t, err)
		require.NotNil(t, original)
		assert.Equal(t, entry.ID, original.ID)
		assert.Equal(t, ledger.JournalStatusVoided, original.Status)
		require.NotNil(t, original.ReversedByID)
		assert.Equal(t, rev.ID, *original.ReversedByID)
		assert.Equal(t, "wrong amount", original.VoidReason)
	})

	t.Run("lists with status filter and total", func(t *testing.T) {
		voided := ledger.JournalStatusVoided
		items, total, err := repo.List(ctx, tenantID, ledger.JournalFilter{Status: &voided})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Len(t, items[0].Lines, 2)

		items, total, err = repo.List(ctx, tenantID, ledger.JournalFilter{
			SourceModule: "fnb",
			Pagination:   shared.Pagination{Page: 1, PageSize: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, items, 1)
	})

	t.Run("FindBySource returns nil when nothing was posted", func(t *testing.T) {
		found, err := repo.FindBySource(ctx, tenantID, "fnb", "order-404")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormJournalEntryRepository_NextJournalNumber(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	repo := NewGormJournalEntryRepository(db)
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.NextJournalNumber(ctx, tenantA)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := repo.NextJournalNumber(ctx, tenantB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "sequences are per tenant")

	t.Run("rolled back allocation is reissued", func(t *testing.T) {
		_ = db.Transaction(func(tx *gorm.DB) error {
			n, err := NewGormJournalEntryRepository(tx).NextJournalNumber(ctx, tenantA)
			require.NoError(t, err)
			assert.Equal(t, int64(4), n)
			return assert.AnError
		})
		n, err := repo.NextJournalNumber(ctx, tenantA)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})
}

func TestGormClassificationRepository(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	repo := NewGormClassificationRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	c, err := ledger.NewClassification(tenantID, "Current Assets", ledger.AccountTypeAsset, 10)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	found, err := repo.FindByNormalizedName(ctx, tenantID, ledger.NormalizeClassificationName("CURRENT  assets"))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, c.ID, found.ID)

	dup, err := ledger.NewClassification(tenantID, "current assets", ledger.AccountTypeAsset, 20)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrUniqueViolation)

	other, err := ledger.NewClassification(tenantID, "Bank", ledger.AccountTypeAsset, 5)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	items, err := repo.List(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Bank", items[0].Name)

	count, err := repo.Count(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGormSettingsRepository(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	repo := NewGormSettingsRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	missing, err := repo.FindByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	settings := ledger.NewAccountingSettings(tenantID)
	settings.RoundingToleranceCents = 0
	require.NoError(t, repo.Create(ctx, settings))

	again := ledger.NewAccountingSettings(tenantID)
	assert.ErrorIs(t, repo.Create(ctx, again), shared.ErrUniqueViolation)

	ar := uuid.New()
	require.NoError(t, settings.SetDefault(ledger.ControlAR, ar))
	settings.AutoPostMode = ledger.AutoPostModeManual
	require.NoError(t, repo.Update(ctx, settings))

	found, err := repo.FindByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, ledger.AutoPostModeManual, found.AutoPostMode)
	assert.Equal(t, int64(0), found.RoundingToleranceCents)
	require.NotNil(t, found.DefaultFor(ledger.ControlAR))
	assert.Equal(t, ar, *found.DefaultFor(ledger.ControlAR))
}

func TestGormMappingRepository(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	repo := NewGormMappingRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	m, err := ledger.NewGLAccountMapping(tenantID, "department", "")
	require.NoError(t, err)
	revenue := uuid.New()
	m.RevenueAccountID = &revenue
	require.NoError(t, repo.Save(ctx, m))

	found, err := repo.Find(ctx, tenantID, "department", ledger.DefaultEntityID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.IsDefault())
	assert.Equal(t, revenue, *found.AccountFor(ledger.RoleRevenue))

	missing, err := repo.Find(ctx, tenantID, "department", "bar")
	require.NoError(t, err)
	assert.Nil(t, missing)

	items, err := repo.List(ctx, tenantID, "")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestGormUnmappedEventRepository(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	repo := NewGormUnmappedEventRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	first := ledger.NewUnmappedEvent(tenantID, "fnb", "order-1", ledger.CategoryDiscount, "discount", "happy-hour", "no mapping")
	first.Payload = []byte(`{"amount_cents":500}`)
	second := ledger.NewUnmappedEvent(tenantID, "fnb", "order-2", ledger.CategoryComp, "comp", "", "no mapping")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	require.NoError(t, first.Resolve())
	require.NoError(t, repo.Update(ctx, first))

	open, total, err := repo.List(ctx, tenantID, true, shared.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ID)

	found, err := repo.FindByID(ctx, tenantID, first.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.NotNil(t, found.ResolvedAt)
	assert.JSONEq(t, `{"amount_cents":500}`, string(found.Payload))
}

func TestGormIdempotencyKeyRepository(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	repo := NewGormIdempotencyKeyRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	key := ledger.NewIdempotencyKey(tenantID, "req-1", "journal.post", []byte(`{"id":"abc"}`))
	require.NoError(t, repo.Create(ctx, key))

	dup := ledger.NewIdempotencyKey(tenantID, "req-1", "journal.post", []byte(`{}`))
	assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrUniqueViolation)

	otherOp := ledger.NewIdempotencyKey(tenantID, "req-1", "journal.void", []byte(`{}`))
	require.NoError(t, repo.Create(ctx, otherOp), "keys are scoped by operation")

	found, err := repo.Find(ctx, tenantID, "req-1", "journal.post")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.JSONEq(t, `{"id":"abc"}`, string(found.CachedResult))

	removed, err := repo.DeleteOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}

func TestGormAuditRepository(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	repo := NewGormAuditRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	entry := ledger.NewAuditEntry(tenantID, uuid.New(), "journal.void", "journal_entry", "je-1")
	entry.Metadata = map[string]string{"reason": "duplicate"}
	require.NoError(t, repo.Create(ctx, entry))
	require.NoError(t, repo.Create(ctx, ledger.NewAuditEntry(tenantID, uuid.New(), "journal.post", "journal_entry", "je-2")))

	items, err := repo.List(ctx, tenantID, "journal_entry", "je-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "duplicate", items[0].Metadata["reason"])
}
