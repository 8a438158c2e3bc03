package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var entryDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func twoLineRequest(debit, credit uuid.UUID, debitAmt, creditAmt string) PostEntryRequest {
	return PostEntryRequest{
		SourceModule: ledger.SourceModuleManual,
		EntryDate:    entryDate,
		Memo:         "Cash sale",
		Lines: []JournalLineRequest{
			{AccountID: debit, DebitAmount: debitAmt},
			{AccountID: credit, CreditAmount: creditAmt},
		},
	}
}

func TestPostingEngine_PostEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("posts a balanced entry with the next journal number", func(t *testing.T) {
		env := newTestEnv(t)
		engine := NewPostingEngine(env.exec, zap.NewNop())
		cash := env.account(t, "1000", ledger.AccountTypeAsset)
		sales := env.account(t, "4000", ledger.AccountTypeRevenue)

		first, err := engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, sales.ID, "100.00", "100.00"))
		require.NoError(t, err)
		assert.Equal(t, string(ledger.JournalStatusPosted), first.Status)
		require.NotNil(t, first.JournalNumber)
		assert.Equal(t, int64(1), *first.JournalNumber)
		assert.Equal(t, valueobject.Cents(10000), first.TotalDebit)
		assert.Equal(t, valueobject.Cents(10000), first.TotalCredit)
		require.Len(t, first.Lines, 2)
		assert.Equal(t, 1, first.Lines[0].LineNumber)

		second, err := engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, sales.ID, "25.50", "25.50"))
		require.NoError(t, err)
		require.NotNil(t, second.JournalNumber)
		assert.Equal(t, int64(2), *second.JournalNumber)

		assert.Equal(t, []string{ledger.EventTypeJournalPosted, ledger.EventTypeJournalPosted}, env.events.types())

		audit, err := env.audit().List(ctx, env.cc.TenantID, EntityTypeJournalEntry, first.ID.String())
		require.NoError(t, err)
		require.Len(t, audit, 1)
		assert.Equal(t, "journal.post", audit[0].Action)
		assert.Equal(t, "1", audit[0].Metadata["journal_number"])
	})

	t.Run("rejects an unbalanced entry beyond tolerance", func(t *testing.T) {
		env := newTestEnv(t)
		engine := NewPostingEngine(env.exec, zap.NewNop())
		cash := env.account(t, "1000", ledger.AccountTypeAsset)
		sales := env.account(t, "4000", ledger.AccountTypeRevenue)

		_, err := engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, sales.ID, "100.00", "99.90"))
		requireCode(t, err, "UNBALANCED_ENTRY")
		assert.True(t, shared.IsValidation(err))

		list, err := engine.ListJournalEntries(ctx, env.cc.TenantID, JournalListFilter{})
		require.NoError(t, err)
		assert.Zero(t, list.Total)
	})

	t.Run("accepts a difference within the tenant tolerance", func(t *testing.T) {
		env := newTestEnv(t)
		env.settings(t, func(s *ledger.AccountingSettings) { s.RoundingToleranceCents = 10 })
		engine := NewPostingEngine(env.exec, zap.NewNop())
		cash := env.account(t, "1000", ledger.AccountTypeAsset)
		sales := env.account(t, "4000", ledger.AccountTypeRevenue)

		resp, err := engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, sales.ID, "100.00", "99.92"))
		require.NoError(t, err)
		assert.Equal(t, string(ledger.JournalStatusPosted), resp.Status)
	})

	t.Run("rejects malformed amounts", func(t *testing.T) {
		env := newTestEnv(t)
		engine := NewPostingEngine(env.exec, zap.NewNop())
		cash := env.account(t, "1000", ledger.AccountTypeAsset)
		sales := env.account(t, "4000", ledger.AccountTypeRevenue)

		_, err := engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, sales.ID, "ten", "10.00"))
		requireCode(t, err, "INVALID_AMOUNT")

		_, err = engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, sales.ID, "10.005", "10.01"))
		requireCode(t, err, "INVALID_AMOUNT")

		list, err := engine.ListJournalEntries(ctx, env.cc.TenantID, JournalListFilter{})
		require.NoError(t, err)
		assert.Zero(t, list.Total)
	})

	t.Run("rejects unknown and inactive accounts", func(t *testing.T) {
		env := newTestEnv(t)
		engine := NewPostingEngine(env.exec, zap.NewNop())
		cash := env.account(t, "1000", ledger.AccountTypeAsset)

		_, err := engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, uuid.New(), "10.00", "10.00"))
		assert.True(t, shared.IsNotFound(err))

		closed := env.account(t, "4000", ledger.AccountTypeRevenue)
		closed.Deactivate()
		require.NoError(t, env.repos().Accounts().Save(ctx, closed))
		_, err = engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, closed.ID, "10.00", "10.00"))
		requireCode(t, err, "ACCOUNT_INACTIVE")
	})

	t.Run("manual lines cannot hit control accounts", func(t *testing.T) {
		env := newTestEnv(t)
		engine := NewPostingEngine(env.exec, zap.NewNop())
		cash := env.account(t, "1000", ledger.AccountTypeAsset)
		ar := env.account(t, "1200", ledger.AccountTypeAsset)
		ar.MarkControl(ledger.ControlAR)
		require.NoError(t, env.repos().Accounts().Save(ctx, ar))

		_, err := engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, ar.ID, "10.00", "10.00"))
		requireCode(t, err, "MANUAL_POSTING_NOT_ALLOWED")

		req := twoLineRequest(cash.ID, ar.ID, "10.00", "10.00")
		req.SourceModule, req.SourceReferenceID = "ar", "receipt-1"
		_, err = engine.PostEntry(ctx, env.cc, req)
		assert.NoError(t, err)
	})

	t.Run("manual mode leaves a draft unless forced", func(t *testing.T) {
		env := newTestEnv(t)
		env.settings(t, func(s *ledger.AccountingSettings) { s.AutoPostMode = ledger.AutoPostModeManual })
		engine := NewPostingEngine(env.exec, zap.NewNop())
		cash := env.account(t, "1000", ledger.AccountTypeAsset)
		sales := env.account(t, "4000", ledger.AccountTypeRevenue)

		draft, err := engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, sales.ID, "10.00", "10.00"))
		require.NoError(t, err)
		assert.Equal(t, string(ledger.JournalStatusDraft), draft.Status)
		assert.Nil(t, draft.JournalNumber)
		assert.Empty(t, env.events.events)

		forced := twoLineRequest(cash.ID, sales.ID, "20.00", "20.00")
		forced.ForcePost = true
		posted, err := engine.PostEntry(ctx, env.cc, forced)
		require.NoError(t, err)
		assert.Equal(t, string(ledger.JournalStatusPosted), posted.Status)
		require.NotNil(t, posted.JournalNumber)
		assert.Equal(t, int64(1), *posted.JournalNumber)

		promoted, err := engine.PostDraftEntry(ctx, env.cc, draft.ID)
		require.NoError(t, err)
		assert.Equal(t, string(ledger.JournalStatusPosted), promoted.Status)
		require.NotNil(t, promoted.JournalNumber)
		assert.Equal(t, int64(2), *promoted.JournalNumber)

		_, err = engine.PostDraftEntry(ctx, env.cc, draft.ID)
		requireCode(t, err, "JOURNAL_NOT_DRAFT")
	})

	t.Run("a source document posts once", func(t *testing.T) {
		env := newTestEnv(t)
		engine := NewPostingEngine(env.exec, zap.NewNop())
		cash := env.account(t, "1000", ledger.AccountTypeAsset)
		sales := env.account(t, "4000", ledger.AccountTypeRevenue)

		req := twoLineRequest(cash.ID, sales.ID, "10.00", "10.00")
		req.SourceModule, req.SourceReferenceID = "fnb", "day-2024-03-15"

		first, err := engine.PostEntry(ctx, env.cc, req)
		require.NoError(t, err)
		again, err := engine.PostEntry(ctx, env.cc, req)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Len(t, env.events.events, 1)

		list, err := engine.ListJournalEntries(ctx, env.cc.TenantID, JournalListFilter{SourceModule: "fnb"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), list.Total)
	})

	t.Run("a client request id replays the first result", func(t *testing.T) {
		env := newTestEnv(t)
		engine := NewPostingEngine(env.exec, zap.NewNop())
		cash := env.account(t, "1000", ledger.AccountTypeAsset)
		sales := env.account(t, "4000", ledger.AccountTypeRevenue)

		cc := env.cc
		cc.ClientRequestID = "req-42"
		first, err := engine.PostEntry(ctx, cc, twoLineRequest(cash.ID, sales.ID, "10.00", "10.00"))
		require.NoError(t, err)
		second, err := engine.PostEntry(ctx, cc, twoLineRequest(cash.ID, sales.ID, "99.00", "99.00"))
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, valueobject.Cents(1000), second.TotalDebit)

		list, err := engine.ListJournalEntries(ctx, env.cc.TenantID, JournalListFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), list.Total)
	})
}

func TestPostingEngine_VoidJournalEntry(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*testEnv, *PostingEngine, *JournalEntryResponse) {
		env := newTestEnv(t)
		engine := NewPostingEngine(env.exec, zap.NewNop())
		cash := env.account(t, "1000", ledger.AccountTypeAsset)
		sales := env.account(t, "4000", ledger.AccountTypeRevenue)
		posted, err := engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, sales.ID, "42.00", "42.00"))
		require.NoError(t, err)
		return env, engine, posted
	}

	t.Run("posts a mirror reversal and voids the original", func(t *testing.T) {
		env, engine, posted := setup(t)

		voided, err := engine.VoidJournalEntry(ctx, env.cc, posted.ID, "Entered twice")
		require.NoError(t, err)
		assert.Equal(t, string(ledger.JournalStatusVoided), voided.Status)
		assert.Equal(t, "Entered twice", voided.VoidReason)
		require.NotNil(t, voided.ReversedByID)

		reversal, err := engine.GetJournalEntry(ctx, env.cc.TenantID, *voided.ReversedByID)
		require.NoError(t, err)
		assert.Equal(t, string(ledger.JournalStatusPosted), reversal.Status)
		require.NotNil(t, reversal.ReversalOfID)
		assert.Equal(t, posted.ID, *reversal.ReversalOfID)
		require.NotNil(t, reversal.JournalNumber)
		assert.Equal(t, int64(2), *reversal.JournalNumber)
		require.Len(t, reversal.Lines, 2)
		assert.Equal(t, posted.Lines[0].AccountID, reversal.Lines[0].AccountID)
		assert.Equal(t, posted.Lines[0].Debit, reversal.Lines[0].Credit)
		assert.Equal(t, posted.Lines[1].Credit, reversal.Lines[1].Debit)

		now := time.Now().UTC()
		assert.Equal(t, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), reversal.EntryDate.UTC())

		assert.Equal(t, []string{
			ledger.EventTypeJournalPosted,
			ledger.EventTypeJournalPosted,
			ledger.EventTypeJournalVoided,
		}, env.events.types())
	})

	t.Run("requires a reason", func(t *testing.T) {
		env, engine, posted := setup(t)
		_, err := engine.VoidJournalEntry(ctx, env.cc, posted.ID, "  ")
		requireCode(t, err, "VOID_REASON_REQUIRED")
	})

	t.Run("cannot void twice or void a reversal", func(t *testing.T) {
		env, engine, posted := setup(t)
		voided, err := engine.VoidJournalEntry(ctx, env.cc, posted.ID, "Wrong day")
		require.NoError(t, err)

		_, err = engine.VoidJournalEntry(ctx, env.cc, posted.ID, "Again")
		requireCode(t, err, "JOURNAL_NOT_POSTED")

		_, err = engine.VoidJournalEntry(ctx, env.cc, *voided.ReversedByID, "Undo the undo")
		requireCode(t, err, "REVERSAL_NOT_VOIDABLE")
	})

	t.Run("unknown entry", func(t *testing.T) {
		env, engine, _ := setup(t)
		_, err := engine.VoidJournalEntry(ctx, env.cc, uuid.New(), "Gone")
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestPostingEngine_ListJournalEntries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	engine := NewPostingEngine(env.exec, zap.NewNop())
	cash := env.account(t, "1000", ledger.AccountTypeAsset)
	sales := env.account(t, "4000", ledger.AccountTypeRevenue)

	for i := 0; i < 3; i++ {
		_, err := engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, sales.ID, "1.00", "1.00"))
		require.NoError(t, err)
	}

	page, err := engine.ListJournalEntries(ctx, env.cc.TenantID, JournalListFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)

	_, err = engine.ListJournalEntries(ctx, env.cc.TenantID, JournalListFilter{Status: "pending"})
	requireCode(t, err, "INVALID_STATUS")

	other, err := engine.ListJournalEntries(ctx, uuid.New(), JournalListFilter{})
	require.NoError(t, err)
	assert.Zero(t, other.Total)
}
