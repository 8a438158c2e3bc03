package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var businessDay = time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)

type handlerFixture struct {
	handler  *FnBPostingHandler
	engine   *ledgerapp.PostingEngine
	scope    uow.TransactionScope
	tenantID uuid.UUID
	accounts map[string]*ledger.Account
}

func newHandlerFixture(t *testing.T, withSettings bool) *handlerFixture {
	t.Helper()
	ctx := context.Background()
	db := persistencetest.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db, nil)
	exec := uow.NewExecutor(scope, persistence.NewGormAuditRepository(db), zap.NewNop())
	engine := ledgerapp.NewPostingEngine(exec, zap.NewNop())
	resolver := ledgerapp.NewControlAccountResolver(nil, zap.NewNop())

	f := &handlerFixture{
		handler:  NewFnBPostingHandler(scope, engine, resolver, nil, zap.NewNop()),
		engine:   engine,
		scope:    scope,
		tenantID: uuid.New(),
		accounts: make(map[string]*ledger.Account),
	}

	settings := ledger.NewAccountingSettings(f.tenantID)
	for number, spec := range map[string]struct {
		typ     ledger.AccountType
		control ledger.ControlAccountType
	}{
		"1050": {ledger.AccountTypeAsset, ledger.ControlUndepositedFunds},
		"2100": {ledger.AccountTypeLiability, ledger.ControlSalesTaxPayable},
		"4900": {ledger.AccountTypeRevenue, ledger.ControlUncategorizedRevenue},
		"4100": {ledger.AccountTypeRevenue, ""},
	} {
		acct, err := ledger.NewAccount(f.tenantID, number, "Account "+number, spec.typ, nil)
		require.NoError(t, err)
		if spec.control != "" {
			acct.MarkControl(spec.control)
			require.NoError(t, settings.SetDefault(spec.control, acct.ID))
		}
		require.NoError(t, scope.Repositories().Accounts().Save(ctx, acct))
		f.accounts[number] = acct
	}
	if withSettings {
		require.NoError(t, scope.Repositories().Settings().Create(ctx, settings))
	}

	food, err := ledger.NewGLAccountMapping(f.tenantID, "department", "food")
	require.NoError(t, err)
	food.RevenueAccountID = &f.accounts["4100"].ID
	require.NoError(t, scope.Repositories().Mappings().Save(ctx, food))
	return f
}

func (f *handlerFixture) journals(t *testing.T) *ledgerapp.JournalListResponse {
	t.Helper()
	list, err := f.engine.ListJournalEntries(context.Background(), f.tenantID, ledgerapp.JournalListFilter{SourceModule: SourceModuleFnB})
	require.NoError(t, err)
	return list
}

func (f *handlerFixture) unmapped(t *testing.T) int64 {
	t.Helper()
	_, total, err := f.scope.Repositories().Unmapped().List(context.Background(), f.tenantID, true, shared.Pagination{Page: 1, PageSize: 50})
	require.NoError(t, err)
	return total
}

func salesDay() []FnBPostingLine {
	return []FnBPostingLine{
		{Category: "cash_on_hand", Description: "Cash drawer", DebitCents: 11000},
		{Category: "sales_revenue", Description: "Food sales", CreditCents: 6000, EntityType: "department", EntityID: "food"},
		{Category: "sales_revenue", Description: "Bar sales", CreditCents: 4000, EntityType: "department", EntityID: "bar"},
		{Category: "sales_tax_payable", Description: "Sales tax", CreditCents: 1000},
	}
}

func TestFnBPostingHandler_EventTypes(t *testing.T) {
	h := NewFnBPostingHandler(nil, nil, nil, nil, nil)
	assert.Equal(t, []string{EventTypeFnBPostingCreated}, h.EventTypes())
}

func TestFnBPostingHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the business day", func(t *testing.T) {
		f := newHandlerFixture(t, true)
		loc := uuid.New()
		ev := NewFnBPostingCreatedEvent(f.tenantID, "fnb-day-2024-07-04", &loc, businessDay, salesDay())

		require.NoError(t, f.handler.Handle(ctx, ev))

		list := f.journals(t)
		require.Equal(t, int64(1), list.Total)
		entry := list.Items[0]
		assert.Equal(t, string(ledger.JournalStatusPosted), entry.Status)
		assert.Equal(t, "fnb-day-2024-07-04", entry.SourceReferenceID)
		assert.Equal(t, "F&B sales 2024-07-04", entry.Memo)
		assert.True(t, entry.EntryDate.Equal(businessDay))
		assert.Equal(t, valueobject.Cents(11000), entry.TotalDebit)
		require.Len(t, entry.Lines, 4)
		assert.Equal(t, f.accounts["1050"].ID, entry.Lines[0].AccountID)
		assert.Equal(t, f.accounts["4100"].ID, entry.Lines[1].AccountID)
		assert.Equal(t, f.accounts["4900"].ID, entry.Lines[2].AccountID)
		assert.Equal(t, f.accounts["2100"].ID, entry.Lines[3].AccountID)
		assert.Equal(t, SourceModuleFnB, entry.Lines[0].Channel)
		require.NotNil(t, entry.Lines[0].LocationID)
		assert.Equal(t, loc, *entry.Lines[0].LocationID)
	})

	t.Run("redelivery posts nothing new", func(t *testing.T) {
		f := newHandlerFixture(t, true)
		ev := NewFnBPostingCreatedEvent(f.tenantID, "fnb-day-2024-07-04", nil, businessDay, salesDay())

		require.NoError(t, f.handler.Handle(ctx, ev))
		again := NewFnBPostingCreatedEvent(f.tenantID, "fnb-day-2024-07-04", nil, businessDay, salesDay())
		require.NoError(t, f.handler.Handle(ctx, again))

		assert.Equal(t, int64(1), f.journals(t).Total)
	})

	t.Run("fewer than two resolved lines skips the batch", func(t *testing.T) {
		f := newHandlerFixture(t, true)
		ev := NewFnBPostingCreatedEvent(f.tenantID, "fnb-comp-1", nil, businessDay, []FnBPostingLine{
			{Category: "comp", DebitCents: 2500, EntityID: "manager"},
			{Category: "sales_revenue", CreditCents: 2500},
		})

		require.NoError(t, f.handler.Handle(ctx, ev))
		assert.Zero(t, f.journals(t).Total)
		assert.Equal(t, int64(1), f.unmapped(t))

		// the outbox redelivers the skipped batch
		require.NoError(t, f.handler.Handle(ctx, ev))
		assert.Zero(t, f.journals(t).Total)
		assert.Equal(t, int64(1), f.unmapped(t))
	})

	t.Run("unmapped lines are recorded and an unbalanced remainder is not posted", func(t *testing.T) {
		f := newHandlerFixture(t, true)
		lines := append(salesDay(), FnBPostingLine{Category: "gift_cards", CreditCents: 500})
		lines[0].DebitCents += 500
		ev := NewFnBPostingCreatedEvent(f.tenantID, "fnb-day-gift", nil, businessDay, lines)

		require.NoError(t, f.handler.Handle(ctx, ev))
		assert.Zero(t, f.journals(t).Total)
		assert.Equal(t, int64(1), f.unmapped(t))
	})

	t.Run("tenant without settings is left alone", func(t *testing.T) {
		f := newHandlerFixture(t, false)
		ev := NewFnBPostingCreatedEvent(f.tenantID, "fnb-day-2024-07-04", nil, businessDay, salesDay())

		require.NoError(t, f.handler.Handle(ctx, ev))
		assert.Zero(t, f.journals(t).Total)
		assert.Zero(t, f.unmapped(t))
	})

	t.Run("bad payloads never return an error", func(t *testing.T) {
		f := newHandlerFixture(t, true)

		noRef := NewFnBPostingCreatedEvent(f.tenantID, " ", nil, businessDay, salesDay())
		assert.NoError(t, f.handler.Handle(ctx, noRef))

		badDate := NewFnBPostingCreatedEvent(f.tenantID, "fnb-bad-date", nil, businessDay, salesDay())
		badDate.BusinessDate = "07/04/2024"
		assert.NoError(t, f.handler.Handle(ctx, badDate))

		other := shared.NewBaseDomainEvent("journal.posted", "JournalEntry", uuid.New(), f.tenantID)
		assert.NoError(t, f.handler.Handle(ctx, &other))

		assert.NotPanics(t, func() {
			assert.NoError(t, f.handler.Handle(ctx, nil))
		})
		assert.NotPanics(t, func() {
			assert.NoError(t, f.handler.Handle(ctx, (*FnBPostingCreatedEvent)(nil)))
		})

		assert.Zero(t, f.journals(t).Total)
	})
}

type failingEngine struct {
	err   error
	panic bool
	calls int
}

func (e *failingEngine) PostEntry(context.Context, uow.CommandContext, ledgerapp.PostEntryRequest) (*ledgerapp.JournalEntryResponse, error) {
	e.calls++
	if e.panic {
		panic("engine exploded")
	}
	return nil, e.err
}

func TestFnBPostingHandler_EngineFailures(t *testing.T) {
	ctx := context.Background()
	f := newHandlerFixture(t, true)
	resolver := ledgerapp.NewControlAccountResolver(nil, zap.NewNop())

	for name, engine := range map[string]*failingEngine{
		"error":            {err: errors.New("database is locked")},
		"unique violation": {err: shared.ErrUniqueViolation},
		"panic":            {panic: true},
	} {
		t.Run(name, func(t *testing.T) {
			h := NewFnBPostingHandler(f.scope, engine, resolver, nil, zap.NewNop())
			ev := NewFnBPostingCreatedEvent(f.tenantID, "fnb-"+name, nil, businessDay, salesDay())
			assert.NoError(t, h.Handle(ctx, ev))
			assert.Equal(t, 1, engine.calls)
		})
	}
}
