package ledger

import (
	"context"
	"testing"

	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// eventRecorder collects the events a committed unit of work hands to the outbox
type eventRecorder struct {
	events []shared.DomainEvent
}

func (r *eventRecorder) SaveEvents(_ context.Context, _ any, events ...shared.DomainEvent) error {
	r.events = append(r.events, events...)
	return nil
}

func (r *eventRecorder) types() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

type testEnv struct {
	db     *gorm.DB
	exec   *uow.Executor
	events *eventRecorder
	cc     uow.CommandContext
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := persistencetest.NewSQLiteDB(t)
	events := &eventRecorder{}
	scope := persistence.NewGormTransactionScope(db, events)
	return &testEnv{
		db:     db,
		exec:   uow.NewExecutor(scope, persistence.NewGormAuditRepository(db), zap.NewNop()),
		events: events,
		cc:     uow.CommandContext{TenantID: uuid.New(), ActorUserID: uuid.New()},
	}
}

func (e *testEnv) repos() uow.Repositories {
	return e.exec.Scope().Repositories()
}

// account stores an active account directly
func (e *testEnv) account(t *testing.T, number string, typ ledger.AccountType) *ledger.Account {
	t.Helper()
	acct, err := ledger.NewAccount(e.cc.TenantID, number, "Account "+number, typ, nil)
	require.NoError(t, err)
	require.NoError(t, e.repos().Accounts().Save(context.Background(), acct))
	return acct
}

// settings stores a settings row, letting the caller adjust it first
func (e *testEnv) settings(t *testing.T, adjust func(s *ledger.AccountingSettings)) *ledger.AccountingSettings {
	t.Helper()
	s := ledger.NewAccountingSettings(e.cc.TenantID)
	if adjust != nil {
		adjust(s)
	}
	require.NoError(t, e.repos().Settings().Create(context.Background(), s))
	return s
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, &shared.DomainError{Code: code}, "got %v", err)
}

func (e *testEnv) audit() *persistence.GormAuditRepository {
	return persistence.NewGormAuditRepository(e.db)
}
