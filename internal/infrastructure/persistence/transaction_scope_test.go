package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/ledger/internal/application/uow"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingSaver struct {
	saved []shared.DomainEvent
	txs   []any
	err   error
}

func (s *recordingSaver) SaveEvents(_ context.Context, tx any, events ...shared.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.txs = append(s.txs, tx)
	s.saved = append(s.saved, events...)
	return nil
}

func TestGormTransactionScope_Execute(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("commits state and hands events to the outbox inside the transaction", func(t *testing.T) {
		db := persistencetest.NewSQLiteDB(t)
		saver := &recordingSaver{}
		scope := NewGormTransactionScope(db, saver)

		settings := ledger.NewAccountingSettings(tenantID)
		event := shared.NewBaseDomainEvent("test.happened", "settings", settings.ID, tenantID)

		err := scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) ([]shared.DomainEvent, error) {
			if err := repos.Settings().Create(ctx, settings); err != nil {
				return nil, err
			}
			return []shared.DomainEvent{&event}, nil
		})
		require.NoError(t, err)

		require.Len(t, saver.saved, 1)
		assert.Equal(t, event.ID, saver.saved[0].EventID())
		require.Len(t, saver.txs, 1)
		_, isTx := saver.txs[0].(*gorm.DB)
		assert.True(t, isTx)

		found, err := scope.Repositories().Settings().FindByTenant(ctx, tenantID)
		require.NoError(t, err)
		assert.NotNil(t, found)
	})

	t.Run("rolls back when work fails", func(t *testing.T) {
		db := persistencetest.NewSQLiteDB(t)
		saver := &recordingSaver{}
		scope := NewGormTransactionScope(db, saver)
		boom := errors.New("boom")

		err := scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) ([]shared.DomainEvent, error) {
			require.NoError(t, repos.Settings().Create(ctx, ledger.NewAccountingSettings(tenantID)))
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, saver.saved)

		found, err := scope.Repositories().Settings().FindByTenant(ctx, tenantID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("rolls back when the outbox write fails", func(t *testing.T) {
		db := persistencetest.NewSQLiteDB(t)
		scope := NewGormTransactionScope(db, &recordingSaver{err: errors.New("outbox down")})

		settings := ledger.NewAccountingSettings(tenantID)
		event := shared.NewBaseDomainEvent("test.happened", "settings", settings.ID, tenantID)
		err := scope.Execute(ctx, func(ctx context.Context, repos uow.Repositories) ([]shared.DomainEvent, error) {
			return []shared.DomainEvent{&event}, repos.Settings().Create(ctx, settings)
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outbox down")

		found, err := scope.Repositories().Settings().FindByTenant(ctx, tenantID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
