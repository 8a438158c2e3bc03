package ledger

import (
	"context"
	"testing"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuditService_ListAuditEntries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	engine := NewPostingEngine(env.exec, zap.NewNop())
	svc := NewAuditService(env.audit())
	cash := env.account(t, "1000", ledger.AccountTypeAsset)
	sales := env.account(t, "4000", ledger.AccountTypeRevenue)

	posted, err := engine.PostEntry(ctx, env.cc, twoLineRequest(cash.ID, sales.ID, "80.00", "80.00"))
	require.NoError(t, err)
	_, err = engine.VoidJournalEntry(ctx, env.cc, posted.ID, "keyed twice")
	require.NoError(t, err)

	trail, err := svc.ListAuditEntries(ctx, env.cc.TenantID, EntityTypeJournalEntry, posted.ID.String())
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "journal.post", trail[0].Action)
	assert.Equal(t, "journal.void", trail[1].Action)
	assert.Equal(t, env.cc.ActorUserID, trail[1].ActorUserID)

	other, err := svc.ListAuditEntries(ctx, env.cc.TenantID, EntityTypeJournalEntry, sales.ID.String())
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = svc.ListAuditEntries(ctx, env.cc.TenantID, " ", posted.ID.String())
	requireCode(t, err, "INVALID_AUDIT_QUERY")
}
