package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvent struct {
	BaseDomainEvent
}

func TestNewOutboxEntry_CopiesEnvelope(t *testing.T) {
	tenantID := uuid.New()
	aggID := uuid.New()
	ev := &stubEvent{BaseDomainEvent: NewBaseDomainEvent("journal.posted", "JournalEntry", aggID, tenantID)}

	entry := NewOutboxEntry(ev, []byte(`{}`))

	assert.Equal(t, tenantID, entry.TenantID)
	assert.Equal(t, ev.EventID(), entry.EventID)
	assert.Equal(t, "journal.posted", entry.EventType)
	assert.Equal(t, aggID, entry.AggregateID)
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, DefaultMaxRetries, entry.MaxRetries)
}

func TestOutboxEntry_MarkProcessing(t *testing.T) {
	for _, status := range []OutboxStatus{OutboxStatusPending, OutboxStatusFailed} {
		entry := &OutboxEntry{Status: status}
		require.NoError(t, entry.MarkProcessing())
		assert.Equal(t, OutboxStatusProcessing, entry.Status)
	}

	for _, status := range []OutboxStatus{OutboxStatusProcessing, OutboxStatusSent, OutboxStatusDead} {
		entry := &OutboxEntry{Status: status}
		assert.ErrorIs(t, entry.MarkProcessing(), ErrOutboxNotClaimable)
	}
}

func TestOutboxEntry_MarkFailed_Backoff(t *testing.T) {
	entry := &OutboxEntry{Status: OutboxStatusProcessing, MaxRetries: 5}

	entry.MarkFailed("boom")
	require.NotNil(t, entry.NextRetryAt)
	assert.Equal(t, OutboxStatusFailed, entry.Status)
	first := time.Until(*entry.NextRetryAt)
	assert.True(t, first > 0 && first <= 2*time.Second)

	entry.MarkFailed("boom")
	second := time.Until(*entry.NextRetryAt)
	assert.True(t, second > time.Second && second <= 3*time.Second)
	assert.Equal(t, 2, entry.RetryCount)
	assert.Equal(t, "boom", entry.LastError)
}

func TestOutboxEntry_MarkFailed_DeadAfterMaxRetries(t *testing.T) {
	entry := &OutboxEntry{Status: OutboxStatusProcessing, RetryCount: 4, MaxRetries: 5}

	entry.MarkFailed("final")

	assert.True(t, entry.IsDead())
	assert.Nil(t, entry.NextRetryAt)
	assert.Equal(t, 5, entry.RetryCount)
}

func TestOutboxEntry_ResetForRetry(t *testing.T) {
	entry := &OutboxEntry{Status: OutboxStatusDead, RetryCount: 5, LastError: "x"}
	require.NoError(t, entry.ResetForRetry())
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Zero(t, entry.RetryCount)
	assert.Empty(t, entry.LastError)

	pending := &OutboxEntry{Status: OutboxStatusPending}
	assert.ErrorIs(t, pending.ResetForRetry(), ErrOutboxNotDead)
}
