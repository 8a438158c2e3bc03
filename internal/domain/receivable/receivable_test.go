package receivable

import (
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestInvoice(t *testing.T, tenantID, customerID uuid.UUID, total string) *Invoice {
	t.Helper()
	inv, err := NewInvoice(tenantID, customerID, "INV-"+total, dec(total))
	require.NoError(t, err)
	return inv
}

func newTestReceipt(t *testing.T, tenantID, customerID uuid.UUID, amount string) *Receipt {
	t.Helper()
	r, err := NewReceipt(tenantID, customerID, uuid.New(), dec(amount), time.Now(), "CHK-1", "", uuid.New())
	require.NoError(t, err)
	return r
}

func TestInvoice_ApplyPayment(t *testing.T) {
	inv := newTestInvoice(t, uuid.New(), uuid.New(), "500")

	require.NoError(t, inv.ApplyPayment(dec("200")))
	assert.Equal(t, InvoiceStatusPartial, inv.Status)
	assert.True(t, inv.BalanceDue.Equal(dec("300")))

	require.NoError(t, inv.ApplyPayment(dec("300")))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.BalanceDue.IsZero())

	err := inv.ApplyPayment(dec("1"))
	assert.True(t, shared.IsConflict(err))
}

func TestInvoiceStatus_IsValid(t *testing.T) {
	for _, s := range []InvoiceStatus{InvoiceStatusOpen, InvoiceStatusPartial, InvoiceStatusPaid} {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, InvoiceStatus("voided").IsValid())
	assert.False(t, InvoiceStatusPaid.CanReceivePayment())
}

func TestInvoice_ApplyPaymentExceedingBalance(t *testing.T) {
	inv := newTestInvoice(t, uuid.New(), uuid.New(), "50")
	err := inv.ApplyPayment(dec("60"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds invoice balance")
}

func TestInvoice_ReversePayment(t *testing.T) {
	t.Run("full reversal restores open", func(t *testing.T) {
		inv := newTestInvoice(t, uuid.New(), uuid.New(), "500")
		require.NoError(t, inv.ApplyPayment(dec("300")))

		inv.ReversePayment(dec("300"))
		assert.True(t, inv.AmountPaid.IsZero())
		assert.True(t, inv.BalanceDue.Equal(dec("500")))
		assert.Equal(t, InvoiceStatusOpen, inv.Status)
	})

	t.Run("partial reversal leaves partial", func(t *testing.T) {
		inv := newTestInvoice(t, uuid.New(), uuid.New(), "500")
		require.NoError(t, inv.ApplyPayment(dec("300")))

		inv.ReversePayment(dec("100"))
		assert.True(t, inv.AmountPaid.Equal(dec("200")))
		assert.True(t, inv.BalanceDue.Equal(dec("300")))
		assert.Equal(t, InvoiceStatusPartial, inv.Status)
	})

	t.Run("paid amount never goes negative", func(t *testing.T) {
		inv := newTestInvoice(t, uuid.New(), uuid.New(), "500")
		require.NoError(t, inv.ApplyPayment(dec("50")))

		inv.ReversePayment(dec("80"))
		assert.True(t, inv.AmountPaid.IsZero())
		assert.True(t, inv.BalanceDue.Equal(dec("500")))
		assert.Equal(t, InvoiceStatusOpen, inv.Status)
	})
}

func TestNewReceipt_Validation(t *testing.T) {
	_, err := NewReceipt(uuid.New(), uuid.Nil, uuid.New(), dec("10"), time.Now(), "", "", uuid.New())
	assert.True(t, shared.IsValidation(err))

	_, err = NewReceipt(uuid.New(), uuid.New(), uuid.Nil, dec("10"), time.Now(), "", "", uuid.New())
	assert.True(t, shared.IsValidation(err))

	_, err = NewReceipt(uuid.New(), uuid.New(), uuid.New(), dec("0"), time.Now(), "", "", uuid.New())
	assert.True(t, shared.IsValidation(err))
}

func TestNewReceipt_RaisesCreatedEvent(t *testing.T) {
	r := newTestReceipt(t, uuid.New(), uuid.New(), "100")
	assert.Equal(t, ReceiptStatusDraft, r.Status)
	require.Len(t, r.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeReceiptCreated, r.GetDomainEvents()[0].EventType())
}

func TestReceipt_ValidateAllocationTotal(t *testing.T) {
	r := newTestReceipt(t, uuid.New(), uuid.New(), "100")

	err := r.ValidateAllocationTotal([]decimal.Decimal{dec("60"), dec("60")})
	require.Error(t, err)
	assert.Equal(t, "Allocation total exceeds receipt amount", err.Error())

	assert.NoError(t, r.ValidateAllocationTotal([]decimal.Decimal{dec("60"), dec("40")}))

	err = r.ValidateAllocationTotal([]decimal.Decimal{dec("50.005"), dec("49.995")})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Contains(t, err.Error(), "more than two decimal places")
}

func TestReceipt_Allocate(t *testing.T) {
	tenantID, customerID := uuid.New(), uuid.New()

	t.Run("within balance", func(t *testing.T) {
		r := newTestReceipt(t, tenantID, customerID, "300")
		inv := newTestInvoice(t, tenantID, customerID, "100")
		require.NoError(t, r.Allocate(inv, dec("60")))
		assert.True(t, r.AllocatedTotal().Equal(dec("60")))
		assert.True(t, r.Unallocated().Equal(dec("240")))
		assert.Equal(t, []uuid.UUID{inv.ID}, r.InvoiceIDs())
	})

	t.Run("repeated allocation counts against balance", func(t *testing.T) {
		r := newTestReceipt(t, tenantID, customerID, "300")
		inv := newTestInvoice(t, tenantID, customerID, "100")
		require.NoError(t, r.Allocate(inv, dec("60")))
		err := r.Allocate(inv, dec("60"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds invoice balance")
	})

	t.Run("other customer", func(t *testing.T) {
		r := newTestReceipt(t, tenantID, customerID, "300")
		inv := newTestInvoice(t, tenantID, uuid.New(), "100")
		err := r.Allocate(inv, dec("10"))
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("sub-cent amount", func(t *testing.T) {
		r := newTestReceipt(t, tenantID, customerID, "300")
		inv := newTestInvoice(t, tenantID, customerID, "100")
		err := r.Allocate(inv, dec("10.005"))
		assert.True(t, shared.IsValidation(err))
		assert.Empty(t, r.Allocations)

		require.NoError(t, r.Allocate(inv, dec("10.50")))
	})

	t.Run("paid invoice", func(t *testing.T) {
		r := newTestReceipt(t, tenantID, customerID, "300")
		inv := newTestInvoice(t, tenantID, customerID, "100")
		require.NoError(t, inv.ApplyPayment(dec("100")))
		err := r.Allocate(inv, dec("10"))
		assert.True(t, shared.IsConflict(err))
	})
}

func TestReceipt_StateMachine(t *testing.T) {
	r := newTestReceipt(t, uuid.New(), uuid.New(), "100")
	r.ClearDomainEvents()

	err := r.MarkVoided(uuid.New(), "typo")
	assert.True(t, shared.IsConflict(err))

	jeID := uuid.New()
	require.NoError(t, r.MarkPosted(jeID, uuid.New()))
	assert.Equal(t, ReceiptStatusPosted, r.Status)
	require.NotNil(t, r.GLJournalEntryID)
	assert.Equal(t, jeID, *r.GLJournalEntryID)

	err = r.MarkPosted(uuid.New(), uuid.New())
	assert.True(t, shared.IsConflict(err))

	require.NoError(t, r.MarkVoided(uuid.New(), " bounced "))
	assert.Equal(t, ReceiptStatusVoided, r.Status)
	assert.Equal(t, "bounced", r.VoidReason)

	events := r.GetDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeReceiptPosted, events[0].EventType())
	assert.Equal(t, EventTypeReceiptVoided, events[1].EventType())
	voided := events[1].(*ReceiptVoidedEvent)
	assert.Equal(t, jeID, voided.GLJournalEntryID)
}
