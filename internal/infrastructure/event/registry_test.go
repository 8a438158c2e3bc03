package event

import (
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()

	registry.Register(handler, "JournalPosted", "JournalVoided")

	assert.Equal(t, []shared.EventHandler{handler}, registry.GetHandlers("JournalPosted"))
	assert.Equal(t, []shared.EventHandler{handler}, registry.GetHandlers("JournalVoided"))
	assert.Empty(t, registry.GetHandlers("ReceiptCreated"))
}

func TestHandlerRegistry_Register_Idempotent(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()

	registry.Register(handler, "JournalPosted")
	registry.Register(handler, "JournalPosted")
	registry.Register(handler)
	registry.Register(handler)

	assert.Len(t, registry.GetHandlers("JournalPosted"), 2, "one typed and one wildcard registration")
	assert.Len(t, registry.GetHandlers("ReceiptCreated"), 1)
}

func TestHandlerRegistry_WildcardsFollowTypedHandlers(t *testing.T) {
	registry := NewHandlerRegistry()
	typed := newTestHandler()
	wildcard := newTestHandler()

	registry.Register(wildcard)
	registry.Register(typed, "JournalPosted")

	assert.Equal(t, []shared.EventHandler{typed, wildcard}, registry.GetHandlers("JournalPosted"))
	assert.Equal(t, []shared.EventHandler{wildcard}, registry.GetHandlers("ReceiptPosted"))
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	first, second, wildcard := newTestHandler(), newTestHandler(), newTestHandler()

	registry.Register(first, "JournalPosted", "JournalVoided")
	registry.Register(second, "JournalPosted")
	registry.Register(wildcard)

	registry.Unregister(first)
	registry.Unregister(wildcard)

	assert.Equal(t, []shared.EventHandler{second}, registry.GetHandlers("JournalPosted"))
	assert.Empty(t, registry.GetHandlers("JournalVoided"))
	assert.NotContains(t, registry.handlers, "JournalVoided")
}

func TestHandlerRegistry_GetHandlersReturnsCopy(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler()
	registry.Register(handler, "JournalPosted")

	got := registry.GetHandlers("JournalPosted")
	got[0] = newTestHandler()

	assert.Same(t, handler, registry.GetHandlers("JournalPosted")[0])
}
