package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("posting: %w", NewConflictError("JOURNAL_NOT_POSTED", "not posted"))

	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.True(t, IsValidation(NewValidationError("UNBALANCED_ENTRY", "x")))
	assert.True(t, IsNotFound(NewNotFoundError("INVOICE", "x")))
	assert.Equal(t, KindApp, KindOf(NewAppError("MISSING_TEMPLATE", "x")))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestDomainError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &DomainError{Kind: KindNotFound, Code: "NOT_FOUND", Message: "other text"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, "INVOICE_NOT_FOUND", NewNotFoundError("INVOICE", "gone").Code)
}

func TestDrainEvents(t *testing.T) {
	root := NewTenantAggregateRoot(uuid.New())
	root.AddDomainEvent(&stubEvent{})
	root.AddDomainEvent(&stubEvent{})

	events := DrainEvents(&root)

	assert.Len(t, events, 2)
	assert.Empty(t, root.GetDomainEvents())
	assert.Equal(t, 1, root.Version)
}
