package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/erp/ledger/internal/application/adapter"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFnBIntake struct {
	mock.Mock
}

func (m *MockFnBIntake) Submit(ctx context.Context, tenantID uuid.UUID, req adapter.SubmitFnBPostingRequest) (*adapter.FnBSubmission, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adapter.FnBSubmission), args.Error(1)
}

func integrationRouter(intake FnBIntake, tenantID uuid.UUID) *gin.Engine {
	h := NewIntegrationHandler(intake)
	r := gin.New()
	r.POST("/integrations/fnb/postings", withAuth(tenantID, uuid.New()), h.SubmitFnBPosting)
	return r
}

const fnbBody = `{
	"source_reference_id": "DSS-2026-03-01-LOC1",
	"business_date": "2026-03-01",
	"journal_lines": [
		{"category": "cash", "debit_cents": 12500},
		{"category": "food", "credit_cents": 12500}
	]
}`

func TestIntegrationHandler_SubmitFnBPosting(t *testing.T) {
	tenantID := uuid.New()

	t.Run("accepted", func(t *testing.T) {
		intake := new(MockFnBIntake)
		r := integrationRouter(intake, tenantID)
		eventID := uuid.New()
		intake.On("Submit", mock.Anything, tenantID, mock.MatchedBy(func(req adapter.SubmitFnBPostingRequest) bool {
			return req.SourceReferenceID == "DSS-2026-03-01-LOC1" && len(req.JournalLines) == 2 && req.JournalLines[0].DebitCents == 12500
		})).Return(&adapter.FnBSubmission{EventID: eventID, SourceReferenceID: "DSS-2026-03-01-LOC1", BusinessDate: "2026-03-01"}, nil)

		w := serveJSON(r, http.MethodPost, "/integrations/fnb/postings", fnbBody)

		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
		assert.Equal(t, eventID.String(), decodeResponse(t, w).Data.(map[string]any)["event_id"])
		intake.AssertExpectations(t)
	})

	t.Run("rejected by intake", func(t *testing.T) {
		intake := new(MockFnBIntake)
		r := integrationRouter(intake, tenantID)
		intake.On("Submit", mock.Anything, tenantID, mock.Anything).
			Return(nil, shared.NewValidationError("INVALID_BUSINESS_DATE", "business_date must be YYYY-MM-DD"))

		w := serveJSON(r, http.MethodPost, "/integrations/fnb/postings", fnbBody)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_BUSINESS_DATE", decodeResponse(t, w).Error.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		intake := new(MockFnBIntake)
		r := integrationRouter(intake, tenantID)

		w := serveJSON(r, http.MethodPost, "/integrations/fnb/postings", `{"journal_lines": [`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		intake.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
	})
}
