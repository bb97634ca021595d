package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/movledger/internal/adapter/http/dto"
	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/usecase"
)

// StatementService defines the behavior needed by StatementHandler.
type StatementService interface {
	GenerateStatement(ctx context.Context, input usecase.StatementInput) ([]*domain.AccountStatement, error)
}

// StatementHandler serves customer statements.
type StatementHandler struct {
	statementUC StatementService
}

// NewStatementHandler creates a new StatementHandler.
func NewStatementHandler(statementUC StatementService) *StatementHandler {
	return &StatementHandler{statementUC: statementUC}
}

// Generate builds the statement of every active account of a customer
// between the from and to query parameters, both inclusive.
func (h *StatementHandler) Generate(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, "missing customer ID", "")
		return
	}

	from, err := parseTimeQuery(r, "from", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range", err.Error())
		return
	}
	to, err := parseTimeQuery(r, "to", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range", err.Error())
		return
	}

	statements, err := h.statementUC.GenerateStatement(r.Context(), usecase.StatementInput{
		CustomerID: customerID,
		From:       from,
		To:         to,
	})
	if err != nil {
		writeDomainError(w, "failed to generate statement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StatementFromDomain(customerID, from, to, statements))
}
