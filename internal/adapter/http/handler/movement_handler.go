package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/movledger/internal/adapter/http/dto"
	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/usecase"
)

// MovementService defines the behavior needed by MovementHandler.
type MovementService interface {
	RecordMovement(ctx context.Context, input usecase.RecordMovementInput) (*domain.Movement, error)
	ReverseMovement(ctx context.Context, input usecase.ReverseMovementInput) (*domain.Movement, error)
	GetMovement(ctx context.Context, id string) (*domain.Movement, error)
	ListMovements(ctx context.Context, input usecase.ListMovementsInput) ([]*domain.Movement, error)
	GetBalance(ctx context.Context, accountID string) (domain.Balance, error)
}

// MovementHandler handles movement-related HTTP requests.
type MovementHandler struct {
	movementUC MovementService
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(movementUC MovementService) *MovementHandler {
	return &MovementHandler{movementUC: movementUC}
}

// Create records a deposit or withdrawal.
func (h *MovementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	movement, err := h.movementUC.RecordMovement(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to record movement", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement))
}

// Reverse records the compensating movement of an existing one.
func (h *MovementHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing movement ID", "")
		return
	}

	movement, err := h.movementUC.ReverseMovement(r.Context(), usecase.ReverseMovementInput{MovementID: id})
	if err != nil {
		writeDomainError(w, "failed to reverse movement", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement))
}

// Get retrieves a movement by ID.
func (h *MovementHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing movement ID", "")
		return
	}

	movement, err := h.movementUC.GetMovement(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get movement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement))
}

// ListByAccount lists an account's movements, newest first.
func (h *MovementHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit, offset := parsePagination(r)

	movements, err := h.movementUC.ListMovements(r.Context(), usecase.ListMovementsInput{
		AccountID: accountID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeDomainError(w, "failed to list movements", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListMovementsResponse{
		Movements: dto.MovementsFromDomain(movements),
		Limit:     limit,
		Offset:    offset,
	})
}

// Balance returns the resolved balance of an account.
func (h *MovementHandler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	balance, err := h.movementUC.GetBalance(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, "failed to resolve balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(balance))
}
