package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/iho/movledger/internal/adapter/http/dto"
	"github.com/iho/movledger/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/accounts?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/accounts?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 20, 0},
		{"limit=5&offset=10", 5, 10},
		{"limit=1000", 100, 0},
		{"limit=-3&offset=-1", 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
			limit, offset := parsePagination(req)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Fatalf("got limit=%d offset=%d, want %d/%d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestParseTimeQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?from=2024-01-01&to=2024-01-31&at=2024-01-15T10:00:00Z&bad=yesterday", nil)

	from, err := parseTimeQuery(req, "from", false)
	if err != nil || !from.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v (%v)", from, err)
	}

	to, err := parseTimeQuery(req, "to", true)
	if err != nil || !to.Equal(time.Date(2024, 1, 31, 23, 59, 59, 999999000, time.UTC)) {
		t.Fatalf("unexpected to %v (%v)", to, err)
	}

	at, err := parseTimeQuery(req, "at", true)
	if err != nil || !at.Equal(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected full timestamps to be kept as-is, got %v (%v)", at, err)
	}

	if _, err := parseTimeQuery(req, "bad", false); err == nil {
		t.Fatal("expected error for malformed value")
	}
	if _, err := parseTimeQuery(req, "missing", false); err == nil {
		t.Fatal("expected error for missing value")
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"movement not found", domain.ErrMovementNotFound, http.StatusNotFound},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"invalid kind", domain.ErrInvalidMovementKind, http.StatusBadRequest},
		{"invalid range", domain.ErrInvalidRange, http.StatusBadRequest},
		{"invalid account type", domain.ErrInvalidAccountType, http.StatusBadRequest},
		{"inactive", domain.ErrAccountInactive, http.StatusConflict},
		{"duplicate number", domain.ErrDuplicateAccountNumber, http.StatusConflict},
		{"already reversed", domain.ErrMovementAlreadyReversed, http.StatusConflict},
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"timestamp out of order", domain.ErrTimestampOutOfOrder, http.StatusUnprocessableEntity},
		{"balance limit exceeded", domain.ErrBalanceLimitExceeded, http.StatusUnprocessableEntity},
		{"busy", domain.ErrBusy, http.StatusServiceUnavailable},
		{"persistence", fmt.Errorf("%w: disk full", domain.ErrPersistence), http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteDomainError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeDomainError(rr, "failed to record movement", domain.ErrBusy)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on busy")
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Kind != "busy" {
		t.Fatalf("expected kind busy, got %+v", resp)
	}

	rr = httptest.NewRecorder()
	writeDomainError(rr, "failed", errors.New("connection string with password"))
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Kind != "internal" || resp.Message != "internal error" {
		t.Fatalf("expected internal errors to be masked, got %+v", resp)
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "bad request", "detail")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if resp.Error != "bad request" {
		t.Fatalf("expected error message to propagate, got %+v", resp)
	}
}
