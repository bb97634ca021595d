package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string          `json:"id"`
	Number         string          `json:"number"`
	Type           string          `json:"type"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Active         bool            `json:"active"`
	CustomerID     string          `json:"customer_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		Number:         a.Number,
		Type:           string(a.Type),
		InitialBalance: a.InitialBalance,
		Active:         a.Active,
		CustomerID:     a.CustomerID,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse is a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// MovementResponse represents a movement in API responses.
type MovementResponse struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	Sequence         int64           `json:"sequence"`
	Timestamp        time.Time       `json:"timestamp"`
	Kind             string          `json:"kind"`
	Amount           decimal.Decimal `json:"amount"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
	ReversesID       *string         `json:"reverses_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// MovementFromDomain converts domain movement to response.
func MovementFromDomain(m *domain.Movement) *MovementResponse {
	return &MovementResponse{
		ID:               m.ID,
		AccountID:        m.AccountID,
		Sequence:         m.Sequence,
		Timestamp:        m.Timestamp,
		Kind:             string(m.Kind),
		Amount:           m.Amount,
		ResultingBalance: m.ResultingBalance,
		ReversesID:       m.ReversesID,
		CreatedAt:        m.CreatedAt,
	}
}

// MovementsFromDomain converts domain movements to responses.
func MovementsFromDomain(movements []*domain.Movement) []*MovementResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return result
}

// ListMovementsResponse is a page of an account's movements, newest first.
type ListMovementsResponse struct {
	Movements []*MovementResponse `json:"movements"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

// AccountStatementResponse is the statement of a single account.
type AccountStatementResponse struct {
	AccountID      string              `json:"account_id"`
	AccountNumber  string              `json:"account_number"`
	AccountType    string              `json:"account_type"`
	Active         bool                `json:"active"`
	CustomerID     string              `json:"customer_id"`
	From           time.Time           `json:"from"`
	To             time.Time           `json:"to"`
	InitialBalance decimal.Decimal     `json:"initial_balance"`
	NetMovement    decimal.Decimal     `json:"net_movement"`
	EndingBalance  decimal.Decimal     `json:"ending_balance"`
	Movements      []*MovementResponse `json:"movements"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// StatementResponse wraps the per-account statements of a customer.
type StatementResponse struct {
	CustomerID string                      `json:"customer_id"`
	From       time.Time                   `json:"from"`
	To         time.Time                   `json:"to"`
	Accounts   []*AccountStatementResponse `json:"accounts"`
}

// StatementFromDomain converts generated statements to a response.
func StatementFromDomain(customerID string, from, to time.Time, statements []*domain.AccountStatement) *StatementResponse {
	accounts := make([]*AccountStatementResponse, len(statements))
	for i, s := range statements {
		accounts[i] = &AccountStatementResponse{
			AccountID:      s.AccountID,
			AccountNumber:  s.AccountNumber,
			AccountType:    string(s.AccountType),
			Active:         s.Active,
			CustomerID:     s.CustomerID,
			From:           s.From,
			To:             s.To,
			InitialBalance: s.InitialBalance,
			NetMovement:    s.NetMovement,
			EndingBalance:  s.EndingBalance,
			Movements:      MovementsFromDomain(s.Movements),
			GeneratedAt:    s.GeneratedAt,
		}
	}
	return &StatementResponse{
		CustomerID: customerID,
		From:       from,
		To:         to,
		Accounts:   accounts,
	}
}

// DiscrepancyResponse describes one replay finding.
type DiscrepancyResponse struct {
	MovementID string          `json:"movement_id"`
	Sequence   int64           `json:"sequence"`
	Type       string          `json:"type"`
	Expected   decimal.Decimal `json:"expected"`
	Recorded   decimal.Decimal `json:"recorded"`
}

// ReconciliationResponse is the verification result for one account.
type ReconciliationResponse struct {
	AccountID         string                `json:"account_id"`
	AccountNumber     string                `json:"account_number"`
	MovementCount     int                   `json:"movement_count"`
	InitialBalance    decimal.Decimal       `json:"initial_balance"`
	RecordedBalance   decimal.Decimal       `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal       `json:"calculated_balance"`
	Difference        decimal.Decimal       `json:"difference"`
	Discrepancies     []DiscrepancyResponse `json:"discrepancies"`
	IsReconciled      bool                  `json:"is_reconciled"`
	LastChecked       time.Time             `json:"last_checked"`
}

// ReconciliationFromUseCase converts a reconciliation result to a response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	discrepancies := make([]DiscrepancyResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = DiscrepancyResponse{
			MovementID: d.MovementID,
			Sequence:   d.Sequence,
			Type:       string(d.Type),
			Expected:   d.Expected,
			Recorded:   d.Recorded,
		}
	}
	return &ReconciliationResponse{
		AccountID:         r.AccountID,
		AccountNumber:     r.AccountNumber,
		MovementCount:     r.MovementCount,
		InitialBalance:    r.InitialBalance,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		Discrepancies:     discrepancies,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportResponse summarises a ledger-wide verification.
type ReconciliationReportResponse struct {
	TotalAccounts      int                       `json:"total_accounts"`
	ReconciledAccounts int                       `json:"reconciled_accounts"`
	TotalMovements     int                       `json:"total_movements"`
	Discrepancies      []*ReconciliationResponse `json:"discrepancies"`
	LedgerConsistent   bool                      `json:"ledger_consistent"`
	CheckedAt          time.Time                 `json:"checked_at"`
}

// ReportFromUseCase converts a reconciliation report to a response.
func ReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromUseCase(d)
	}
	return &ReconciliationReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		TotalMovements:     r.TotalMovements,
		Discrepancies:      discrepancies,
		LedgerConsistent:   r.LedgerConsistent,
		CheckedAt:          r.CheckedAt,
	}
}

// BalanceResponse is the resolved balance of an account.
type BalanceResponse struct {
	AccountID    string          `json:"account_id"`
	Balance      decimal.Decimal `json:"balance"`
	LastMovement *string         `json:"last_movement_id,omitempty"`
	Sequence     int64           `json:"sequence"`
}

// BalanceFromDomain converts a resolved balance to a response.
func BalanceFromDomain(b domain.Balance) *BalanceResponse {
	resp := &BalanceResponse{
		AccountID: b.AccountID,
		Balance:   b.Amount,
	}
	if b.AsOf != nil {
		id := b.AsOf.ID
		resp.LastMovement = &id
		resp.Sequence = b.AsOf.Sequence
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
}
