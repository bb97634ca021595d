package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/movledger/internal/domain"
)

const reconciliationPageSize = 500

// ReconciliationUseCase replays stored movements to check that every
// resulting balance follows from the ones before it.
type ReconciliationUseCase struct {
	accounts  AccountDirectory
	movements MovementRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(accounts AccountDirectory, movements MovementRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accounts:  accounts,
		movements: movements,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	AccountNumber     string
	MovementCount     int
	InitialBalance    decimal.Decimal
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	Discrepancies     []domain.Discrepancy
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount replays one account's full history.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return uc.reconcile(ctx, account)
}

func (uc *ReconciliationUseCase) reconcile(ctx context.Context, account *domain.Account) (*ReconciliationResult, error) {
	history, err := uc.movements.History(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	replay := domain.ReplayLedger(account, history)

	// The replay follows recorded balances; the calculated balance ignores
	// them entirely.
	calculated := account.InitialBalance.Add(domain.NetMovement(history))
	recorded := replay.FinalBalance
	difference := recorded.Sub(calculated)

	return &ReconciliationResult{
		AccountID:         account.ID,
		AccountNumber:     account.Number,
		MovementCount:     replay.MovementCount,
		InitialBalance:    account.InitialBalance,
		RecordedBalance:   recorded,
		CalculatedBalance: calculated,
		Difference:        difference,
		Discrepancies:     replay.Discrepancies,
		IsReconciled:      replay.Consistent() && difference.IsZero(),
		LastChecked:       time.Now().UTC(),
	}, nil
}

// ReconcileAllAccounts reconciles all accounts in the directory
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context) ([]*ReconciliationResult, error) {
	var results []*ReconciliationResult

	for offset := 0; ; offset += reconciliationPageSize {
		accounts, err := uc.accounts.List(ctx, reconciliationPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			result, err := uc.reconcile(ctx, account)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
			}
			results = append(results, result)
		}

		if len(accounts) < reconciliationPageSize {
			break
		}
	}

	return results, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	TotalMovements     int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	CheckedAt          time.Time
}

// GenerateReconciliationReport reconciles every account and summarizes
// the ones that failed.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalAccounts: len(results),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, result := range results {
		report.TotalMovements += result.MovementCount
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}
	report.LedgerConsistent = len(report.Discrepancies) == 0

	return report, nil
}
