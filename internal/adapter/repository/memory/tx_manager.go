// Package memory holds in-process implementations of the store interfaces.
// Writes are staged on a Tx and applied in order on Commit. A failed write
// undoes the ones applied before it, so a commit is all or nothing.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/movledger/internal/usecase"
)

var (
	// ErrTxClosed is returned when a committed or rolled back Tx is reused.
	ErrTxClosed = errors.New("memory: transaction already closed")
	// ErrForeignTx is returned when a store receives a non-memory transaction.
	ErrForeignTx = errors.New("memory: transaction was not started by memory.TxManager")
)

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	// commitMu serializes commits so an undo never races another commit.
	commitMu sync.Mutex
}

// NewTxManager creates a new TxManager.
func NewTxManager() *TxManager {
	return &TxManager{}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{commitMu: &m.commitMu}, nil
}

// stagedOp applies one write and returns how to revert it.
type stagedOp func() (undo func(), err error)

// Tx collects staged writes.
type Tx struct {
	mu       sync.Mutex
	commitMu *sync.Mutex
	ops      []stagedOp
	closed   bool
}

func (t *Tx) stage(op stagedOp) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTxClosed
	}
	t.ops = append(t.ops, op)
	return nil
}

// Commit applies staged writes in order. On the first failure the writes
// already applied are undone in reverse order and the error is returned.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTxClosed
	}
	t.closed = true

	if err := ctx.Err(); err != nil {
		return err
	}

	t.commitMu.Lock()
	defer t.commitMu.Unlock()

	undos := make([]func(), 0, len(t.ops))
	for _, op := range t.ops {
		undo, err := op()
		if err != nil {
			for i := len(undos) - 1; i >= 0; i-- {
				undos[i]()
			}
			t.ops = nil
			return err
		}
		undos = append(undos, undo)
	}
	t.ops = nil
	return nil
}

// Rollback discards staged writes. Rolling back a closed Tx is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.ops = nil
	return nil
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	mtx, ok := tx.(*Tx)
	if !ok {
		return nil, ErrForeignTx
	}
	return mtx, nil
}
