package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine serializes concurrent operations against wallets and applies
// deposits and transfers with auditable status transitions. It owns no
// state itself: the store is the source of truth and the lock table is the
// only correctness boundary.
type Engine struct {
	store    Store
	locks    *LockTable
	observer Observer
	logger   *slog.Logger
}

// NewEngine wires the balance mutation engine. observer may be nil.
func NewEngine(store Store, locks *LockTable, observer Observer, logger *slog.Logger) *Engine {
	return &Engine{store: store, locks: locks, observer: observer, logger: logger}
}

// Deposit credits amount to the wallet. The caller must already hold an
// authorization decision for (amount, mode); the engine does not re-check
// it. The whole body runs under the wallet's lock so no two operations on
// the wallet interleave.
func (e *Engine) Deposit(ctx context.Context, walletID string, amount decimal.Decimal, mode Mode, description string) (Transaction, error) {
	txn, events, balances, err := e.depositLocked(ctx, walletID, amount, mode, description)
	e.emit(ctx, events, balances)
	return txn, err
}

func (e *Engine) depositLocked(ctx context.Context, walletID string, amount decimal.Decimal, mode Mode, description string) (Transaction, []Event, []BalanceEvent, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, nil, nil, ErrNonPositiveAmount
	}

	release := e.locks.Acquire(walletID)
	defer release()

	w, err := e.store.GetWallet(ctx, walletID)
	if err != nil {
		return Transaction{}, nil, nil, err
	}
	if amount.GreaterThan(w.TransactionLimit) {
		return Transaction{}, nil, nil, &LimitExceededError{Limit: w.TransactionLimit}
	}

	now := time.Now().UTC()
	rec := Transaction{
		ID:          uuid.NewString(),
		WalletID:    walletID,
		Amount:      amount,
		Kind:        KindDeposit,
		Mode:        mode,
		Status:      StatusPending,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateTransaction(ctx, rec); err != nil {
		return Transaction{}, nil, nil, &StoreWriteError{Op: "create transaction", Err: err}
	}

	newBalance := w.Balance.Add(amount)
	if err := e.store.UpdateBalance(ctx, walletID, newBalance); err != nil {
		failed := e.markFailed(ctx, rec, err)
		return failed, []Event{eventFor(failed, w.UserID)}, nil, &StoreWriteError{Op: "update balance", Err: err}
	}

	balances := []BalanceEvent{{WalletID: walletID, UserID: w.UserID, Balance: newBalance, At: time.Now().UTC()}}

	resolved, err := e.store.ResolveTransaction(ctx, rec.ID, StatusSuccess, "")
	if err != nil {
		failed := e.markFailed(ctx, rec, err)
		return failed, []Event{eventFor(failed, w.UserID)}, balances, &StoreWriteError{Op: "resolve transaction", Err: err}
	}

	return resolved, []Event{eventFor(resolved, w.UserID)}, balances, nil
}

// Transfer moves amount from one wallet to another. Callers enforce that
// the wallets differ and that the requester owns the source wallet. The
// debit, credit and both transaction records commit atomically in a single
// store transaction; the sender-side record still transitions
// pending -> success|failed for the audit trail.
func (e *Engine) Transfer(ctx context.Context, fromWalletID, toWalletID string, amount decimal.Decimal, description string) (Transaction, error) {
	txn, events, balances, err := e.transferLocked(ctx, fromWalletID, toWalletID, amount, description)
	e.emit(ctx, events, balances)
	return txn, err
}

func (e *Engine) transferLocked(ctx context.Context, fromWalletID, toWalletID string, amount decimal.Decimal, description string) (Transaction, []Event, []BalanceEvent, error) {
	if amount.Sign() <= 0 {
		return Transaction{}, nil, nil, ErrNonPositiveAmount
	}

	release := e.locks.AcquirePair(fromWalletID, toWalletID)
	defer release()

	fromWallet, err := e.store.GetWallet(ctx, fromWalletID)
	if err != nil {
		return Transaction{}, nil, nil, err
	}
	toWallet, err := e.store.GetWallet(ctx, toWalletID)
	if err != nil {
		return Transaction{}, nil, nil, err
	}

	if fromWallet.Balance.LessThan(amount) {
		return Transaction{}, nil, nil, &InsufficientFundsError{
			Available: fromWallet.Balance,
			Requested: amount,
			WalletID:  fromWalletID,
		}
	}
	if amount.GreaterThan(fromWallet.TransactionLimit) {
		return Transaction{}, nil, nil, &LimitExceededError{Limit: fromWallet.TransactionLimit}
	}

	now := time.Now().UTC()
	outRec := Transaction{
		ID:                   uuid.NewString(),
		WalletID:             fromWalletID,
		Amount:               amount,
		Kind:                 KindTransferOut,
		Mode:                 ModeWalletBalance,
		Status:               StatusPending,
		Description:          description,
		CounterpartyWalletID: toWalletID,
		CounterpartyUserID:   toWallet.UserID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	inRec := Transaction{
		ID:                   uuid.NewString(),
		WalletID:             toWalletID,
		Amount:               amount,
		Kind:                 KindTransferIn,
		Mode:                 ModeWalletBalance,
		Status:               StatusSuccess,
		Description:          description,
		CounterpartyWalletID: fromWalletID,
		CounterpartyUserID:   fromWallet.UserID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	fromBalance := fromWallet.Balance.Sub(amount)
	toBalance := toWallet.Balance.Add(amount)

	resolved, err := e.applyTransfer(ctx, outRec, inRec, fromBalance, toBalance)
	if err != nil {
		failed := e.recordFailedTransfer(ctx, outRec, err)
		return failed, []Event{eventFor(failed, fromWallet.UserID)}, nil, err
	}

	at := time.Now().UTC()
	events := []Event{eventFor(resolved, fromWallet.UserID), eventFor(inRec, toWallet.UserID)}
	balances := []BalanceEvent{
		{WalletID: fromWalletID, UserID: fromWallet.UserID, Balance: fromBalance, At: at},
		{WalletID: toWalletID, UserID: toWallet.UserID, Balance: toBalance, At: at},
	}
	return resolved, events, balances, nil
}

// applyTransfer runs the mutation phase inside one store transaction so a
// failure between debit and credit aborts both sides.
func (e *Engine) applyTransfer(ctx context.Context, outRec, inRec Transaction, fromBalance, toBalance decimal.Decimal) (Transaction, error) {
	stx, err := e.store.Begin(ctx)
	if err != nil {
		return Transaction{}, &StoreWriteError{Op: "begin transfer", Err: err}
	}
	defer stx.Rollback(ctx) // nolint:errcheck

	if err := stx.CreateTransaction(ctx, outRec); err != nil {
		return Transaction{}, &StoreWriteError{Op: "create transfer_out", Err: err}
	}
	if err := stx.UpdateBalance(ctx, outRec.WalletID, fromBalance); err != nil {
		return Transaction{}, &StoreWriteError{Op: "debit sender", Err: err}
	}
	if err := stx.UpdateBalance(ctx, inRec.WalletID, toBalance); err != nil {
		return Transaction{}, &StoreWriteError{Op: "credit recipient", Err: err}
	}
	if err := stx.CreateTransaction(ctx, inRec); err != nil {
		return Transaction{}, &StoreWriteError{Op: "create transfer_in", Err: err}
	}
	resolved, err := stx.ResolveTransaction(ctx, outRec.ID, StatusSuccess, "")
	if err != nil {
		return Transaction{}, &StoreWriteError{Op: "resolve transfer_out", Err: err}
	}
	if err := stx.Commit(ctx); err != nil {
		return Transaction{}, &StoreWriteError{Op: "commit transfer", Err: err}
	}
	return resolved, nil
}

// markFailed resolves a committed pending record to failed, preserving the
// error message. Best effort: a second failure is logged, not surfaced.
func (e *Engine) markFailed(ctx context.Context, rec Transaction, cause error) Transaction {
	failed, err := e.store.ResolveTransaction(ctx, rec.ID, StatusFailed, cause.Error())
	if err != nil {
		if e.logger != nil {
			e.logger.Error("failed to mark transaction failed",
				slog.String("transaction_id", rec.ID), slog.Any("error", err))
		}
		rec.Status = StatusFailed
		rec.ErrorMessage = cause.Error()
		return rec
	}
	return failed
}

// recordFailedTransfer persists a failed transfer_out record after the
// transfer's store transaction was rolled back, so the attempt still leaves
// an audit trail. Best effort.
func (e *Engine) recordFailedTransfer(ctx context.Context, outRec Transaction, cause error) Transaction {
	outRec.Status = StatusFailed
	outRec.ErrorMessage = cause.Error()
	outRec.UpdatedAt = time.Now().UTC()
	if err := e.store.CreateTransaction(ctx, outRec); err != nil {
		if e.logger != nil {
			e.logger.Error("failed to record failed transfer",
				slog.String("transaction_id", outRec.ID), slog.Any("error", err))
		}
	}
	return outRec
}

// emit notifies observers after locks are released. Observer failures are
// logged and never propagate.
func (e *Engine) emit(ctx context.Context, events []Event, balances []BalanceEvent) {
	if e.observer == nil {
		return
	}
	for _, ev := range events {
		if err := e.observer.TransactionRecorded(ctx, ev); err != nil && e.logger != nil {
			e.logger.Warn("audit observer rejected transaction event",
				slog.String("transaction_id", ev.TransactionID), slog.Any("error", err))
		}
	}
	for _, ev := range balances {
		if err := e.observer.BalanceChanged(ctx, ev); err != nil && e.logger != nil {
			e.logger.Warn("audit observer rejected balance event",
				slog.String("wallet_id", ev.WalletID), slog.Any("error", err))
		}
	}
}

func eventFor(txn Transaction, userID string) Event {
	return Event{
		TransactionID: txn.ID,
		WalletID:      txn.WalletID,
		UserID:        userID,
		Amount:        txn.Amount,
		Kind:          txn.Kind,
		Mode:          txn.Mode,
		Status:        txn.Status,
		Description:   txn.Description,
		ErrorMessage:  txn.ErrorMessage,
		At:            txn.UpdatedAt,
	}
}
