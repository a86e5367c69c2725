package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrWalletNotFound occurs when an operation references a wallet id
	// that has never been provisioned.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrTransactionNotFound occurs when a transaction id cannot be resolved.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTransactionResolved indicates an attempt to change a transaction
	// that already reached a terminal status.
	ErrTransactionResolved = errors.New("transaction already resolved")

	// ErrNonPositiveAmount rejects zero or negative amounts before any
	// state is touched.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrWalletExists occurs when provisioning collides with an existing
	// wallet for the same user.
	ErrWalletExists = errors.New("wallet already exists")
)

// Rejection marks expected business-rule outcomes so callers can separate
// them from infrastructure faults without matching on concrete types.
type Rejection interface {
	error
	Rejection()
}

// IsRejection reports whether err is an expected business-rule rejection
// (insufficient funds, limit exceeded, unknown tier) rather than a fault.
func IsRejection(err error) bool {
	var r Rejection
	return errors.As(err, &r)
}

// LimitExceededError is returned when an amount exceeds the wallet's
// per-transaction limit. No transaction record is written for it.
type LimitExceededError struct {
	Limit decimal.Decimal
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("amount exceeds transaction limit of %s", e.Limit.StringFixed(2))
}

func (e *LimitExceededError) Rejection() {}

// InsufficientFundsError is returned when a transfer exceeds the sender's
// available balance. No transaction record is written for it.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
	WalletID  string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in wallet %s: available %s, requested %s",
		e.WalletID, e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientFundsError) Rejection() {}

// UnknownTierError is returned when a wallet tier has no limit mapping.
type UnknownTierError struct {
	Tier string
}

func (e *UnknownTierError) Error() string {
	return fmt.Sprintf("unknown wallet tier %q", e.Tier)
}

func (e *UnknownTierError) Rejection() {}

// StoreWriteError wraps a persistence failure encountered during the
// mutation phase of an operation.
type StoreWriteError struct {
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed (%s): %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }
