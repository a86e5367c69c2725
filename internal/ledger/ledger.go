package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Tier classifies a wallet and determines its per-transaction limit.
type Tier string

const (
	TierBasic   Tier = "Basic"
	TierPremium Tier = "Premium"
)

// LimitForTier maps a wallet tier to its per-transaction limit.
func LimitForTier(tier Tier) (decimal.Decimal, error) {
	switch tier {
	case TierBasic:
		return decimal.NewFromInt(1000), nil
	case TierPremium:
		return decimal.NewFromInt(10000), nil
	default:
		return decimal.Decimal{}, &UnknownTierError{Tier: string(tier)}
	}
}

// Kind identifies the direction of a balance change.
type Kind string

const (
	KindDeposit     Kind = "deposit"
	KindTransferOut Kind = "transfer_out"
	KindTransferIn  Kind = "transfer_in"
)

// Mode is the funding channel for an operation.
type Mode string

const (
	ModeUPI           Mode = "UPI"
	ModeCard          Mode = "Card"
	ModeWalletBalance Mode = "WalletBalance"
)

// ValidMode reports whether m names a supported payment mode.
func ValidMode(m Mode) bool {
	switch m {
	case ModeUPI, ModeCard, ModeWalletBalance:
		return true
	}
	return false
}

// Status is the lifecycle state of a transaction record. A record starts
// pending and moves exactly once to success or failed.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Wallet is a balance-holding account owned by exactly one user. Its balance
// is a 2-decimal fixed-point amount and is only mutated by the Engine while
// the wallet's lock is held.
type Wallet struct {
	ID               string
	UserID           string
	Balance          decimal.Decimal
	Tier             Tier
	TransactionLimit decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Transaction is the audit record of a balance change attempt. Once resolved
// to a terminal status it is immutable.
type Transaction struct {
	ID                   string
	WalletID             string
	Amount               decimal.Decimal
	Kind                 Kind
	Mode                 Mode
	Status               Status
	Description          string
	CounterpartyWalletID string
	CounterpartyUserID   string
	ErrorMessage         string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Ops is the set of read/write operations shared by the store and its
// transactional view.
type Ops interface {
	CreateWallet(ctx context.Context, wallet Wallet) error
	GetWallet(ctx context.Context, id string) (Wallet, error)
	GetWalletByUser(ctx context.Context, userID string) (Wallet, error)
	UpdateBalance(ctx context.Context, walletID string, balance decimal.Decimal) error
	CreateTransaction(ctx context.Context, txn Transaction) error
	// ResolveTransaction moves a pending record to a terminal status and
	// returns the updated record. Resolving an already-terminal record
	// fails with ErrTransactionResolved.
	ResolveTransaction(ctx context.Context, id string, status Status, errMsg string) (Transaction, error)
	GetTransaction(ctx context.Context, id string) (Transaction, error)
	ListTransactions(ctx context.Context, walletID string, limit, offset int) ([]Transaction, error)
}

// Store is the durable source of truth for wallets and transactions.
type Store interface {
	Ops
	// Begin opens a multi-write transaction so a transfer's debit, credit
	// and both records commit or roll back as a unit.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a transactional view over the store.
type Tx interface {
	Ops
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Event is the structured record emitted to audit observers for every
// resolved transaction.
type Event struct {
	TransactionID string
	WalletID      string
	UserID        string
	Amount        decimal.Decimal
	Kind          Kind
	Mode          Mode
	Status        Status
	Description   string
	ErrorMessage  string
	At            time.Time
}

// BalanceEvent describes a committed wallet balance write.
type BalanceEvent struct {
	WalletID string
	UserID   string
	Balance  decimal.Decimal
	At       time.Time
}

// Observer receives a copy of ledger activity. Implementations are
/// best-effort: the engine logs and discards their errors.
type Observer interface {
	TransactionRecorded(ctx context.Context, event Event) error
	BalanceChanged(ctx context.Context, event BalanceEvent) error
}
