package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the same SQL
// serves direct calls and the transactional view.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists wallets and transactions in PostgreSQL. Balances
// travel as text-rendered numerics so the 2-decimal fixed-point contract
// survives the round trip without float conversion.
type PostgresStore struct {
	pgOps
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pgOps: pgOps{q: pool}, pool: pool}
}

// Begin opens a database transaction wrapping the same operations.
func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &postgresTx{pgOps: pgOps{q: tx}, tx: tx}, nil
}

type postgresTx struct {
	pgOps
	tx pgx.Tx
}

func (t *postgresTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *postgresTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

type pgOps struct {
	q querier
}

func (o pgOps) CreateWallet(ctx context.Context, wallet Wallet) error {
	walletID, err := uuid.Parse(wallet.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(wallet.UserID)
	if err != nil {
		return err
	}
	_, err = o.q.Exec(ctx, `INSERT INTO wallets (id, user_id, balance, tier, transaction_limit, created_at, updated_at)
        VALUES ($1, $2, $3::numeric, $4, $5::numeric, $6, $7)`,
		walletID, userID, wallet.Balance.StringFixed(2), string(wallet.Tier),
		wallet.TransactionLimit.StringFixed(2), wallet.CreatedAt.UTC(), wallet.UpdatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrWalletExists
		}
		return err
	}
	return nil
}

const walletColumns = `id, user_id, balance::text, tier, transaction_limit::text, created_at, updated_at`

func (o pgOps) GetWallet(ctx context.Context, id string) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	row := o.q.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, walletID)
	return scanWallet(row)
}

func (o pgOps) GetWalletByUser(ctx context.Context, userID string) (Wallet, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	row := o.q.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, uid)
	return scanWallet(row)
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w            Wallet
		id, userID   uuid.UUID
		balance, lim string
	)
	if err := row.Scan(&id, &userID, &balance, &w.Tier, &lim, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.UserID = userID.String()
	var err error
	if w.Balance, err = decimal.NewFromString(balance); err != nil {
		return Wallet{}, fmt.Errorf("parse balance: %w", err)
	}
	if w.TransactionLimit, err = decimal.NewFromString(lim); err != nil {
		return Wallet{}, fmt.Errorf("parse transaction limit: %w", err)
	}
	return w, nil
}

func (o pgOps) UpdateBalance(ctx context.Context, walletID string, balance decimal.Decimal) error {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return ErrWalletNotFound
	}
	cmd, err := o.q.Exec(ctx, `UPDATE wallets SET balance = $2::numeric, updated_at = now() WHERE id = $1`,
		id, balance.StringFixed(2))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (o pgOps) CreateTransaction(ctx context.Context, txn Transaction) error {
	id, err := uuid.Parse(txn.ID)
	if err != nil {
		return err
	}
	walletID, err := uuid.Parse(txn.WalletID)
	if err != nil {
		return err
	}
	_, err = o.q.Exec(ctx, `INSERT INTO transactions
        (id, wallet_id, amount, kind, mode, status, description, counterparty_wallet_id, counterparty_user_id, error_message, created_at, updated_at)
        VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, walletID, txn.Amount.StringFixed(2), string(txn.Kind), string(txn.Mode), string(txn.Status),
		txn.Description, nullableUUID(txn.CounterpartyWalletID), nullableUUID(txn.CounterpartyUserID),
		txn.ErrorMessage, txn.CreatedAt.UTC(), txn.UpdatedAt.UTC())
	return err
}

const transactionColumns = `id, wallet_id, amount::text, kind, mode, status, description,
    COALESCE(counterparty_wallet_id::text, ''), COALESCE(counterparty_user_id::text, ''),
    error_message, created_at, updated_at`

func (o pgOps) ResolveTransaction(ctx context.Context, id string, status Status, errMsg string) (Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrTransactionNotFound
	}
	row := o.q.QueryRow(ctx, `UPDATE transactions SET status = $2, error_message = $3, updated_at = now()
        WHERE id = $1 AND status = 'pending'
        RETURNING `+transactionColumns, txID, string(status), errMsg)
	txn, err := scanTransaction(row)
	if err == nil {
		return txn, nil
	}
	if !errors.Is(err, ErrTransactionNotFound) {
		return Transaction{}, err
	}
	// Distinguish a missing record from an already-terminal one.
	var existing string
	if scanErr := o.q.QueryRow(ctx, `SELECT status FROM transactions WHERE id = $1`, txID).Scan(&existing); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, scanErr
	}
	return Transaction{}, ErrTransactionResolved
}

func (o pgOps) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return Transaction{}, ErrTransactionNotFound
	}
	row := o.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, txID)
	return scanTransaction(row)
}

func (o pgOps) ListTransactions(ctx context.Context, walletID string, limit, offset int) ([]Transaction, error) {
	id, err := uuid.Parse(walletID)
	if err != nil {
		return nil, ErrWalletNotFound
	}
	rows, err := o.q.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		txn          Transaction
		id, walletID uuid.UUID
		amount       string
	)
	if err := row.Scan(&id, &walletID, &amount, &txn.Kind, &txn.Mode, &txn.Status, &txn.Description,
		&txn.CounterpartyWalletID, &txn.CounterpartyUserID, &txn.ErrorMessage, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	txn.ID = id.String()
	txn.WalletID = walletID.String()
	var err error
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	return txn, nil
}

func nullableUUID(s string) any {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return id
}
