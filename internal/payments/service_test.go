package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
	"github.com/paisa-pay/paisa_pay/internal/logging"
	"github.com/paisa-pay/paisa_pay/internal/wallet"
)

type denyingAuthorizer struct{ reason string }

func (d denyingAuthorizer) Authorize(context.Context, AuthorizationRequest) (AuthorizationDecision, error) {
	return AuthorizationDecision{Approved: false, Reason: d.reason}, nil
}

type erroringAuthorizer struct{ err error }

func (e erroringAuthorizer) Authorize(context.Context, AuthorizationRequest) (AuthorizationDecision, error) {
	return AuthorizationDecision{}, e.err
}

type fixture struct {
	store   *ledger.MemoryStore
	wallets *wallet.Service
	service *Service
}

func newFixture(t *testing.T, authorizer Authorizer) *fixture {
	t.Helper()
	store := ledger.NewMemoryStore()
	logger := logging.Discard()
	wallets := wallet.NewService(store, nil, 0, logger)
	engine := ledger.NewEngine(store, ledger.NewLockTable(), nil, logger)
	return &fixture{
		store:   store,
		wallets: wallets,
		service: NewService(engine, wallets, authorizer, logger),
	}
}

func (f *fixture) wallet(t *testing.T, balance string) ledger.Wallet {
	t.Helper()
	w, err := f.wallets.Create(context.Background(), uuid.NewString(), ledger.TierBasic)
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if balance != "" {
		ledger.SeedBalance(f.store, w.ID, decimal.RequireFromString(balance))
	}
	return w
}

func TestDepositApproved(t *testing.T) {
	f := newFixture(t, nil)
	w := f.wallet(t, "")

	txn, err := f.service.Deposit(context.Background(), DepositInput{
		WalletID: w.ID,
		Amount:   decimal.RequireFromString("250.00"),
		Mode:     ledger.ModeUPI,
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if txn.Status != ledger.StatusSuccess {
		t.Fatalf("status = %q, want success", txn.Status)
	}

	got, err := f.wallets.Balance(context.Background(), w.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("250.00")) {
		t.Fatalf("balance = %s, want 250.00", got.Amount)
	}
}

func TestDepositDeniedLeavesNoRecord(t *testing.T) {
	f := newFixture(t, denyingAuthorizer{reason: "card declined"})
	w := f.wallet(t, "")

	_, err := f.service.Deposit(context.Background(), DepositInput{
		WalletID: w.ID,
		Amount:   decimal.RequireFromString("50.00"),
		Mode:     ledger.ModeCard,
	})
	if !errors.Is(err, ErrAuthorizationDenied) {
		t.Fatalf("err = %v, want ErrAuthorizationDenied", err)
	}

	txns, err := f.store.ListTransactions(context.Background(), w.ID, 10, 0)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 0 {
		t.Fatalf("got %d transactions, want none", len(txns))
	}
}

func TestDepositAuthorizerFailure(t *testing.T) {
	gatewayDown := errors.New("gateway unreachable")
	f := newFixture(t, erroringAuthorizer{err: gatewayDown})
	w := f.wallet(t, "")

	_, err := f.service.Deposit(context.Background(), DepositInput{
		WalletID: w.ID,
		Amount:   decimal.RequireFromString("50.00"),
		Mode:     ledger.ModeUPI,
	})
	if !errors.Is(err, gatewayDown) {
		t.Fatalf("err = %v, want wrapped gateway error", err)
	}
}

func TestDepositRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, nil)
	w := f.wallet(t, "")
	ctx := context.Background()

	_, err := f.service.Deposit(ctx, DepositInput{
		WalletID: w.ID,
		Amount:   decimal.RequireFromString("10.001"),
		Mode:     ledger.ModeUPI,
	})
	if !errors.Is(err, ErrAmountPrecision) {
		t.Fatalf("err = %v, want ErrAmountPrecision", err)
	}

	_, err = f.service.Deposit(ctx, DepositInput{
		WalletID: w.ID,
		Amount:   decimal.Zero,
		Mode:     ledger.ModeUPI,
	})
	if !errors.Is(err, ledger.ErrNonPositiveAmount) {
		t.Fatalf("err = %v, want ErrNonPositiveAmount", err)
	}

	_, err = f.service.Deposit(ctx, DepositInput{
		WalletID: w.ID,
		Amount:   decimal.RequireFromString("10.00"),
		Mode:     ledger.Mode("cheque"),
	})
	if !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("err = %v, want ErrInvalidMode", err)
	}
}

func TestTransferByUserID(t *testing.T) {
	f := newFixture(t, nil)
	from := f.wallet(t, "300.00")
	to := f.wallet(t, "")

	txn, err := f.service.Transfer(context.Background(), TransferInput{
		FromWalletID:    from.ID,
		ToUserID:        to.UserID,
		Amount:          decimal.RequireFromString("120.00"),
		RequestorUserID: from.UserID,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if txn.CounterpartyWalletID != to.ID {
		t.Fatalf("counterparty wallet = %q, want %q", txn.CounterpartyWalletID, to.ID)
	}

	toBalance, err := f.wallets.Balance(context.Background(), to.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !toBalance.Amount.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("recipient balance = %s, want 120.00", toBalance.Amount)
	}
}

func TestTransferRejectsSelf(t *testing.T) {
	f := newFixture(t, nil)
	w := f.wallet(t, "100.00")
	ctx := context.Background()

	_, err := f.service.Transfer(ctx, TransferInput{
		FromWalletID:    w.ID,
		ToWalletID:      w.ID,
		Amount:          decimal.RequireFromString("10.00"),
		RequestorUserID: w.UserID,
	})
	if !errors.Is(err, ErrSelfTransfer) {
		t.Fatalf("err = %v, want ErrSelfTransfer", err)
	}

	// Resolving the recipient by user id must hit the same rule.
	_, err = f.service.Transfer(ctx, TransferInput{
		FromWalletID:    w.ID,
		ToUserID:        w.UserID,
		Amount:          decimal.RequireFromString("10.00"),
		RequestorUserID: w.UserID,
	})
	if !errors.Is(err, ErrSelfTransfer) {
		t.Fatalf("err = %v, want ErrSelfTransfer", err)
	}
}

func TestTransferRejectsNonOwner(t *testing.T) {
	f := newFixture(t, nil)
	from := f.wallet(t, "100.00")
	to := f.wallet(t, "")

	_, err := f.service.Transfer(context.Background(), TransferInput{
		FromWalletID:    from.ID,
		ToWalletID:      to.ID,
		Amount:          decimal.RequireFromString("10.00"),
		RequestorUserID: uuid.NewString(),
	})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
}

func TestTransferUnknownRecipient(t *testing.T) {
	f := newFixture(t, nil)
	from := f.wallet(t, "100.00")

	_, err := f.service.Transfer(context.Background(), TransferInput{
		FromWalletID:    from.ID,
		ToUserID:        uuid.NewString(),
		Amount:          decimal.RequireFromString("10.00"),
		RequestorUserID: from.UserID,
	})
	if !errors.Is(err, ledger.ErrWalletNotFound) {
		t.Fatalf("err = %v, want ErrWalletNotFound", err)
	}
}
