package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestMemoryStoreOneWalletPerUser(t *testing.T) {
	store := NewMemoryStore()
	w := seedWallet(t, store, TierBasic, "0.00")

	dup := w
	dup.ID = uuid.NewString()
	if err := store.CreateWallet(context.Background(), dup); !errors.Is(err, ErrWalletExists) {
		t.Fatalf("expected ErrWalletExists for second wallet of same user, got %v", err)
	}
}

func TestResolveTransactionIsMonotonic(t *testing.T) {
	store := NewMemoryStore()
	w := seedWallet(t, store, TierBasic, "0.00")
	ctx := context.Background()

	rec := Transaction{
		ID:        uuid.NewString(),
		WalletID:  w.ID,
		Amount:    decimal.RequireFromString("10.00"),
		Kind:      KindDeposit,
		Mode:      ModeUPI,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateTransaction(ctx, rec); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	resolved, err := store.ResolveTransaction(ctx, rec.ID, StatusSuccess, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != StatusSuccess {
		t.Fatalf("expected success, got %s", resolved.Status)
	}

	if _, err := store.ResolveTransaction(ctx, rec.ID, StatusFailed, "late failure"); !errors.Is(err, ErrTransactionResolved) {
		t.Fatalf("terminal status was overwritten: %v", err)
	}
	got, _ := store.GetTransaction(ctx, rec.ID)
	if got.Status != StatusSuccess || got.ErrorMessage != "" {
		t.Fatalf("terminal record mutated: %+v", got)
	}
}

func TestMemoryTxCommitIsAtomic(t *testing.T) {
	store := NewMemoryStore()
	a := seedWallet(t, store, TierBasic, "100.00")
	b := seedWallet(t, store, TierBasic, "0.00")
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.UpdateBalance(ctx, a.ID, decimal.RequireFromString("60.00")); err != nil {
		t.Fatalf("staged debit: %v", err)
	}
	if err := tx.UpdateBalance(ctx, b.ID, decimal.RequireFromString("40.00")); err != nil {
		t.Fatalf("staged credit: %v", err)
	}

	// Staged writes are invisible before commit.
	if got := mustBalance(t, store, a.ID); !got.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("staged write leaked: %s", got)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := mustBalance(t, store, a.ID); !got.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("debit not applied: %s", got)
	}
	if got := mustBalance(t, store, b.ID); !got.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("credit not applied: %s", got)
	}
}

func TestMemoryTxRollbackDiscards(t *testing.T) {
	store := NewMemoryStore()
	w := seedWallet(t, store, TierBasic, "100.00")
	ctx := context.Background()

	tx, _ := store.Begin(ctx)
	if err := tx.UpdateBalance(ctx, w.ID, decimal.Zero); err != nil {
		t.Fatalf("staged write: %v", err)
	}
	rec := Transaction{ID: uuid.NewString(), WalletID: w.ID, Amount: decimal.NewFromInt(1), Kind: KindDeposit, Mode: ModeUPI, Status: StatusPending}
	if err := tx.CreateTransaction(ctx, rec); err != nil {
		t.Fatalf("staged record: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if got := mustBalance(t, store, w.ID); !got.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("rollback leaked balance write: %s", got)
	}
	if _, err := store.GetTransaction(ctx, rec.ID); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("rollback leaked transaction record: %v", err)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	w := seedWallet(t, store, TierBasic, "0.00")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := Transaction{
			ID:          uuid.NewString(),
			WalletID:    w.ID,
			Amount:      decimal.NewFromInt(int64(i + 1)),
			Kind:        KindDeposit,
			Mode:        ModeUPI,
			Status:      StatusSuccess,
			Description: fmt.Sprintf("n%d", i),
			CreatedAt:   time.Now().UTC(),
		}
		if err := store.CreateTransaction(ctx, rec); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	page, err := store.ListTransactions(ctx, w.ID, 2, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 records, got %d", len(page))
	}
	if page[0].Description != "n3" || page[1].Description != "n2" {
		t.Fatalf("unexpected page order: %s, %s", page[0].Description, page[1].Description)
	}
}

func TestLimitForTier(t *testing.T) {
	basic, err := LimitForTier(TierBasic)
	if err != nil || !basic.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("basic limit: %s, %v", basic, err)
	}
	premium, err := LimitForTier(TierPremium)
	if err != nil || !premium.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("premium limit: %s, %v", premium, err)
	}
	_, err = LimitForTier(Tier("Gold"))
	var tierErr *UnknownTierError
	if !errors.As(err, &tierErr) || tierErr.Tier != "Gold" {
		t.Fatalf("expected UnknownTierError for Gold, got %v", err)
	}
	if !IsRejection(err) {
		t.Fatal("unknown tier should be a business rejection")
	}
}
