package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
	"github.com/paisa-pay/paisa_pay/internal/logging"
)

type countingSink struct {
	txns     int
	balances int
	err      error
}

func (s *countingSink) TransactionRecorded(context.Context, ledger.Event) error {
	s.txns++
	return s.err
}

func (s *countingSink) BalanceChanged(context.Context, ledger.BalanceEvent) error {
	s.balances++
	return s.err
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	broken := &countingSink{err: errors.New("sink down")}
	healthy := &countingSink{}
	fanout := NewFanout(logging.Discard(), broken, healthy)

	ev := ledger.Event{
		TransactionID: "t-1",
		WalletID:      "w-1",
		Amount:        decimal.RequireFromString("10.00"),
		Kind:          ledger.KindDeposit,
		Status:        ledger.StatusSuccess,
		At:            time.Now(),
	}
	if err := fanout.TransactionRecorded(context.Background(), ev); err != nil {
		t.Fatalf("fanout must swallow sink errors, got %v", err)
	}
	if err := fanout.BalanceChanged(context.Background(), ledger.BalanceEvent{WalletID: "w-1"}); err != nil {
		t.Fatalf("fanout must swallow sink errors, got %v", err)
	}

	if broken.txns != 1 || healthy.txns != 1 {
		t.Fatalf("transaction deliveries = %d/%d, want 1/1", broken.txns, healthy.txns)
	}
	if broken.balances != 1 || healthy.balances != 1 {
		t.Fatalf("balance deliveries = %d/%d, want 1/1", broken.balances, healthy.balances)
	}
}
