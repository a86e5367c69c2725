// Package audit delivers copies of ledger activity to best-effort sinks
// such as structured logs or snapshot writers. Sinks must never affect
// ledger correctness: every error is logged locally and dropped.
package audit

import (
	"context"
	"log/slog"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
)

// LoggerObserver writes every transaction and balance event to the
// structured logger.
type LoggerObserver struct {
	logger *slog.Logger
}

// NewLoggerObserver constructs a logging observer.
func NewLoggerObserver(logger *slog.Logger) *LoggerObserver {
	return &LoggerObserver{logger: logger}
}

func (o *LoggerObserver) TransactionRecorded(_ context.Context, ev ledger.Event) error {
	if o == nil || o.logger == nil {
		return nil
	}
	attrs := []any{
		slog.String("transaction_id", ev.TransactionID),
		slog.String("wallet_id", ev.WalletID),
		slog.String("user_id", ev.UserID),
		slog.String("amount", ev.Amount.StringFixed(2)),
		slog.String("kind", string(ev.Kind)),
		slog.String("mode", string(ev.Mode)),
		slog.String("status", string(ev.Status)),
		slog.Time("at", ev.At),
	}
	if ev.Description != "" {
		attrs = append(attrs, slog.String("description", ev.Description))
	}
	if ev.ErrorMessage != "" {
		attrs = append(attrs, slog.String("error_message", ev.ErrorMessage))
	}
	o.logger.Info("transaction recorded", attrs...)
	return nil
}

func (o *LoggerObserver) BalanceChanged(_ context.Context, ev ledger.BalanceEvent) error {
	if o == nil || o.logger == nil {
		return nil
	}
	o.logger.Info("balance changed",
		slog.String("wallet_id", ev.WalletID),
		slog.String("user_id", ev.UserID),
		slog.String("balance", ev.Balance.StringFixed(2)),
		slog.Time("at", ev.At),
	)
	return nil
}

// Fanout forwards each event to every sink, logging and swallowing sink
// errors so one broken observer cannot starve the others.
type Fanout struct {
	sinks  []ledger.Observer
	logger *slog.Logger
}

// NewFanout builds a fan-out observer over the provided sinks.
func NewFanout(logger *slog.Logger, sinks ...ledger.Observer) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

func (f *Fanout) TransactionRecorded(ctx context.Context, ev ledger.Event) error {
	for _, s := range f.sinks {
		if err := s.TransactionRecorded(ctx, ev); err != nil && f.logger != nil {
			f.logger.Warn("audit sink failed",
				slog.String("transaction_id", ev.TransactionID), slog.Any("error", err))
		}
	}
	return nil
}

func (f *Fanout) BalanceChanged(ctx context.Context, ev ledger.BalanceEvent) error {
	for _, s := range f.sinks {
		if err := s.BalanceChanged(ctx, ev); err != nil && f.logger != nil {
			f.logger.Warn("audit sink failed",
				slog.String("wallet_id", ev.WalletID), slog.Any("error", err))
		}
	}
	return nil
}
