package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
	"github.com/paisa-pay/paisa_pay/internal/wallet"
)

var (
	// ErrAuthorizationDenied indicates the payment gateway declined the
	// deposit; nothing was written to the ledger.
	ErrAuthorizationDenied = errors.New("payment authorization denied")

	// ErrNotOwner indicates the requester does not own the source wallet.
	ErrNotOwner = errors.New("not owner of source wallet")

	// ErrSelfTransfer rejects transfers where both sides are the same wallet.
	ErrSelfTransfer = errors.New("cannot transfer to the same wallet")

	// ErrInvalidMode rejects unsupported payment modes.
	ErrInvalidMode = errors.New("unsupported payment mode")

	// ErrAmountPrecision rejects amounts with more than two decimal places.
	ErrAmountPrecision = errors.New("amount must have at most two decimal places")
)

// Service fronts the balance mutation engine: it runs payment
// authorization for deposits and caller-side validation for transfers
// before anything financial is committed.
type Service struct {
	engine     *ledger.Engine
	wallets    *wallet.Service
	authorizer Authorizer
	logger     *slog.Logger
}

// NewService constructs a payments service.
func NewService(engine *ledger.Engine, wallets *wallet.Service, authorizer Authorizer, logger *slog.Logger) *Service {
	if authorizer == nil {
		authorizer = StaticAuthorizer{}
	}
	return &Service{engine: engine, wallets: wallets, authorizer: authorizer, logger: logger}
}

// DepositInput captures the data needed to fund a wallet.
type DepositInput struct {
	WalletID    string
	Amount      decimal.Decimal
	Mode        ledger.Mode
	Description string
}

// Deposit authorizes the payment with the gateway and applies the credit.
// A denial short-circuits with no transaction record created.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (ledger.Transaction, error) {
	if err := validateAmount(input.Amount); err != nil {
		return ledger.Transaction{}, err
	}
	if !ledger.ValidMode(input.Mode) {
		return ledger.Transaction{}, fmt.Errorf("%w: %q", ErrInvalidMode, input.Mode)
	}

	decision, err := s.authorizer.Authorize(ctx, AuthorizationRequest{
		Amount:      input.Amount,
		Mode:        input.Mode,
		Description: input.Description,
	})
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("authorize deposit: %w", err)
	}
	if !decision.Approved {
		if s.logger != nil {
			s.logger.Info("deposit authorization denied",
				slog.String("wallet_id", input.WalletID),
				slog.String("amount", input.Amount.StringFixed(2)),
				slog.String("reason", decision.Reason))
		}
		return ledger.Transaction{}, fmt.Errorf("%w: %s", ErrAuthorizationDenied, decision.Reason)
	}

	return s.engine.Deposit(ctx, input.WalletID, input.Amount, input.Mode, input.Description)
}

// TransferInput captures the data needed to move funds between wallets.
type TransferInput struct {
	FromWalletID    string
	ToWalletID      string
	ToUserID        string
	Amount          decimal.Decimal
	Description     string
	RequestorUserID string
}

// Transfer validates ownership and the self-transfer rule, then applies the
// two-sided move through the engine.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (ledger.Transaction, error) {
	if err := validateAmount(input.Amount); err != nil {
		return ledger.Transaction{}, err
	}
	if input.FromWalletID == input.ToWalletID {
		return ledger.Transaction{}, ErrSelfTransfer
	}

	fromWallet, err := s.wallets.Get(ctx, input.FromWalletID)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if input.RequestorUserID != "" && fromWallet.UserID != input.RequestorUserID {
		return ledger.Transaction{}, ErrNotOwner
	}

	toWalletID := input.ToWalletID
	if toWalletID == "" && input.ToUserID != "" {
		toWallet, err := s.wallets.GetByUser(ctx, input.ToUserID)
		if err != nil {
			return ledger.Transaction{}, err
		}
		toWalletID = toWallet.ID
		if toWalletID == input.FromWalletID {
			return ledger.Transaction{}, ErrSelfTransfer
		}
	}

	return s.engine.Transfer(ctx, input.FromWalletID, toWalletID, input.Amount, input.Description)
}

func validateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ledger.ErrNonPositiveAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrAmountPrecision
	}
	return nil
}
