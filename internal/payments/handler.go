package payments

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/shopspring/decimal"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
)

// Handler exposes deposit and transfer endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payments handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// DepositRequest captures user-provided deposit data. Amounts travel as
// strings so no binary float ever touches them.
type DepositRequest struct {
	Amount      string `json:"amount"`
	Mode        string `json:"mode"`
	Description string `json:"description"`
}

// TransferRequest captures user-provided transfer data.
type TransferRequest struct {
	FromWalletID string `json:"from_wallet_id"`
	ToWalletID   string `json:"to_wallet_id"`
	ToUserID     string `json:"to_user_id"`
	Amount       string `json:"amount"`
	Description  string `json:"description"`
}

// TransactionResponse is the API shape of a resolved transaction.
type TransactionResponse struct {
	TransactionID        string `json:"transaction_id"`
	WalletID             string `json:"wallet_id"`
	Amount               string `json:"amount"`
	Kind                 string `json:"kind"`
	Mode                 string `json:"mode"`
	Status               string `json:"status"`
	Description          string `json:"description,omitempty"`
	CounterpartyWalletID string `json:"counterparty_wallet_id,omitempty"`
	CounterpartyUserID   string `json:"counterparty_user_id,omitempty"`
	CompletedAt          string `json:"completed_at"`
}

// Deposit funds the wallet named in the path.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	walletID := utils.CopyString(c.Params("walletId"))
	var req DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	txn, err := h.service.Deposit(c.UserContext(), DepositInput{
		WalletID:    walletID,
		Amount:      amount,
		Mode:        ledger.Mode(req.Mode),
		Description: req.Description,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(txn))
}

// Transfer moves funds between two wallets on behalf of the authenticated
// sender.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}
	requestor, _ := c.Locals("user_id").(string)

	txn, err := h.service.Transfer(c.UserContext(), TransferInput{
		FromWalletID:    req.FromWalletID,
		ToWalletID:      req.ToWalletID,
		ToUserID:        req.ToUserID,
		Amount:          amount,
		Description:     req.Description,
		RequestorUserID: requestor,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(txn))
}

// mapError translates domain errors into HTTP responses. Business
// rejections carry their detail; infrastructure faults stay opaque.
func mapError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAuthorizationDenied):
		return fiber.NewError(http.StatusPaymentRequired, err.Error())
	case ledger.IsRejection(err):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrNonPositiveAmount),
		errors.Is(err, ErrAmountPrecision),
		errors.Is(err, ErrInvalidMode),
		errors.Is(err, ErrSelfTransfer):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "operation failed")
	}
}

func toResponse(txn ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:        txn.ID,
		WalletID:             txn.WalletID,
		Amount:               txn.Amount.StringFixed(2),
		Kind:                 string(txn.Kind),
		Mode:                 string(txn.Mode),
		Status:               string(txn.Status),
		Description:          txn.Description,
		CounterpartyWalletID: txn.CounterpartyWalletID,
		CounterpartyUserID:   txn.CounterpartyUserID,
		CompletedAt:          txn.UpdatedAt.Format(time.RFC3339Nano),
	}
}
