package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	UserID string `json:"user_id"`
	Tier   string `json:"tier"`
}

type walletResponse struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	Balance          string `json:"balance"`
	Tier             string `json:"tier"`
	TransactionLimit string `json:"transaction_limit"`
}

// Create provisions a wallet for a user.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.Create(c.UserContext(), req.UserID, ledger.Tier(req.Tier))
	if err != nil {
		switch {
		case ledger.IsRejection(err):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ledger.ErrWalletExists):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(toWalletResponse(w))
}

// Me returns the authenticated user's wallet.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "missing authenticated user")
	}
	w, err := h.service.GetByUser(c.UserContext(), userID)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toWalletResponse(w))
}

// Balance returns the wallet's current balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	walletID := utils.CopyString(c.Params("walletId"))
	balance, err := h.service.Balance(c.UserContext(), walletID)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id": balance.WalletID,
		"balance":   balance.Amount.StringFixed(2),
		"timestamp": balance.AsOf.Format(time.RFC3339Nano),
	})
}

type transactionResponse struct {
	ID                   string `json:"id"`
	WalletID             string `json:"wallet_id"`
	Amount               string `json:"amount"`
	Kind                 string `json:"kind"`
	Mode                 string `json:"mode"`
	Status               string `json:"status"`
	Description          string `json:"description,omitempty"`
	CounterpartyWalletID string `json:"counterparty_wallet_id,omitempty"`
	CounterpartyUserID   string `json:"counterparty_user_id,omitempty"`
	ErrorMessage         string `json:"error_message,omitempty"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
}

// Transactions lists wallet history, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	walletID := utils.CopyString(c.Params("walletId"))
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	txns, err := h.service.Transactions(c.UserContext(), walletID, limit, offset)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, toTransactionResponse(txn))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallet_id": walletID, "transactions": out})
}

func toWalletResponse(w ledger.Wallet) walletResponse {
	return walletResponse{
		ID:               w.ID,
		UserID:           w.UserID,
		Balance:          w.Balance.StringFixed(2),
		Tier:             string(w.Tier),
		TransactionLimit: w.TransactionLimit.StringFixed(2),
	}
}

func toTransactionResponse(txn ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:                   txn.ID,
		WalletID:             txn.WalletID,
		Amount:               txn.Amount.StringFixed(2),
		Kind:                 string(txn.Kind),
		Mode:                 string(txn.Mode),
		Status:               string(txn.Status),
		Description:          txn.Description,
		CounterpartyWalletID: txn.CounterpartyWalletID,
		CounterpartyUserID:   txn.CounterpartyUserID,
		ErrorMessage:         txn.ErrorMessage,
		CreatedAt:            txn.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:            txn.UpdatedAt.Format(time.RFC3339Nano),
	}
}
