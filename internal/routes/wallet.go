package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paisa-pay/paisa_pay/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallets", h.Create)
	r.Get("/wallets/me", h.Me)
	r.Get("/wallets/:walletId/balance", h.Balance)
	r.Get("/wallets/:walletId/transactions", h.Transactions)
}
